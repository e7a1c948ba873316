package execx

import (
	"context"
	"strings"
	"sync"
)

// Call records one invocation seen by a FakeRunner.
type Call struct {
	Name string
	Args []string
	Env  []string
}

// FakeRunner is a scripted Runner for tests. Responses are keyed by the
// command name plus its arguments joined with spaces; a response keyed by
// the bare command name matches any invocation of that command.
type FakeRunner struct {
	mu        sync.Mutex
	Responses map[string]Result
	Errors    map[string]error
	Calls     []Call
}

func NewFakeRunner() *FakeRunner {
	return &FakeRunner{
		Responses: make(map[string]Result),
		Errors:    make(map[string]error),
	}
}

func (f *FakeRunner) Run(ctx context.Context, name string, args []string, env []string) (Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, Call{Name: name, Args: args, Env: env})

	full := name
	if len(args) > 0 {
		full = name + " " + strings.Join(args, " ")
	}
	if err, ok := f.Errors[full]; ok {
		return Result{}, err
	}
	if err, ok := f.Errors[name]; ok {
		return Result{}, err
	}
	if res, ok := f.Responses[full]; ok {
		return res, nil
	}
	if res, ok := f.Responses[name]; ok {
		return res, nil
	}
	return Result{}, nil
}

// CallsFor returns the recorded invocations of the given command.
func (f *FakeRunner) CallsFor(name string) []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Call
	for _, c := range f.Calls {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

var _ Runner = (*FakeRunner)(nil)
