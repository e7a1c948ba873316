package main

import (
	"os"

	"ZestyBackup/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
