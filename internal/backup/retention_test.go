package backup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func placeFile(t *testing.T, dir, name string, age time.Duration) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	mtime := time.Now().Add(-age)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCleanDeletesOnlyExpired(t *testing.T) {
	mgr, _ := newTestManager(t, nil)
	dir := mgr.Config.Backup.LocalBackupDir
	old := placeFile(t, dir, "backup-full-20260101-000000.tar.zst", 10*24*time.Hour)
	fresh := placeFile(t, dir, "backup-full-20260820-000000.tar.zst", 24*time.Hour)

	if err := mgr.Clean(context.Background(), false); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Error("expired archive should be deleted")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Error("fresh archive must survive")
	}

	// A second run changes nothing.
	if err := mgr.Clean(context.Background(), false); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Error("fresh archive must survive repeated cleans")
	}
}

func TestCleanDryRunDeletesNothing(t *testing.T) {
	fake := newFakeProvider()
	fake.objects["backups/old.tar.zst"] = []byte("x")
	fake.times["backups/old.tar.zst"] = time.Now().Add(-30 * 24 * time.Hour)

	mgr, _ := newTestManager(t, fake)
	dir := mgr.Config.Backup.LocalBackupDir
	old := placeFile(t, dir, "backup-full-20260101-000000.tar.zst", 30*24*time.Hour)

	if err := mgr.Clean(context.Background(), true); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(old); err != nil {
		t.Error("dry run must not delete local files")
	}
	if len(fake.deleted) != 0 {
		t.Errorf("dry run must not touch remote storage: %v", fake.deleted)
	}
}

func TestCleanRetentionZeroDeletesEverything(t *testing.T) {
	mgr, _ := newTestManager(t, nil)
	mgr.Config.Backup.RetentionDays = intPtr(0)
	dir := mgr.Config.Backup.LocalBackupDir
	f := placeFile(t, dir, "backup-full-20260827-000000.tar.zst", time.Minute)

	if err := mgr.Clean(context.Background(), false); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(f); !os.IsNotExist(err) {
		t.Error("retention 0 keeps nothing")
	}
}

func TestCleanTouchesOnlyArchives(t *testing.T) {
	// The local sweep is scoped to .zst archives; anything else in the
	// directory is not ours to delete.
	mgr, _ := newTestManager(t, nil)
	dir := mgr.Config.Backup.LocalBackupDir
	stray := placeFile(t, dir, "notes.txt", 10*24*time.Hour)
	partial := placeFile(t, dir, "leftover.partial", 10*24*time.Hour)
	old := placeFile(t, dir, "backup-full-20260101-000000.tar.zst", 10*24*time.Hour)

	if err := mgr.Clean(context.Background(), false); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(stray); err != nil {
		t.Error("non-archive files must survive the sweep")
	}
	if _, err := os.Stat(partial); err != nil {
		t.Error("partial files must survive the sweep")
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Error("expired archive should be deleted")
	}
}

func TestCleanRemoteSweep(t *testing.T) {
	fake := newFakeProvider()
	fake.objects["backups/old.tar.zst"] = []byte("x")
	fake.times["backups/old.tar.zst"] = time.Now().Add(-30 * 24 * time.Hour)
	fake.objects["backups/new.tar.zst"] = []byte("x")
	fake.times["backups/new.tar.zst"] = time.Now()
	fake.objects["backups/untimed.tar.zst"] = []byte("x")
	// zero LastModified stays in times map as zero value

	mgr, _ := newTestManager(t, fake)
	if err := mgr.Clean(context.Background(), false); err != nil {
		t.Fatal(err)
	}
	if len(fake.deleted) != 1 || fake.deleted[0] != "backups/old.tar.zst" {
		t.Errorf("deleted = %v", fake.deleted)
	}
	if _, ok := fake.objects["backups/untimed.tar.zst"]; !ok {
		t.Error("objects without a timestamp must never be deleted")
	}
}

func TestCleanDefaultRetention(t *testing.T) {
	mgr, _ := newTestManager(t, nil)
	if mgr.Config.Backup.RetentionDaysOrDefault() != 7 {
		t.Errorf("default retention = %d", mgr.Config.Backup.RetentionDaysOrDefault())
	}
	dir := mgr.Config.Backup.LocalBackupDir
	sixDays := placeFile(t, dir, "backup-full-20260822-000000.tar.zst", 6*24*time.Hour)
	eightDays := placeFile(t, dir, "backup-full-20260820-000000.tar.zst", 8*24*time.Hour)

	if err := mgr.Clean(context.Background(), false); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(sixDays); err != nil {
		t.Error("6 day old archive must survive the default window")
	}
	if _, err := os.Stat(eightDays); !os.IsNotExist(err) {
		t.Error("8 day old archive must be deleted")
	}
}
