package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func TestStatusListsPendingChanges(t *testing.T) {
	root := newRepo(t)
	writeFile(t, root, "a.txt", "hello")
	writeFile(t, root, "new.go", "package x")
	writeFile(t, root, "debug.log", "noise")

	out, err := executeCommand(rootCmd, "status", "--root", root)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	for _, want := range []string{"Next version: 000", "Pending changes: 2", "  M a.txt", "  A new.go", "Ignored: 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if _, err := os.Stat(filepath.Join(root, "change_log.md")); !os.IsNotExist(err) {
		t.Error("status must not create the log")
	}
	if unstaged := gitRun(t, root, "diff", "--name-only"); !strings.Contains(unstaged, "a.txt") {
		t.Error("status must not stage")
	}
}

func TestStatusDeletedFile(t *testing.T) {
	root := newRepo(t)
	if err := os.Remove(filepath.Join(root, "a.txt")); err != nil {
		t.Fatal(err)
	}
	out, err := executeCommand(rootCmd, "status", "--root", root)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "  D a.txt") {
		t.Errorf("deleted file should be marked D:\n%s", out)
	}
}

// Feature: changerec, Property 6: status reports max(version)+1 for any log.
func TestStatusNextVersion(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	rapid.Check(t, func(rt *rapid.T) {
		versions := rapid.SliceOfNDistinct(rapid.IntRange(0, 999), 0, 6, rapid.ID[int]).Draw(rt, "versions")
		var sb strings.Builder
		want := 0
		for _, v := range versions {
			fmt.Fprintf(&sb, "\n\n---\n## VERSION %03d 📝\n**Time:** 2024-01-01 00:00:00\n", v)
			if v+1 > want {
				want = v + 1
			}
		}
		if err := os.WriteFile(filepath.Join(dir, "change_log.md"), []byte(sb.String()), 0o644); err != nil {
			rt.Fatal(err)
		}

		out, err := executeCommand(rootCmd, "status", "--root", dir)
		if err != nil {
			rt.Fatalf("status: %v", err)
		}
		if line := fmt.Sprintf("Next version: %03d", want); !strings.Contains(out, line) {
			rt.Errorf("expected %q in:\n%s", line, out)
		}
	})
}
