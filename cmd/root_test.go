package cmd

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/changerec/internal/changelog"
)

// executeCommand runs root with args and returns combined stdout/stderr output.
func executeCommand(root *cobra.Command, args ...string) (output string, err error) {
	resetFlags()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	_, err = root.ExecuteC()
	return buf.String(), err
}

// resetFlags restores flag variables; cobra keeps values between Execute calls.
func resetFlags() {
	rootFlag, logFileFlag, verbose = "", "", false
	dryRun, noClipboard = false, false
	plainOutput, followLog, viewVersion = false, false, -1
}

// isolate keeps user config and CHANGEREC_* settings out of the test.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, k := range []string{"CHANGEREC_LOG_FILE", "CHANGEREC_CLIPBOARD", "CHANGEREC_LOCK", "CHANGEREC_LOG_LEVEL", "CHANGEREC_LOG_FORMAT"} {
		t.Setenv(k, "")
	}
	// Temp directories must not resolve to an enclosing work tree.
	t.Setenv("GIT_CEILING_DIRECTORIES", os.TempDir())
}

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
}

// newRepo creates a git repository with a.txt committed as "hi\n".
func newRepo(t *testing.T) string {
	t.Helper()
	requireGit(t)
	isolate(t)
	root := t.TempDir()
	t.Setenv("GIT_AUTHOR_NAME", "test")
	t.Setenv("GIT_AUTHOR_EMAIL", "test@example.com")
	t.Setenv("GIT_COMMITTER_NAME", "test")
	t.Setenv("GIT_COMMITTER_EMAIL", "test@example.com")
	t.Setenv("GIT_CONFIG_GLOBAL", os.DevNull)
	t.Setenv("GIT_CONFIG_NOSYSTEM", "1")
	gitRun(t, root, "init", "-q")
	writeFile(t, root, "a.txt", "hi\n")
	gitRun(t, root, "add", "a.txt")
	gitRun(t, root, "commit", "-q", "-m", "init")
	return root
}

func gitRun(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %v: %v\n%s", args, err, out)
	}
	return string(out)
}

func writeFile(t *testing.T, root, name, content string) {
	t.Helper()
	path := filepath.Join(root, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

// TestRecordEndToEnd verifies a bare invocation records, stages, and leaves
// nothing for the next run.
func TestRecordEndToEnd(t *testing.T) {
	root := newRepo(t)
	writeFile(t, root, "a.txt", "hello")
	writeFile(t, root, "b.txt", "world")

	out, err := executeCommand(rootCmd, "--root", root, "--no-clipboard")
	if err != nil {
		t.Fatalf("record: %v\n%s", err, out)
	}
	for _, want := range []string{"Detected 2 changed file(s)", "Recorded version 000", "✓ a.txt", "✓ b.txt", "Staged 2/2"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	log := readFile(t, filepath.Join(root, "change_log.md"))
	if !strings.HasPrefix(log, "\n\n---\n## VERSION 000 📝\n") {
		t.Errorf("log should start with version 000:\n%s", log)
	}
	if !strings.Contains(log, "**2 files changed: `a.txt`, `b.txt`**") {
		t.Errorf("log summary missing:\n%s", log)
	}

	staged := gitRun(t, root, "diff", "--name-only")
	if strings.TrimSpace(staged) != "" {
		t.Errorf("worktree should match the index after recording, unstaged: %q", staged)
	}

	out, err = executeCommand(rootCmd, "record", "--root", root, "--no-clipboard")
	if err != nil {
		t.Fatalf("second record: %v", err)
	}
	if !strings.Contains(out, "No new changes detected") {
		t.Errorf("second run should find nothing:\n%s", out)
	}
}

func TestRecordDryRun(t *testing.T) {
	root := newRepo(t)
	writeFile(t, root, "a.txt", "hello")

	out, err := executeCommand(rootCmd, "record", "--root", root, "--dry-run")
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if !strings.Contains(out, "## VERSION 000 📝") || !strings.Contains(out, "dry run") {
		t.Errorf("dry run should print the record:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(root, "change_log.md")); !os.IsNotExist(err) {
		t.Error("dry run must not write the log")
	}
	if unstaged := gitRun(t, root, "diff", "--name-only"); !strings.Contains(unstaged, "a.txt") {
		t.Error("dry run must not stage")
	}
}

func TestRecordCustomLogFile(t *testing.T) {
	root := newRepo(t)
	writeFile(t, root, "a.txt", "hello")

	if out, err := executeCommand(rootCmd, "--root", root, "--log-file", "docs/changes.md", "--no-clipboard"); err != nil {
		t.Fatalf("record: %v\n%s", err, out)
	}
	log := readFile(t, filepath.Join(root, "docs", "changes.md"))
	if changelog.NextVersion(log) != 1 {
		t.Errorf("expected one version in custom log:\n%s", log)
	}

	// The log itself is never recorded.
	out, err := executeCommand(rootCmd, "--root", root, "--log-file", "docs/changes.md", "--no-clipboard")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "No new changes detected") {
		t.Errorf("log file should be excluded from detection:\n%s", out)
	}
}

func TestRecordFromSubdirectoryRoot(t *testing.T) {
	root := newRepo(t)
	writeFile(t, root, "sub/x.txt", "one\n")
	gitRun(t, root, "add", "sub/x.txt")
	gitRun(t, root, "commit", "-q", "-m", "sub")
	writeFile(t, root, "sub/x.txt", "two\n")
	writeFile(t, root, "sub/y.txt", "new\n")

	out, err := executeCommand(rootCmd, "--root", filepath.Join(root, "sub"), "--no-clipboard")
	if err != nil {
		t.Fatalf("record: %v\n%s", err, out)
	}
	for _, want := range []string{"Recorded version 000", "✓ sub/x.txt", "✓ sub/y.txt", "Staged 2/2"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "(deleted)") {
		t.Errorf("modified file reported as deleted:\n%s", out)
	}

	log := readFile(t, filepath.Join(root, "change_log.md"))
	if !strings.Contains(log, "**2 files changed: `sub/x.txt`, `sub/y.txt`**") || !strings.Contains(log, "+two") {
		t.Errorf("log should record both files from the work tree top:\n%s", log)
	}

	out, err = executeCommand(rootCmd, "status", "--root", filepath.Join(root, "sub"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Pending changes: 0") {
		t.Errorf("nothing should be pending after recording:\n%s", out)
	}
}

func TestRecordClipboardOffIsQuiet(t *testing.T) {
	root := newRepo(t)
	t.Setenv("CHANGEREC_CLIPBOARD", "off")
	writeFile(t, root, "a.txt", "hello")

	out, err := executeCommand(rootCmd, "--root", root)
	if err != nil {
		t.Fatalf("record: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Recorded version 000") {
		t.Errorf("expected a recorded version:\n%s", out)
	}
	if strings.Contains(out, "Could not copy to clipboard") || strings.Contains(out, "Copied to clipboard") {
		t.Errorf("disabled clipboard should not be reported:\n%s", out)
	}
}

func TestRecordLockHeld(t *testing.T) {
	root := newRepo(t)
	writeFile(t, root, "a.txt", "hello")

	lock, err := changelog.AcquireLock(filepath.Join(root, "change_log.md"))
	if err != nil {
		t.Fatal(err)
	}
	defer lock.Release()

	out, err := executeCommand(rootCmd, "--root", root, "--no-clipboard")
	if err == nil {
		t.Fatalf("expected lock error, got output:\n%s", out)
	}
	if !strings.Contains(err.Error(), "another changerec run is in progress") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRecordNotARepository(t *testing.T) {
	requireGit(t)
	isolate(t)
	dir := t.TempDir()

	out, err := executeCommand(rootCmd, "--root", dir, "--no-clipboard")
	if err != nil {
		t.Fatalf("detection failure should not be fatal: %v", err)
	}
	if !strings.Contains(out, "warning: failed to detect changes") || !strings.Contains(out, "No new changes detected") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestConfigParseErrorIsFatal(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, dir, ".changerec.yaml", "log_file: [unterminated\n")

	_, err := executeCommand(rootCmd, "status", "--root", dir)
	if err == nil || !strings.Contains(err.Error(), "loading config") {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestRootRejectsArguments(t *testing.T) {
	isolate(t)
	if _, err := executeCommand(rootCmd, "--root", t.TempDir(), "extra"); err == nil {
		t.Error("expected an error for unexpected arguments")
	}
}
