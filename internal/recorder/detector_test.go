package recorder_test

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"pgregory.net/rapid"

	"github.com/fakeyudi/changerec/internal/recorder"
	"github.com/fakeyudi/changerec/internal/workspace"
)

func newDetector(snap *fakeSnapshot, files *workspace.MemFS) *recorder.Detector {
	m := recorder.NewMatcher(recorder.DefaultIgnorePatterns...)
	m.Exclude("change_log.md", "change_log.md.lock")
	return &recorder.Detector{Snapshot: snap, Files: files, Matcher: m}
}

func TestDetect_OrderAndDedupe(t *testing.T) {
	snap := &fakeSnapshot{
		unstaged:  []string{"b.go", "a.go"},
		untracked: []string{"new.txt", "a.go", "z.md"},
	}
	det := newDetector(snap, workspace.NewMemFS(nil)).Detect(context.Background())

	want := []string{"b.go", "a.go", "new.txt", "z.md"}
	if !reflect.DeepEqual(det.Changes.Paths(), want) {
		t.Errorf("Paths = %v, want %v", det.Changes.Paths(), want)
	}
	if det.Changes[0].Untracked || !det.Changes[2].Untracked {
		t.Errorf("untracked flags wrong: %+v", det.Changes)
	}
}

func TestDetect_FiltersNoiseFromBothSources(t *testing.T) {
	snap := &fakeSnapshot{
		unstaged:  []string{"change_log.md", "app.log", "src/main.go"},
		untracked: []string{"node_modules/x/index.js", "change_log.md.lock", ".DS_Store", "README.md"},
	}
	det := newDetector(snap, workspace.NewMemFS(nil)).Detect(context.Background())

	if want := []string{"src/main.go", "README.md"}; !reflect.DeepEqual(det.Changes.Paths(), want) {
		t.Errorf("Paths = %v, want %v", det.Changes.Paths(), want)
	}
	if len(det.Ignored) != 5 {
		t.Errorf("Ignored = %v, want 5 entries", det.Ignored)
	}
}

func TestDetect_DecodesQuotedNames(t *testing.T) {
	files := workspace.NewMemFS(map[string]string{"café.txt": "x"})
	snap := &fakeSnapshot{untracked: []string{`"caf\303\251.txt"`, `"gh\303\270st.txt"`}}

	det := newDetector(snap, files).Detect(context.Background())
	got := det.Changes.Paths()
	if len(got) != 2 {
		t.Fatalf("Paths = %v", got)
	}
	if got[0] != "café.txt" {
		t.Errorf("existing quoted name should decode, got %q", got[0])
	}
	if got[1] != `"gh\303\270st.txt"` {
		t.Errorf("missing decoded name should stay raw, got %q", got[1])
	}
}

func TestDetect_QueryFailureDegradesToEmpty(t *testing.T) {
	snap := &fakeSnapshot{unstaged: []string{"a.go"}, listErr: errBoom}
	det := newDetector(snap, workspace.NewMemFS(nil)).Detect(context.Background())

	if len(det.Changes) != 0 {
		t.Errorf("Changes = %v, want none", det.Changes)
	}
	if len(det.Warnings) != 1 || !strings.Contains(det.Warnings[0], "boom") {
		t.Errorf("Warnings = %v", det.Warnings)
	}
}

func TestChangeSet_Existing(t *testing.T) {
	files := workspace.NewMemFS(map[string]string{"a.go": "", "c.go": ""})
	cs := recorder.ChangeSet{{Path: "a.go"}, {Path: "b.go"}, {Path: "c.go", Untracked: true}}

	present, deleted := cs.Existing(files)
	if !reflect.DeepEqual(present.Paths(), []string{"a.go", "c.go"}) {
		t.Errorf("present = %v", present.Paths())
	}
	if !reflect.DeepEqual(deleted, []string{"b.go"}) {
		t.Errorf("deleted = %v", deleted)
	}
}

// Feature: changerec, Property 4: detecting twice without staging yields the
// same ChangeSet, with no duplicates.
func TestProperty_DetectionIsIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		gen := rapid.SliceOfN(rapid.StringMatching(`[a-c]{1,2}/[a-d]\.(go|txt|log)`), 0, 8)
		snap := &fakeSnapshot{
			unstaged:  gen.Draw(t, "unstaged"),
			untracked: gen.Draw(t, "untracked"),
		}
		d := newDetector(snap, workspace.NewMemFS(nil))

		first := d.Detect(context.Background())
		second := d.Detect(context.Background())
		if !reflect.DeepEqual(first.Changes, second.Changes) {
			t.Fatalf("detections differ: %v vs %v", first.Changes, second.Changes)
		}

		seen := map[string]bool{}
		for _, p := range first.Changes.Paths() {
			if seen[p] {
				t.Fatalf("duplicate path %q in %v", p, first.Changes.Paths())
			}
			seen[p] = true
			if strings.HasSuffix(p, ".log") {
				t.Fatalf("noise path %q was not filtered", p)
			}
		}
	})
}
