package identity

import (
	"errors"
	"testing"

	"github.com/KyungWonPark/StateSpace/internal/errs"
)

func TestStem(t *testing.T) {
	tests := map[string]string{
		"/data/gradient1.nii.gz":     "gradient1",
		"maps/faces.nii":             "faces",
		"sub-01_task-rest_bold":      "sub-01_task-rest_bold",
		"/a/b/sub-01_run-2_bold.nii": "sub-01_run-2_bold",
	}
	for in, want := range tests {
		if got := Stem(in); got != want {
			t.Errorf("Stem(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParse(t *testing.T) {
	path := "/data/derivatives/sub-CN001/func/sub-CN001_task-lppCN_run-3_space-MNIColin27_desc-preproc_bold.nii.gz"

	id, err := Parse(path, BIDS())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if id.Subject != "CN001" || id.Task != "lppCN" || id.Run != "3" {
		t.Errorf("identity = %+v", id)
	}
	if id.Name != "sub-CN001_task-lppCN_run-3_space-MNIColin27_desc-preproc_bold" {
		t.Errorf("name = %q", id.Name)
	}
}

func TestParseLastOccurrenceWins(t *testing.T) {
	id, err := Parse("/study/sub-old/sub-new.nii.gz", Markers{Subject: "sub-"})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if id.Subject != "new" {
		t.Errorf("subject = %q, want new", id.Subject)
	}
}

func TestParseMissingMarker(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		level string
	}{
		{"no run", "/data/sub-01/sub-01_task-rest_bold.nii.gz", "run"},
		{"empty label", "/data/sub-_task-rest_run-1.nii.gz", "subject"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.path, BIDS())
			var me *errs.MissingMarkerError
			if !errors.As(err, &me) {
				t.Fatalf("error = %v, want a MissingMarkerError", err)
			}
			if me.Level != tc.level {
				t.Errorf("level = %q, want %q", me.Level, tc.level)
			}
		})
	}

	if _, err := Parse("/data/faces.nii.gz", Markers{}); err != nil {
		t.Errorf("no required markers: unexpected error %v", err)
	}
}

func TestRenumberRuns(t *testing.T) {
	ids := []Identity{
		{Subject: "01", Run: "3"},
		{Subject: "01", Run: "5"},
		{Subject: "02", Run: "1"},
		{Subject: "02", Run: "x"},
	}

	got := RenumberRuns(ids)
	want := []string{"1", "3", "1", "x"}
	for i := range want {
		if got[i].Run != want[i] {
			t.Errorf("run %d = %q, want %q", i, got[i].Run, want[i])
		}
	}
	if ids[0].Run != "3" {
		t.Error("RenumberRuns should not modify its input")
	}

	if subs := Subjects(ids); len(subs) != 2 || subs[0] != "01" {
		t.Errorf("Subjects = %v", subs)
	}
}
