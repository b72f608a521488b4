// Package identity extracts task, subject and run labels from BIDS-style
// file paths.
package identity

import (
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/KyungWonPark/StateSpace/internal/errs"
)

// Markers are the substrings that precede each label in a path. An empty
// marker means the level is not required.
type Markers struct {
	Task    string `yaml:"task"`
	Subject string `yaml:"subject"`
	Run     string `yaml:"run"`
}

// BIDS returns the usual "task-", "sub-" and "run-" markers.
func BIDS() Markers {
	return Markers{Task: "task-", Subject: "sub-", Run: "run-"}
}

// Identity is the parsed identity of one input file.
type Identity struct {
	Path    string
	Name    string
	Task    string
	Subject string
	Run     string
}

// Stem strips the directory and every extension (".nii.gz" included).
func Stem(path string) string {
	base := filepath.Base(path)
	if i := strings.Index(base, "."); i > 0 {
		return base[:i]
	}
	return base
}

// Parse reads the labels selected by markers out of path. The last occurrence
// of a marker wins, and the label runs up to the next '_', '.' or path
// separator. A non-empty marker that is absent gives *errs.MissingMarkerError.
func Parse(path string, markers Markers) (Identity, error) {
	id := Identity{Path: path, Name: Stem(path)}

	levels := []struct {
		level  string
		marker string
		dst    *string
	}{
		{"task", markers.Task, &id.Task},
		{"subject", markers.Subject, &id.Subject},
		{"run", markers.Run, &id.Run},
	}

	for _, l := range levels {
		if l.marker == "" {
			continue
		}
		v, ok := label(path, l.marker)
		if !ok {
			return Identity{}, &errs.MissingMarkerError{Path: path, Level: l.level, Marker: l.marker}
		}
		*l.dst = v
	}

	return id, nil
}

func label(path, marker string) (string, bool) {
	i := strings.LastIndex(path, marker)
	if i < 0 {
		return "", false
	}
	rest := path[i+len(marker):]
	end := strings.IndexAny(rest, "_./\\")
	if end >= 0 {
		rest = rest[:end]
	}
	if rest == "" {
		return "", false
	}
	return rest, true
}

// RenumberRuns rewrites numeric run labels so that each subject's runs start
// at 1 while keeping their spacing. Non-numeric labels are left alone.
func RenumberRuns(ids []Identity) []Identity {
	first := make(map[string]int)
	for _, id := range ids {
		n, err := strconv.Atoi(id.Run)
		if err != nil {
			continue
		}
		if cur, ok := first[id.Subject]; !ok || n < cur {
			first[id.Subject] = n
		}
	}

	out := make([]Identity, len(ids))
	for i, id := range ids {
		out[i] = id
		n, err := strconv.Atoi(id.Run)
		if err != nil {
			continue
		}
		out[i].Run = strconv.Itoa(n - first[id.Subject] + 1)
	}
	return out
}

// Subjects returns the distinct subject labels, sorted.
func Subjects(ids []Identity) []string {
	seen := make(map[string]bool)
	var out []string
	for _, id := range ids {
		if !seen[id.Subject] {
			seen[id.Subject] = true
			out = append(out, id.Subject)
		}
	}
	sort.Strings(out)
	return out
}
