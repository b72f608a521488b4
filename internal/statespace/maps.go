package statespace

import (
	"fmt"

	"github.com/KyungWonPark/StateSpace/internal/errs"
	"github.com/KyungWonPark/StateSpace/internal/identity"
	"github.com/KyungWonPark/StateSpace/internal/score"
	"github.com/KyungWonPark/StateSpace/internal/volume"
	log "github.com/sirupsen/logrus"
)

// keyFunc turns an input path into its score key and a display name.
type keyFunc func(path string) (score.Key, string, error)

// CorrTasks scores task contrast maps against the reference maps. With no
// paths it scores the task maps bundled in the resource directory. Each map
// is keyed by its file name.
func (r *Runner) CorrTasks(opts Options, paths []string) (*Result, error) {
	if len(paths) == 0 {
		var err error
		if paths, err = r.Catalog.TaskPaths(); err != nil {
			return nil, err
		}
	}

	keys := func(path string) (score.Key, string, error) {
		name := identity.Stem(path)
		return score.Key{Item: name}, name, nil
	}

	res, err := r.corrMaps(opts, paths, []score.Level{score.Item}, keys)
	if err != nil {
		return nil, err
	}
	return res, r.export(res, "gradscores")
}

// CorrGroup scores one group-level map per task, keyed by the task label
// found in each path.
func (r *Runner) CorrGroup(opts Options, paths []string) (*Result, error) {
	markers := identity.Markers{Task: r.Config.Processing.Markers.Task}

	keys := func(path string) (score.Key, string, error) {
		id, err := identity.Parse(path, markers)
		if err != nil {
			return score.Key{}, "", err
		}
		item := id.Task
		if item == "" {
			item = id.Name
		}
		return score.Key{Item: item}, id.Name, nil
	}

	res, err := r.corrMaps(opts, paths, []score.Level{score.Item}, keys)
	if err != nil {
		return nil, err
	}
	return res, r.export(res, prefixed(opts.Name, "group_gradscores"))
}

// CorrInd scores individual-subject maps, keyed by task, subject and, when a
// run marker is configured, run.
func (r *Runner) CorrInd(opts Options, paths []string) (*Result, error) {
	markers := r.Config.Processing.Markers
	levels := identityLevels(markers)

	ids, skipped := r.parseAll(paths, markers)

	byPath := make(map[string]identity.Identity, len(ids))
	parsed := make([]string, 0, len(ids))
	for _, id := range ids {
		byPath[id.Path] = id
		parsed = append(parsed, id.Path)
	}

	keys := func(path string) (score.Key, string, error) {
		id := byPath[path]
		item := id.Task
		if item == "" {
			item = id.Name
		}
		return score.Key{Item: item, Subject: id.Subject, Run: id.Run}, id.Name, nil
	}

	res, err := r.corrMaps(opts, parsed, levels, keys)
	if err != nil {
		return nil, err
	}
	res.Skipped = append(skipped, res.Skipped...)
	return res, r.export(res, prefixed(opts.Name, "ind_gradscores"))
}

// parseAll parses every path, renumbering runs when configured. Paths with a
// missing marker are returned as skipped.
func (r *Runner) parseAll(paths []string, markers identity.Markers) ([]identity.Identity, []Skipped) {
	var (
		ids     []identity.Identity
		skipped []Skipped
	)
	for _, path := range paths {
		id, err := identity.Parse(path, markers)
		if err != nil {
			log.WithFields(log.Fields{
				"path":  path,
				"error": err,
			}).Warn("Skipping input")
			skipped = append(skipped, Skipped{Path: path, Err: err})
			continue
		}
		ids = append(ids, id)
	}
	if r.Config.Processing.RenumberRuns {
		ids = identity.RenumberRuns(ids)
	}
	log.WithFields(log.Fields{
		"inputs":   len(ids),
		"subjects": len(identity.Subjects(ids)),
		"skipped":  len(skipped),
	}).Info("Parsed identities")
	return ids, skipped
}

func identityLevels(markers identity.Markers) []score.Level {
	levels := []score.Level{score.Item}
	if markers.Subject != "" {
		levels = append(levels, score.Subject)
	}
	if markers.Run != "" {
		levels = append(levels, score.Run)
	}
	return levels
}

func (r *Runner) corrMaps(opts Options, paths []string, levels []score.Level, keys keyFunc) (*Result, error) {
	if len(paths) == 0 {
		return nil, &errs.PreconditionError{Reason: "no input maps"}
	}

	s, err := r.open(opts)
	if err != nil {
		return nil, err
	}

	res := &Result{Scores: score.NewAggregator(levels...)}

	for i, path := range paths {
		key, name, err := keys(path)
		if err != nil {
			if err := skip(res, path, err); err != nil {
				return nil, err
			}
			continue
		}

		v, err := volume.Load(path)
		if err == nil && v.Timepoints() != 1 {
			err = fmt.Errorf("%s is a 4-D volume with %d timepoints, expected a single map", path, v.Timepoints())
		}
		if err == nil {
			err = r.scoreVolume(s, res.Scores, key, name, v)
		}
		if err != nil {
			if err := skip(res, path, err); err != nil {
				return nil, err
			}
			continue
		}

		log.WithFields(log.Fields{
			"item":     key.String(),
			"progress": fmt.Sprintf("%d/%d", i+1, len(paths)),
		}).Info("Scored map")
	}

	if res.Wide, err = res.Scores.Wide(); err != nil {
		return nil, err
	}
	return res, nil
}

func prefixed(name, base string) string {
	if name == "" {
		return base
	}
	return name + "_" + base
}
