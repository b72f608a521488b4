package statespace

import (
	"fmt"

	"github.com/KyungWonPark/StateSpace/internal/calc"
	"github.com/KyungWonPark/StateSpace/internal/errs"
	"github.com/KyungWonPark/StateSpace/internal/score"
	"github.com/KyungWonPark/StateSpace/internal/volume"
	"github.com/gonum/matrix/mat64"
	log "github.com/sirupsen/logrus"
)

// CheckLength reads only the headers of paths and fails with a
// *errs.PreconditionError naming the first file whose grid or timepoint count
// differs from the first file. It returns the shared timepoint count.
func CheckLength(paths []string) (int, error) {
	if len(paths) == 0 {
		return 0, &errs.PreconditionError{Reason: "no input files"}
	}

	first, err := volume.ReadHeader(paths[0])
	if err != nil {
		return 0, err
	}
	log.WithFields(log.Fields{"path": paths[0], "shape": first.Shape}).Debug("Checked length")

	for _, path := range paths[1:] {
		hdr, err := volume.ReadHeader(path)
		if err != nil {
			return 0, err
		}
		log.WithFields(log.Fields{"path": path, "shape": hdr.Shape}).Debug("Checked length")

		if hdr.Timepoints() != first.Timepoints() {
			return 0, &errs.PreconditionError{
				Path:   path,
				Reason: fmt.Sprintf("%d timepoints, but %s has %d", hdr.Timepoints(), paths[0], first.Timepoints()),
			}
		}
		if hdr.Shape[0] != first.Shape[0] || hdr.Shape[1] != first.Shape[1] || hdr.Shape[2] != first.Shape[2] {
			return 0, &errs.PreconditionError{
				Path:   path,
				Reason: fmt.Sprintf("grid %v, but %s has %v", hdr.Shape[:3], paths[0], first.Shape[:3]),
			}
		}
	}

	return first.Timepoints(), nil
}

// accumulator sums same-shaped volumes one at a time.
type accumulator struct {
	pool   *calc.Pool
	zscore bool
	like   *volume.Volume
	sum    *mat64.Dense
	n      int
}

func (a *accumulator) add(v *volume.Volume) error {
	if a.like == nil {
		a.like = volume.New(v.Shape, v.Affine)
		a.sum = calc.FromVolume(a.like)
	} else if !v.SameGrid(a.like) || v.Timepoints() != a.like.Timepoints() {
		return &errs.PreconditionError{
			Path:   v.Name(),
			Reason: fmt.Sprintf("shape %v does not match the group shape %v", v.Shape, a.like.Shape),
		}
	}

	m := calc.FromVolume(v)
	if a.zscore {
		z := mat64.NewDense(v.Timepoints(), v.NumVoxels(), nil)
		if err := a.pool.ZScoring(m, z); err != nil {
			return fmt.Errorf("%s: %v", v.Name(), err)
		}
		m = z
	}

	if err := a.pool.Acc(m, a.sum); err != nil {
		return err
	}
	a.n++
	return nil
}

func (a *accumulator) mean() (*volume.Volume, error) {
	if a.n == 0 {
		return nil, &errs.PreconditionError{Reason: "no volumes to average"}
	}
	if err := a.pool.Avg(a.sum, a.sum, float64(a.n)); err != nil {
		return nil, err
	}
	return calc.ToVolume(a.sum, a.like)
}

// AverageGroup averages volumes voxel-wise, optionally z-scoring each one over
// all of its voxels and timepoints first (sample standard deviation).
func AverageGroup(vols []*volume.Volume, zscore bool, pool *calc.Pool) (*volume.Volume, error) {
	acc := &accumulator{pool: pool, zscore: zscore}
	for _, v := range vols {
		if err := acc.add(v); err != nil {
			return nil, err
		}
	}
	return acc.mean()
}

// GroupTimeCourse checks that every file has the same number of timepoints,
// then averages them, loading one subject at a time.
func (r *Runner) GroupTimeCourse(paths []string) (*volume.Volume, error) {
	if _, err := CheckLength(paths); err != nil {
		return nil, err
	}

	acc := &accumulator{pool: r.Pool, zscore: r.Config.Processing.ZScore}
	for i, path := range paths {
		v, err := volume.Load(path)
		if err != nil {
			return nil, err
		}
		if err := acc.add(v); err != nil {
			return nil, err
		}
		log.WithFields(log.Fields{
			"path":     path,
			"progress": fmt.Sprintf("%d/%d", i+1, len(paths)),
		}).Info("Added subject to group average")
	}

	return acc.mean()
}

// scoreTimeCourse masks a 4-D volume once and scores every frame against each
// reference.
func (r *Runner) scoreTimeCourse(s *session, agg *score.Aggregator, key score.Key, name string, v *volume.Volume) error {
	prepared, err := s.engine.Prepare(name, v)
	if err != nil {
		return err
	}

	for t := 0; t < prepared.Timepoints(); t++ {
		values, err := s.engine.ScoreAll(s.scored, prepared.Frame(t))
		if err != nil {
			return err
		}
		key.Timepoint = score.TimepointKey(t)
		for i, ref := range s.refs {
			if err := agg.Record(key, ref.Name, values[i]); err != nil {
				return err
			}
		}
	}
	return nil
}

// CorrTimeCourse scores every timepoint of an in-memory 4-D volume, such as a
// group average, and writes the table.
func (r *Runner) CorrTimeCourse(opts Options, v *volume.Volume) (*Result, error) {
	s, err := r.open(opts)
	if err != nil {
		return nil, err
	}

	res := &Result{Scores: score.NewAggregator(score.Timepoint), Average: v}
	if err := r.scoreTimeCourse(s, res.Scores, score.Key{}, prefixed(opts.Name, "group"), v); err != nil {
		return nil, err
	}
	if res.Wide, err = res.Scores.Wide(); err != nil {
		return nil, err
	}
	return res, r.export(res, prefixed(opts.Name, "timecourse"))
}

// CorrGroupTimeCourse averages subjects' 4-D runs into one group time course
// and scores each of its timepoints.
func (r *Runner) CorrGroupTimeCourse(opts Options, paths []string) (*Result, error) {
	avg, err := r.GroupTimeCourse(paths)
	if err != nil {
		return nil, err
	}
	return r.CorrTimeCourse(opts, avg)
}

// CorrIndTimeCourse scores every timepoint of each subject's run separately.
func (r *Runner) CorrIndTimeCourse(opts Options, paths []string) (*Result, error) {
	if len(paths) == 0 {
		return nil, &errs.PreconditionError{Reason: "no input files"}
	}

	markers := r.Config.Processing.Markers
	ids, skipped := r.parseAll(paths, markers)

	s, err := r.open(opts)
	if err != nil {
		return nil, err
	}

	levels := append(identityLevels(markers), score.Timepoint)
	res := &Result{Scores: score.NewAggregator(levels...), Skipped: skipped}

	for i, id := range ids {
		item := id.Task
		if item == "" {
			item = id.Name
		}
		key := score.Key{Item: item, Subject: id.Subject, Run: id.Run}

		v, err := volume.Load(id.Path)
		if err == nil && r.Config.Processing.ZScore {
			v, err = r.zscore(v)
		}
		if err == nil {
			err = r.scoreTimeCourse(s, res.Scores, key, id.Name, v)
		}
		if err != nil {
			if err := skip(res, id.Path, err); err != nil {
				return nil, err
			}
			continue
		}

		log.WithFields(log.Fields{
			"item":     key.String(),
			"progress": fmt.Sprintf("%d/%d", i+1, len(ids)),
		}).Info("Scored time course")
	}

	if res.Wide, err = res.Scores.Wide(); err != nil {
		return nil, err
	}
	return res, r.export(res, prefixed(opts.Name, "ind_timecourse"))
}
