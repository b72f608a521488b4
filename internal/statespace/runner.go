// Package statespace runs the correlation analyses: it loads inputs, scores
// them against reference maps and writes the resulting state-space tables.
package statespace

import (
	"errors"
	"fmt"

	"github.com/KyungWonPark/StateSpace/internal/calc"
	"github.com/KyungWonPark/StateSpace/internal/config"
	"github.com/KyungWonPark/StateSpace/internal/errs"
	"github.com/KyungWonPark/StateSpace/internal/mask"
	"github.com/KyungWonPark/StateSpace/internal/resources"
	"github.com/KyungWonPark/StateSpace/internal/score"
	"github.com/KyungWonPark/StateSpace/internal/similarity"
	"github.com/KyungWonPark/StateSpace/internal/volume"
	"github.com/carbocation/pfx"
	log "github.com/sirupsen/logrus"
)

// Options select the mask and reference maps of one run.
type Options struct {
	// Mask is a mask name from the catalog or a path to a mask file.
	Mask string
	// ReferenceSet and Coverage pick the reference maps.
	ReferenceSet string
	Coverage     string
	// Name prefixes the output files of group and individual runs.
	Name string
}

// Skipped is an input that was dropped with the error that dropped it.
type Skipped struct {
	Path string
	Err  error
}

// Result is the outcome of one run.
type Result struct {
	Scores  *score.Aggregator
	Wide    *score.Wide
	Files   []string
	Skipped []Skipped
	// Average is the group time course scored by time-course runs.
	Average *volume.Volume
}

// Runner carries the configuration shared by every analysis.
type Runner struct {
	Config  *config.Config
	Catalog *resources.Catalog
	Pool    *calc.Pool
}

// NewRunner validates cfg and builds a Runner from it.
func NewRunner(cfg *config.Config) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, pfx.Err(err)
	}
	return &Runner{
		Config:  cfg,
		Catalog: resources.NewCatalog(cfg),
		Pool:    calc.NewPool(cfg.Processing.Workers),
	}, nil
}

// session is the mask, references and engine of one run.
type session struct {
	mask   *volume.Volume
	refs   []resources.Reference
	scored []similarity.Reference
	engine *similarity.Engine
}

func (r *Runner) open(opts Options) (*session, error) {
	maskPath, err := r.Catalog.MaskPath(opts.Mask)
	if err != nil {
		return nil, err
	}
	m, err := volume.Load(maskPath)
	if err != nil {
		return nil, err
	}
	if m.NDim() != 3 {
		return nil, &errs.PreconditionError{Path: maskPath, Reason: fmt.Sprintf("mask must be 3-D, got shape %v", m.Shape)}
	}
	m = mask.Binarize(m)

	refPaths, err := r.Catalog.ReferencePaths(opts.ReferenceSet, opts.Coverage)
	if err != nil {
		return nil, err
	}
	refs, err := resources.LoadReferences(refPaths, m)
	if err != nil {
		return nil, err
	}

	s := &session{
		mask: m,
		refs: refs,
		engine: &similarity.Engine{
			Method:            r.Config.Method(),
			Mask:              m,
			RequireMaskForDot: r.Config.Processing.DotProductRequiresMask,
			SaveMasked:        r.Config.Output.SaveMasked,
			OutputDir:         r.Config.Output.Dir,
		},
	}
	for _, ref := range refs {
		s.scored = append(s.scored, ref.Similarity())
	}

	log.WithFields(log.Fields{
		"mask":       maskPath,
		"voxels":     mask.Count(m),
		"references": resources.Names(refs),
		"method":     s.engine.Method,
	}).Info("Opened session")

	return s, nil
}

// zscore standardises a copy of v over all of its voxels and timepoints.
func (r *Runner) zscore(v *volume.Volume) (*volume.Volume, error) {
	out := v.Clone()
	m := calc.FromVolume(out)
	if err := r.Pool.ZScoring(m, m); err != nil {
		return nil, pfx.Err(fmt.Errorf("%s: %v", v.Name(), err))
	}
	return out, nil
}

// scoreVolume masks a 3-D volume and records one score per reference.
func (r *Runner) scoreVolume(s *session, agg *score.Aggregator, key score.Key, name string, v *volume.Volume) error {
	if r.Config.Processing.ZScore {
		var err error
		if v, err = r.zscore(v); err != nil {
			return err
		}
	}

	prepared, err := s.engine.Prepare(name, v)
	if err != nil {
		return err
	}

	values, err := s.engine.ScoreAll(s.scored, prepared.Data)
	if err != nil {
		return err
	}
	for i, ref := range s.refs {
		if err := agg.Record(key, ref.Name, values[i]); err != nil {
			return err
		}
	}
	return nil
}

// skip records an item-level failure, or returns err when it must abort the
// whole batch.
func skip(res *Result, path string, err error) error {
	var dup *errs.DuplicateError
	if errs.IsPrecondition(err) || errors.As(err, &dup) {
		return err
	}

	log.WithFields(log.Fields{
		"path":  path,
		"error": err,
	}).Warn("Skipping input")

	res.Skipped = append(res.Skipped, Skipped{Path: path, Err: err})
	return nil
}
