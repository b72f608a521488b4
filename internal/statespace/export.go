package statespace

import (
	"path/filepath"

	"github.com/KyungWonPark/StateSpace/internal/io"
	log "github.com/sirupsen/logrus"
)

// OutputBase is the path, without extension, of the tables written for prefix.
func (r *Runner) OutputBase(prefix string) string {
	name := prefix + "_" + r.Config.Method().String()
	if r.Config.Processing.ZScore {
		name += "_zscore"
	}
	return filepath.Join(r.Config.Output.Dir, name)
}

// export writes the wide table, plus the long table and .npy matrix when
// configured, and records the written files in res.
func (r *Runner) export(res *Result, prefix string) error {
	if r.Config.Processing.ZScore {
		res.Wide.RenameColumns(func(c string) string { return c + "_zscore" })
	}

	ext := ".csv"
	if r.Config.Delimiter() == '\t' {
		ext = ".tsv"
	}
	base := r.OutputBase(prefix)

	wide := base + ext
	if err := io.WriteWide(wide, res.Wide, r.Config.Delimiter()); err != nil {
		return err
	}
	res.Files = append(res.Files, wide)

	if r.Config.Output.Long {
		long := base + "_long" + ext
		rows := res.Scores.Long()
		if r.Config.Processing.ZScore {
			for i := range rows {
				rows[i].Reference += "_zscore"
			}
		}
		if err := io.WriteLong(long, rows, r.Config.Delimiter()); err != nil {
			return err
		}
		res.Files = append(res.Files, long)
	}

	if r.Config.Output.Npy && len(res.Wide.Rows) > 0 {
		npy := base + ".npy"
		if err := io.WideToNpy(npy, res.Wide); err != nil {
			return err
		}
		res.Files = append(res.Files, npy)
	}

	log.WithFields(log.Fields{
		"files":   res.Files,
		"rows":    len(res.Wide.Rows),
		"skipped": len(res.Skipped),
	}).Info("Wrote scores")

	return nil
}
