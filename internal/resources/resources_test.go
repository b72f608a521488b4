package resources

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/KyungWonPark/StateSpace/internal/config"
	"github.com/KyungWonPark/StateSpace/internal/volume"
)

func writeVolume(t *testing.T, path string, shape []int, value float64) {
	t.Helper()
	v := volume.New(shape, volume.Identity())
	for i := range v.Data {
		v.Data[i] = value
	}
	if _, err := volume.Save(v, path); err != nil {
		t.Fatalf("Save(%s) failed: %v", path, err)
	}
}

func testCatalog(t *testing.T) *Catalog {
	t.Helper()

	root, err := os.MkdirTemp("", "statespace-resources-*")
	if err != nil {
		t.Fatalf("Failed to create temporary directory: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(root) })

	cfg := config.DefaultConfig()
	cfg.Resources.Root = root

	writeVolume(t, filepath.Join(root, "masks", "gradientmask_all.nii.gz"), []int{2, 2, 2}, 1)
	refDir := filepath.Join(root, cfg.Resources.ReferenceSets["gradients"][config.CoverageAll])
	writeVolume(t, filepath.Join(refDir, "gradient2.nii.gz"), []int{4, 4, 4}, 2)
	writeVolume(t, filepath.Join(refDir, "gradient1.nii.gz"), []int{4, 4, 4}, 1)
	writeVolume(t, filepath.Join(root, "tasks", "faces.nii.gz"), []int{2, 2, 2}, 3)

	return NewCatalog(cfg)
}

func TestCatalogPaths(t *testing.T) {
	c := testCatalog(t)

	mask, err := c.MaskPath("gradientmask_all")
	if err != nil {
		t.Fatalf("MaskPath failed: %v", err)
	}
	if filepath.Base(mask) != "gradientmask_all.nii.gz" {
		t.Errorf("mask path = %s", mask)
	}
	if direct, err := c.MaskPath(mask); err != nil || direct != mask {
		t.Errorf("MaskPath(existing file) = %s, %v", direct, err)
	}
	if _, err := c.MaskPath("nope"); err == nil {
		t.Error("MaskPath should fail for an unknown mask")
	}

	refs, err := c.ReferencePaths("gradients", config.CoverageAll)
	if err != nil {
		t.Fatalf("ReferencePaths failed: %v", err)
	}
	if len(refs) != 2 || filepath.Base(refs[0]) != "gradient1.nii.gz" {
		t.Errorf("reference paths = %v", refs)
	}
	if _, err := c.ReferencePaths("gradients", config.CoverageCortical); err == nil {
		t.Error("an empty reference directory should be an error")
	}
	if _, err := c.ReferencePaths("atlas", config.CoverageAll); err == nil {
		t.Error("an unknown reference set should be an error")
	}

	tasks, err := c.TaskPaths()
	if err != nil || len(tasks) != 1 {
		t.Errorf("TaskPaths = %v, %v", tasks, err)
	}
}

func TestLoadReferencesAlignsToGrid(t *testing.T) {
	c := testCatalog(t)

	paths, err := c.ReferencePaths("gradients", config.CoverageAll)
	if err != nil {
		t.Fatalf("ReferencePaths failed: %v", err)
	}
	grid := volume.New([]int{2, 2, 2}, volume.Identity())

	refs, err := LoadReferences(paths, grid)
	if err != nil {
		t.Fatalf("LoadReferences failed: %v", err)
	}
	if names := Names(refs); names[0] != "gradient1" || names[1] != "gradient2" {
		t.Errorf("names = %v", names)
	}
	for _, v := range Volumes(refs) {
		if !v.SameGrid(grid) {
			t.Errorf("reference shape = %v, want the grid shape", v.Shape)
		}
	}
	if got := refs[1].Similarity(); len(got.Values) != 8 || got.Values[0] != 2 {
		t.Errorf("similarity reference = %+v", got)
	}
}
