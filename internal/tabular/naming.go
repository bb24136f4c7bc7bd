package tabular

import (
	"fmt"
	"path/filepath"
	"time"
)

// fileStampLayout renders the run timestamp inside file names.
const fileStampLayout = "20060102_150405"

// FileName names a dataset artifact after its run: "<dataset>_<runID>_<yyyymmdd_hhmmss>.<ext>".
// The timestamp is always rendered in UTC.
func FileName(dataset, runID string, at time.Time, ext string) string {
	return fmt.Sprintf("%s_%s_%s.%s", dataset, runID, at.UTC().Format(fileStampLayout), ext)
}

// RunDir returns the directory artifacts of a run are written to. With perRun
// set, each run gets its own subdirectory named by its identifier.
func RunDir(base, runID string, perRun bool) string {
	if perRun {
		return filepath.Join(base, runID)
	}
	return base
}
