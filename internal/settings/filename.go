package settings

import (
	"path/filepath"
	"time"
)

// OutputDir returns the directory reports are written to. When TimeOutput is
// set, a subdirectory named after launch (formatted with TimeFormat) is used.
func (s *Settings) OutputDir(launch time.Time) string {
	dir := s.OutputPath
	if dir == "" {
		dir = "."
	}
	if s.TimeOutput {
		layout := s.TimeFormat
		if layout == "" {
			layout = Default().TimeFormat
		}
		dir = filepath.Join(dir, launch.Format(layout))
	}
	return dir
}

// ComposeOutputFilename builds the path of an output file from a tag and an
// extension, e.g. ComposeOutputFilename("markprof", ".json", t).
func (s *Settings) ComposeOutputFilename(tag, ext string, launch time.Time) string {
	return filepath.Join(s.OutputDir(launch), s.OutputPrefix+tag+ext)
}
