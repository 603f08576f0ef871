package batch

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/teranos/hansard/errors"
)

// IsTranscriptFile reports whether name looks like a transcript rather than
// one of the runner's own output files.
func IsTranscriptFile(name string) bool {
	if !strings.EqualFold(filepath.Ext(name), ".json") {
		return false
	}
	for _, suffix := range []string{MentionsSuffix, UnresolvedSuffix, ProceduralSuffix} {
		if strings.HasSuffix(name, suffix) {
			return false
		}
	}
	return !strings.HasPrefix(filepath.Base(name), ".")
}

// Discover lists the transcript files directly under dir, sorted by name.
// A path to a single file is returned as is.
func Discover(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "stat %s", dir)
	}
	if !info.IsDir() {
		return []string{dir}, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "read transcript directory %s", dir)
	}
	paths := []string{}
	for _, e := range entries {
		if e.IsDir() || !IsTranscriptFile(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	return paths, nil
}
