package util

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// WriteFileAtomic writes payload to a temp file first, then renames it
// into place so a concurrent reader never sees a partial file.
func WriteFileAtomic(filename string, payload []byte) error {
	dir := filepath.Dir(filename)
	tmp, err := os.CreateTemp(dir, ".write-*")
	if err != nil {
		return errors.Wrap(err, "could not create temp file")
	}
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrap(err, "could not write temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "could not close temp file")
	}
	return errors.Wrap(os.Rename(tmp.Name(), filename), "could not move file into place")
}
