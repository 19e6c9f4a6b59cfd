package repo

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// Output writes run artifacts below a directory.
type Output struct{}

func NewOutput() *Output {
	return &Output{}
}

// WriteJSON encodes v as indented JSON.
func (r *Output) WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(v), "failed to encode json")
}

// SaveJSON writes v as indented JSON to path, creating parent directories.
func (r *Output) SaveJSON(path string, v interface{}) error {
	var buf bytes.Buffer
	if err := r.WriteJSON(&buf, v); err != nil {
		return err
	}
	return r.SaveBytes(path, buf.Bytes())
}

func (r *Output) SaveBytes(path string, b []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "failed to create output directory")
	}
	return errors.Wrap(os.WriteFile(path, b, 0o644), "failed to write output")
}
