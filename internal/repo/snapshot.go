package repo

import (
	"bufio"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"

	"exusiai.dev/stageflow/internal/model"
	"exusiai.dev/stageflow/internal/pkg/flowerr"
)

// Snapshot persists enhanced logs as msgpack.
type Snapshot struct{}

func NewSnapshot() *Snapshot {
	return &Snapshot{}
}

func (s *Snapshot) Encode(w io.Writer, snapshot *model.Snapshot) error {
	bw := bufio.NewWriter(w)
	if err := msgpack.NewEncoder(bw).Encode(snapshot); err != nil {
		return errors.Wrap(err, "failed to encode snapshot")
	}
	return errors.Wrap(bw.Flush(), "failed to flush snapshot")
}

func (s *Snapshot) Decode(r io.Reader) (*model.Snapshot, error) {
	var snapshot model.Snapshot
	if err := msgpack.NewDecoder(bufio.NewReader(r)).Decode(&snapshot); err != nil {
		return nil, flowerr.ErrInvalidInput.Msg("failed to decode snapshot: %s", err)
	}
	if snapshot.Log == nil {
		return nil, flowerr.ErrInvalidInput.Msg("snapshot %s has no event log", snapshot.RunID)
	}
	return &snapshot, nil
}

func (s *Snapshot) Save(path string, snapshot *model.Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "failed to create snapshot directory")
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create snapshot file")
	}
	defer f.Close()
	return s.Encode(f, snapshot)
}

func (s *Snapshot) Load(path string) (*model.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, flowerr.ErrInvalidInput.Msg("failed to open snapshot: %s", err)
	}
	defer f.Close()
	return s.Decode(f)
}
