package repo

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v3"

	"exusiai.dev/stageflow/internal/model"
	"exusiai.dev/stageflow/internal/pkg/flowerr"
)

func TestSnapshotSaveLoad(t *testing.T) {
	ts := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	snapshot := &model.Snapshot{
		RunID:     "run",
		CreatedAt: ts,
		Version:   "dev",
		Options:   model.DefaultPipelineOptions(),
		Log: model.NewEventLog("log", []*model.Event{{
			CaseID:               "1",
			Activity:             "A",
			Timestamp:            ts,
			NormCase:             0.25,
			Stage:                1,
			Community:            null.IntFrom(0),
			CommunityRankOverall: null.IntFrom(2),
			MultiCommunity:       "2",
		}}),
	}

	path := filepath.Join(t.TempDir(), "nested", "snapshot.msgpack")
	s := NewSnapshot()
	require.NoError(t, s.Save(path, snapshot))

	loaded, err := s.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "run", loaded.RunID)
	assert.True(t, ts.Equal(loaded.CreatedAt))
	assert.Equal(t, snapshot.Options, loaded.Options)

	require.Equal(t, 1, loaded.Log.Len())
	ev := loaded.Log.Events[0]
	assert.Equal(t, "A", ev.Activity)
	assert.True(t, ts.Equal(ev.Timestamp))
	assert.Equal(t, 0.25, ev.NormCase)
	assert.Equal(t, null.IntFrom(0), ev.Community)
	assert.Equal(t, null.IntFrom(2), ev.CommunityRankOverall)
	assert.False(t, ev.CommunityRankWithin.Valid)
	assert.Equal(t, "2", ev.MultiCommunity)
}

func TestSnapshotDecodeInvalid(t *testing.T) {
	s := NewSnapshot()

	_, err := s.Decode(bytes.NewReader([]byte{0xc1}))
	assert.ErrorIs(t, err, flowerr.ErrInvalidInput)

	var buf bytes.Buffer
	require.NoError(t, s.Encode(&buf, &model.Snapshot{RunID: "empty"}))
	_, err = s.Decode(&buf)
	assert.ErrorIs(t, err, flowerr.ErrInvalidInput)

	_, err = s.Load(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, flowerr.ErrInvalidInput)
}
