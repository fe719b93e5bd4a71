package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exposureserver/internal/config"
	"exposureserver/internal/logger"
)

func newTestBuffer(t *testing.T, limit int) *BufferService {
	t.Helper()
	cfg := &config.Config{
		ImageDirectory:       filepath.Join(t.TempDir(), "annotated"),
		ArchiveBufferLimit:   limit,
		ArchiveFlushInterval: 1,
	}
	return NewBufferService(cfg, logger.Discard())
}

func TestBufferService_FlushWritesFiles(t *testing.T) {
	s := newTestBuffer(t, 5)

	require.True(t, s.AddImage([]byte("png-a"), "session-a", "ND8"))
	require.True(t, s.AddImage([]byte("png-b"), "session-b", "Ingen/None"))
	assert.Equal(t, 2, s.Pending())

	assert.Equal(t, 2, s.FlushImages())
	assert.Zero(t, s.Pending())

	list, err := s.List(1, 10)
	require.NoError(t, err)
	require.Equal(t, 2, list.Length)

	filters := map[string]string{}
	for _, info := range list.Images {
		filters[info.SessionID] = info.NDFilter
		assert.Equal(t, int64(5), info.Size)
	}
	assert.Equal(t, map[string]string{"session-a": "nd8", "session-b": "none"}, filters)
}

func TestBufferService_PerSessionLimit(t *testing.T) {
	s := newTestBuffer(t, 2)

	assert.True(t, s.AddImage([]byte("1"), "s", "ND4"))
	assert.True(t, s.AddImage([]byte("2"), "s", "ND4"))
	assert.False(t, s.AddImage([]byte("3"), "s", "ND4"))
	assert.True(t, s.AddImage([]byte("4"), "other", "ND4"))
	assert.Equal(t, 3, s.Pending())

	s.FlushImages()
	assert.True(t, s.AddImage([]byte("5"), "s", "ND4"), "counters reset after flush")
}

func TestBufferService_Path(t *testing.T) {
	s := newTestBuffer(t, 5)
	s.AddImage([]byte("png"), "abc", "ND16")
	s.FlushImages()

	list, err := s.List(1, 10)
	require.NoError(t, err)
	require.Len(t, list.Images, 1)

	path, err := s.Path(list.Images[0].Name)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))

	for _, name := range []string{"", "../secret.png", "missing.png", "notes.txt"} {
		_, err := s.Path(name)
		assert.ErrorIs(t, err, ErrNotFound, "name %q", name)
	}
}

func TestBufferService_ListPagination(t *testing.T) {
	s := newTestBuffer(t, 10)
	for _, session := range []string{"a", "b", "c", "d", "e"} {
		s.AddImage([]byte("x"), session, "ND4")
	}
	s.FlushImages()

	list, err := s.List(2, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, list.Length)
	assert.Equal(t, 3, list.TotalPages)
	assert.Equal(t, 2, list.CurrentPage)
	assert.Len(t, list.Images, 2)

	list, err = s.List(9, 2)
	require.NoError(t, err)
	assert.Empty(t, list.Images)
}

func TestBufferService_ListMissingDirectory(t *testing.T) {
	s := newTestBuffer(t, 5)
	list, err := s.List(1, 10)
	require.NoError(t, err)
	assert.Zero(t, list.Length)
}

func TestBufferService_Clear(t *testing.T) {
	s := newTestBuffer(t, 5)
	s.AddImage([]byte("x"), "a", "ND4")
	s.FlushImages()
	s.AddImage([]byte("y"), "b", "ND4")

	require.NoError(t, s.Clear())
	assert.Zero(t, s.Pending())

	list, err := s.List(1, 10)
	require.NoError(t, err)
	assert.Zero(t, list.Length)
}

func TestBufferService_RunFlushesOnShutdown(t *testing.T) {
	s := newTestBuffer(t, 5)
	s.AddImage([]byte("x"), "a", "ND4")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Zero(t, s.Pending())
}

func TestParseArchiveName(t *testing.T) {
	ts, session, nd, err := ParseArchiveName("2026-03-01_14-05_09.123_0f8c-11aa_nd32.png")
	require.NoError(t, err)
	assert.Equal(t, "0f8c-11aa", session)
	assert.Equal(t, "nd32", nd)
	assert.Equal(t, 14, ts.Hour())
	assert.Equal(t, 9, ts.Second())

	_, _, _, err = ParseArchiveName("random.png")
	assert.Error(t, err)
}
