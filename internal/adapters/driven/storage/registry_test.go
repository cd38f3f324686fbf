package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recap-cli/internal/adapters/driven/storage/gcs"
	"github.com/custodia-labs/recap-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/recap-cli/internal/core/domain"
)

func TestNewSaver(t *testing.T) {
	for _, target := range domain.AllSaveTargets() {
		t.Run(string(target), func(t *testing.T) {
			s, err := NewSaver(target)
			require.NoError(t, err)
			assert.Equal(t, string(target), s.Name())
		})
	}
}

func TestNewSaver_GCSAccessToken(t *testing.T) {
	t.Setenv(gcs.AccessTokenEnv, "ya29.token")

	s, err := NewSaver(domain.SaveTargetGCS)
	require.NoError(t, err)
	assert.IsType(t, &gcs.Saver{}, s)
}

func TestNewSaver_Unsupported(t *testing.T) {
	_, err := NewSaver("s3")
	assert.ErrorIs(t, err, domain.ErrUnsupportedSaveTarget)
}

func TestRegistry_ReusesSavers(t *testing.T) {
	r := NewRegistry()
	defer r.Close()

	first, err := r.Saver(domain.SaveTargetFile)
	require.NoError(t, err)
	second, err := r.Saver(domain.SaveTargetFile)
	require.NoError(t, err)

	assert.Same(t, first, second)
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	mem := memory.NewSaver()
	r.Register(domain.SaveTargetFile, mem)

	s, err := r.Saver(domain.SaveTargetFile)
	require.NoError(t, err)
	require.NoError(t, s.Save(context.Background(), "UC1", "x", "dest"))
	assert.Len(t, mem.Records("dest"), 1)
}

func TestRegistry_Unsupported(t *testing.T) {
	_, err := NewRegistry().Saver("ftp")
	assert.ErrorIs(t, err, domain.ErrUnsupportedSaveTarget)
}

type closingSaver struct {
	err    error
	closed bool
}

func (c *closingSaver) Save(context.Context, string, string, string) error { return nil }
func (c *closingSaver) Name() string                                       { return "closing" }
func (c *closingSaver) Close() error {
	c.closed = true
	return c.err
}

func TestRegistry_Close(t *testing.T) {
	r := NewRegistry()
	ok := &closingSaver{}
	bad := &closingSaver{err: errors.New("busy")}
	r.Register(domain.SaveTargetSQLite, ok)
	r.Register(domain.SaveTargetPostgres, bad)
	r.Register(domain.SaveTargetMemory, memory.NewSaver())

	err := r.Close()

	assert.ErrorContains(t, err, "close postgres saver: busy")
	assert.True(t, ok.closed)
	assert.True(t, bad.closed)
	assert.Empty(t, r.savers)
}
