package order

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memCounter is an in-memory CounterStore used to test id generation
// without a database.
type memCounter struct {
	base    int64
	nextErr error
}

func (c *memCounter) Next(ctx context.Context) (int64, error) {
	if c.nextErr != nil {
		return 0, c.nextErr
	}
	c.base++
	return c.base, nil
}

func (c *memCounter) Reset(ctx context.Context) error {
	c.base = 0
	return nil
}

var idFormatRE = regexp.MustCompile(`^\d+_\d{2}$`)

func TestIDGen_Format(t *testing.T) {
	gen := NewIDGen(&memCounter{})

	id, err := gen.NextID(context.Background())
	require.NoError(t, err)
	assert.Regexp(t, idFormatRE, id)
}

func TestIDGen_Unique(t *testing.T) {
	gen := NewIDGen(&memCounter{})
	seen := make(map[string]bool)

	for i := 0; i < 1000; i++ {
		id, err := gen.NextID(context.Background())
		require.NoError(t, err)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, 1000)
}

func TestIDGen_StoreFailure(t *testing.T) {
	gen := NewIDGen(&memCounter{nextErr: errors.New("connection reset")})

	id, err := gen.NextID(context.Background())
	assert.Error(t, err)
	assert.Empty(t, id)
}

func TestIDGen_Reset(t *testing.T) {
	store := &memCounter{}
	gen := NewIDGen(store)

	for i := 0; i < 5; i++ {
		_, err := gen.NextID(context.Background())
		require.NoError(t, err)
	}
	require.NoError(t, gen.Reset(context.Background()))
	assert.Equal(t, int64(0), store.base)
}
