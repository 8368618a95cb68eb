package project

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDirectorySkipsDeletedAndSorts(t *testing.T) {
	zeta := &Project{ID: uuid.New(), Name: "Zeta"}
	alpha := &Project{ID: uuid.New(), Name: "Alpha"}
	gone := &Project{ID: uuid.New(), Name: "Beta", IsDeleted: true}

	dir := NewDirectory([]*Project{zeta, nil, gone, alpha})

	require.Equal(t, 2, dir.Len())
	assert.Equal(t, []*Project{alpha, zeta}, dir.List())

	_, ok := dir.FindByID(gone.ID)
	assert.False(t, ok)
	_, ok = dir.FindByName("Beta")
	assert.False(t, ok)

	p, ok := dir.FindByName("Alpha")
	require.True(t, ok)
	assert.Equal(t, alpha.ID, p.ID)

	_, ok = dir.FindByName("alpha")
	assert.False(t, ok, "name lookup is case sensitive")
}

func TestNewDirectoryDuplicateNamesFirstWins(t *testing.T) {
	a := &Project{ID: uuid.MustParse("00000000-0000-0000-0000-000000000001"), Name: "Same"}
	b := &Project{ID: uuid.MustParse("00000000-0000-0000-0000-000000000002"), Name: "Same"}

	dir := NewDirectory([]*Project{b, a})

	p, ok := dir.FindByName("Same")
	require.True(t, ok)
	assert.Equal(t, a.ID, p.ID)
	_, ok = dir.FindByID(b.ID)
	assert.True(t, ok)
}

type countingSource struct {
	calls    int
	projects []*Project
	err      error
	during   func()
}

func (s *countingSource) Directory(ctx context.Context) (*Directory, error) {
	s.calls++
	if s.during != nil {
		s.during()
	}
	if s.err != nil {
		return nil, s.err
	}
	return NewDirectory(s.projects), nil
}

func TestCachedDirectory(t *testing.T) {
	ctx := context.Background()
	src := &countingSource{projects: []*Project{{ID: uuid.New(), Name: "Alpha"}}}
	cache := NewCachedDirectory(src)

	first, err := cache.Directory(ctx)
	require.NoError(t, err)
	second, err := cache.Directory(ctx)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, src.calls)

	cache.Invalidate()
	_, err = cache.Directory(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
}

func TestCachedDirectoryInvalidatedDuringLoad(t *testing.T) {
	ctx := context.Background()
	src := &countingSource{}
	cache := NewCachedDirectory(src)
	src.during = func() {
		src.during = nil
		cache.Invalidate()
	}

	_, err := cache.Directory(ctx)
	require.NoError(t, err)
	_, err = cache.Directory(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls, "a snapshot loaded across an invalidation is not kept")
}

func TestCachedDirectoryError(t *testing.T) {
	boom := errors.New("db down")
	cache := NewCachedDirectory(&countingSource{err: boom})

	_, err := cache.Directory(context.Background())
	assert.ErrorIs(t, err, boom)
}
