package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	t.Parallel()

	require.Equal(t, "react-20-whats-new", Slugify("React 20: What's New?"))
	require.Equal(t, "untitled", Slugify("???"))

	long := strings.Repeat("word-", 60)
	require.LessOrEqual(t, len(Slugify(long)), slugMaxLen)
}

func TestResolveNoCollision(t *testing.T) {
	t.Parallel()

	resolver := NewSlugResolver(newMemBlogStore(), &fakeIDs{})

	slug, err := resolver.Resolve(context.Background(), "react-20")
	require.NoError(t, err)
	require.Equal(t, "react-20", slug)

	// Idempotent while the slug stays free.
	again, err := resolver.Resolve(context.Background(), "react-20")
	require.NoError(t, err)
	require.Equal(t, "react-20", again)
}

func TestResolveAppendsSuffixOnCollision(t *testing.T) {
	t.Parallel()

	store := newMemBlogStore()
	require.NoError(t, store.Create(context.Background(), &Blog{ID: "blog-1", Slug: "react-20"}))

	resolver := NewSlugResolver(store, &fakeIDs{})
	slug, err := resolver.Resolve(context.Background(), "react-20")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(slug, "react-20-"))
	require.NotEqual(t, "react-20", slug)
}

type alwaysCollidingStore struct {
	*memBlogStore
}

func (s alwaysCollidingStore) FindBySlug(context.Context, string) (*Blog, error) {
	return &Blog{ID: "occupied"}, nil
}

func TestResolveExhaustsAttempts(t *testing.T) {
	t.Parallel()

	resolver := NewSlugResolver(alwaysCollidingStore{newMemBlogStore()}, &fakeIDs{})
	_, err := resolver.Resolve(context.Background(), "react-20")
	require.ErrorIs(t, err, ErrSlugExhausted)
}
