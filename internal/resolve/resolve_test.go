package resolve

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dcget/dc-downloader/internal/api"
	"github.com/dcget/dc-downloader/internal/graph"
	"github.com/dcget/dc-downloader/internal/logger"
	"github.com/dcget/dc-downloader/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFetcher serves courses by id and counts fetches per id.
type fakeFetcher struct {
	courses map[int]*model.Course
	errs    map[int]error
	calls   map[int]int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		courses: make(map[int]*model.Course),
		errs:    make(map[int]error),
		calls:   make(map[int]int),
	}
}

func (f *fakeFetcher) FetchCourse(_ context.Context, id int) (*model.Course, error) {
	f.calls[id]++
	if err, ok := f.errs[id]; ok {
		return nil, err
	}
	if course, ok := f.courses[id]; ok {
		return course, nil
	}
	return nil, &api.NotFoundError{Kind: "course", ID: "x"}
}

func newResolver(g *graph.Graph, f *fakeFetcher) *Resolver {
	return New(g, f, logger.NewNop())
}

func TestResolveOrderBeforeRawID(t *testing.T) {
	// Course id 1 sits at order 2, while another course holds order 1.
	// The token "1" must select by order, not by raw id.
	g := graph.New()
	g.PutCourse(&model.Course{ID: 100, Title: "First", Order: 1})
	g.PutCourse(&model.Course{ID: 1, Title: "Second", Order: 2})

	materials, err := newResolver(g, newFakeFetcher()).Resolve(context.Background(), []string{"1"})
	require.NoError(t, err)
	require.Len(t, materials, 1)
	assert.Equal(t, "First", materials[0].MaterialTitle())
}

func TestResolveRawIDFallback(t *testing.T) {
	g := graph.New()
	fetcher := newFakeFetcher()
	fetcher.courses[735] = &model.Course{ID: 735, Title: "Fetched"}

	materials, err := newResolver(g, fetcher).Resolve(context.Background(), []string{"735"})
	require.NoError(t, err)
	require.Len(t, materials, 1)
	assert.Equal(t, "Fetched", materials[0].MaterialTitle())

	// The fetched course is cached.
	assert.NotNil(t, g.Course(735))
}

func TestResolveCachedCourseNotRefetched(t *testing.T) {
	g := graph.New()
	g.PutCourse(&model.Course{ID: 735, Title: "Cached"})
	fetcher := newFakeFetcher()

	_, err := newResolver(g, fetcher).Resolve(context.Background(), []string{"735"})
	require.NoError(t, err)
	assert.Zero(t, fetcher.calls[735])
}

func TestResolveNotFoundFetchedOnce(t *testing.T) {
	g := graph.New()
	g.PutCourse(&model.Course{ID: 5, Title: "Keep", Order: 1})
	fetcher := newFakeFetcher()

	// First pass fetches 999 once, records it unresolvable and keeps going.
	materials, err := newResolver(g, fetcher).Resolve(context.Background(), []string{"999", "1"})
	require.NoError(t, err)
	require.Len(t, materials, 1)
	assert.Equal(t, "Keep", materials[0].MaterialTitle())
	assert.Equal(t, 1, fetcher.calls[999])
	assert.True(t, g.IsNotFound(999))

	// Second pass skips the fetch entirely.
	_, err = newResolver(g, fetcher).Resolve(context.Background(), []string{"999", "1"})
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.calls[999])
}

func TestResolveTransientFailureSkipsToken(t *testing.T) {
	// A network error on one token must not drop the rest of the batch.
	g := graph.New()
	g.PutCourse(&model.Course{ID: 5, Title: "Keep", Order: 1})
	fetcher := newFakeFetcher()
	fetcher.errs[42] = errors.New("connection reset")

	materials, err := newResolver(g, fetcher).Resolve(context.Background(), []string{"42", "1"})
	require.NoError(t, err)
	require.Len(t, materials, 1)
	assert.Equal(t, "Keep", materials[0].MaterialTitle())

	// The failure was transient, so the id stays retryable.
	assert.False(t, g.IsNotFound(42))
}

func TestResolveOnlyTransientFailures(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.errs[42] = errors.New("connection reset")

	_, err := newResolver(graph.New(), fetcher).Resolve(context.Background(), []string{"42"})
	assert.ErrorIs(t, err, ErrNoMaterials)
}

func TestResolveAuthFailureAborts(t *testing.T) {
	g := graph.New()
	g.PutCourse(&model.Course{ID: 5, Title: "Keep", Order: 1})
	fetcher := newFakeFetcher()
	fetcher.errs[42] = fmt.Errorf("fetch: %w", api.ErrAuthentication)

	_, err := newResolver(g, fetcher).Resolve(context.Background(), []string{"42", "1"})
	assert.ErrorIs(t, err, api.ErrAuthentication)
}

func TestResolveTrackTags(t *testing.T) {
	g := graph.New()
	g.PutTrack(&model.Track{ID: "t1", Title: "Data Analyst"})

	materials, err := newResolver(g, newFakeFetcher()).Resolve(context.Background(), []string{"t1"})
	require.NoError(t, err)
	require.Len(t, materials, 1)
	assert.Equal(t, "t1", materials[0].MaterialID())
}

func TestResolveUnfetchedTrackIgnored(t *testing.T) {
	g := graph.New()
	g.PutTrack(&model.Track{ID: "t1", Title: "Data Analyst"})

	materials, err := newResolver(g, newFakeFetcher()).Resolve(context.Background(), []string{"t2", "t1"})
	require.NoError(t, err)
	require.Len(t, materials, 1)
	assert.Equal(t, "t1", materials[0].MaterialID())
}

func TestResolveAll(t *testing.T) {
	g := graph.New()
	g.PutCourse(&model.Course{ID: 1, Title: "A", Order: 1})
	g.PutCourse(&model.Course{ID: 2, Title: "B", Order: 2})

	materials, err := newResolver(g, newFakeFetcher()).Resolve(context.Background(), []string{"all"})
	require.NoError(t, err)
	assert.Len(t, materials, 2)
}

func TestResolveAllEmptyCache(t *testing.T) {
	_, err := newResolver(graph.New(), newFakeFetcher()).Resolve(context.Background(), []string{"all"})
	assert.ErrorIs(t, err, ErrNoCourses)
}

func TestResolveAllTracks(t *testing.T) {
	g := graph.New()
	g.PutTrack(&model.Track{ID: "t1", Title: "T"})
	g.PutCourse(&model.Course{ID: 1, Title: "A"})

	// "all-t" wins over every other token, including "all".
	materials, err := newResolver(g, newFakeFetcher()).Resolve(context.Background(), []string{"all", "all-t"})
	require.NoError(t, err)
	require.Len(t, materials, 1)
	assert.Equal(t, "t1", materials[0].MaterialID())
}

func TestResolveAllTracksEmptyCache(t *testing.T) {
	_, err := newResolver(graph.New(), newFakeFetcher()).Resolve(context.Background(), []string{"all-t"})
	assert.ErrorIs(t, err, ErrNoTracks)
}

func TestResolveNothingLeft(t *testing.T) {
	_, err := newResolver(graph.New(), newFakeFetcher()).Resolve(context.Background(), []string{"999"})
	assert.ErrorIs(t, err, ErrNoMaterials)
}
