// Package resolve turns user-supplied identifier tokens into concrete
// downloadable materials, backed by the content graph and the remote API.
package resolve

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/dcget/dc-downloader/internal/api"
	"github.com/dcget/dc-downloader/internal/graph"
	"github.com/dcget/dc-downloader/internal/logger"
	"github.com/dcget/dc-downloader/internal/model"
)

// Material is anything the pipeline can download: a course or a track.
type Material interface {
	MaterialID() string
	MaterialTitle() string
}

// CourseFetcher resolves a raw course id against the remote catalog.
type CourseFetcher interface {
	FetchCourse(ctx context.Context, id int) (*model.Course, error)
}

// Sentinel failures for empty selections.
var (
	ErrNoCourses   = errors.New("No courses to download! Maybe run `dc-downloader courses` first!")
	ErrNoTracks    = errors.New("No tracks to download! Maybe run `dc-downloader tracks` first!")
	ErrNoMaterials = errors.New("No courses/tracks to download!")
)

// Resolver maps identifier tokens to materials.
type Resolver struct {
	graph   *graph.Graph
	fetcher CourseFetcher
	log     *logger.Logger
}

// New creates a resolver over the given graph and fetcher.
func New(g *graph.Graph, fetcher CourseFetcher, log *logger.Logger) *Resolver {
	return &Resolver{graph: g, fetcher: fetcher, log: log}
}

// Resolve expands tokens into materials. "all" selects every cached
// course and "all-t" every cached track, each ignoring the remaining
// tokens. A token containing "t" is a track tag served from the cache
// only. A numeric token is tried as a listing order number first and as
// a raw course id second. Unresolvable or transiently failing tokens are
// skipped with a warning; only authentication failure and cancellation
// abort resolution.
func (r *Resolver) Resolve(ctx context.Context, tokens []string) ([]Material, error) {
	for _, token := range tokens {
		if token == "all-t" {
			return r.allTracks()
		}
	}
	for _, token := range tokens {
		if token == "all" {
			return r.allCourses()
		}
	}

	var materials []Material
	for _, token := range tokens {
		if strings.Contains(token, "t") {
			track := r.graph.Track(token)
			if track == nil {
				r.log.Warn("Track " + token + " is not fetched. Ignoring it.")
				continue
			}
			materials = append(materials, track)
			continue
		}

		id, err := strconv.Atoi(token)
		if err != nil {
			r.log.Warn("Course " + token + " is not found. Ignoring it.")
			continue
		}
		course, err := r.resolveCourse(ctx, id)
		if err != nil {
			if errors.Is(err, api.ErrAuthentication) || ctx.Err() != nil {
				return nil, err
			}
			r.log.Warn("Course "+token+" could not be fetched. Ignoring it.", "error", err)
			continue
		}
		if course == nil {
			r.log.Warn("Course " + token + " is not found. Ignoring it.")
			continue
		}
		materials = append(materials, course)
	}

	if len(materials) == 0 {
		return nil, ErrNoMaterials
	}
	return materials, nil
}

// resolveCourse tries the number as a listing position, then as a raw
// course id. A nil course with a nil error means the id is unresolvable.
// Fetch errors other than NotFound are returned for the caller to
// classify; the id is not recorded as unresolvable for those.
func (r *Resolver) resolveCourse(ctx context.Context, id int) (*model.Course, error) {
	if course := r.graph.CourseByOrder(id); course != nil {
		return course, nil
	}
	if r.graph.IsNotFound(id) {
		return nil, nil
	}
	if course := r.graph.Course(id); course != nil {
		return course, nil
	}

	course, err := r.fetcher.FetchCourse(ctx, id)
	if err != nil {
		if api.IsNotFound(err) {
			r.graph.MarkNotFound(id)
			return nil, nil
		}
		return nil, err
	}
	r.graph.PutCourse(course)
	return course, nil
}

func (r *Resolver) allCourses() ([]Material, error) {
	courses := r.graph.Courses()
	if len(courses) == 0 {
		return nil, ErrNoCourses
	}
	materials := make([]Material, 0, len(courses))
	for _, c := range courses {
		materials = append(materials, c)
	}
	return materials, nil
}

func (r *Resolver) allTracks() ([]Material, error) {
	tracks := r.graph.Tracks()
	if len(tracks) == 0 {
		return nil, ErrNoTracks
	}
	materials := make([]Material, 0, len(tracks))
	for _, t := range tracks {
		materials = append(materials, t)
	}
	return materials, nil
}
