// Package datacamp is the application facade: it owns the session, the
// content graph and the remote client, and exposes the operations the CLI
// commands map onto.
package datacamp

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/dcget/dc-downloader/internal/api"
	"github.com/dcget/dc-downloader/internal/config"
	"github.com/dcget/dc-downloader/internal/download"
	"github.com/dcget/dc-downloader/internal/graph"
	"github.com/dcget/dc-downloader/internal/logger"
	"github.com/dcget/dc-downloader/internal/model"
	"github.com/dcget/dc-downloader/internal/resolve"
	"github.com/dcget/dc-downloader/internal/session"
)

// User-facing failures.
var (
	ErrBadToken    = errors.New("Incorrect input token!")
	ErrNotLoggedIn = errors.New("Not logged in! Run `dc-downloader set-token <token>` first!")
)

// Client is the remote API surface the service depends on.
type Client interface {
	download.ContentFetcher
	FetchLoginDetails(ctx context.Context) (*api.LoginDetails, error)
	FetchProfile(ctx context.Context, slug string) (*api.Profile, error)
	FetchCourse(ctx context.Context, id int) (*model.Course, error)
	FetchTrackCourseIDs(ctx context.Context, trackLink string) ([]int, error)
	FetchSkillTracks(ctx context.Context) ([]api.CatalogTrack, error)
	FetchCareerTracks(ctx context.Context) ([]api.CatalogTrack, error)
}

// Pipeliner persists resolved materials to disk.
type Pipeliner interface {
	DownloadCourse(ctx context.Context, course *model.Course, basePath, indexPrefix string, opts config.DownloadOptions) error
	DownloadTrack(ctx context.Context, track *model.Track, basePath string, opts config.DownloadOptions) error
}

// Service wires the session store, the content graph and the remote client.
type Service struct {
	graph *graph.Graph
	store *session.Store
	state *session.State
	log   *logger.Logger

	client Client

	// Injection points for tests.
	newClient   func(token string) Client
	newPipeline func(c Client, opts config.DownloadOptions) Pipeliner
}

// NewService restores the previous session, if any, and prepares a client
// when a token is already stored.
func NewService(store *session.Store, log *logger.Logger) *Service {
	s := &Service{
		graph: graph.New(),
		store: store,
		log:   log,
		newClient: func(token string) Client {
			return api.NewClient(api.NewHTTPTransport(token), log)
		},
	}
	s.newPipeline = func(c Client, opts config.DownloadOptions) Pipeliner {
		files := download.NewFileDownloader(opts.MaxRetries, opts.Overwrite, log)
		return download.NewPipeline(c, files, log)
	}
	s.state = store.Load()
	s.graph.Restore(s.state.Graph)
	if s.state.Token != "" {
		s.client = s.newClient(s.state.Token)
	}
	return s
}

// SetToken validates the token against the signed-in endpoint and starts a
// fresh session on success. Any previous session state is discarded first so
// a failed login never leaves stale credentials behind.
func (s *Service) SetToken(ctx context.Context, token string) (*api.LoginDetails, error) {
	s.graph.Clear()
	s.state = &session.State{}
	s.client = nil
	if err := s.store.Reset(); err != nil {
		return nil, err
	}

	client := s.newClient(token)
	details, err := client.FetchLoginDetails(ctx)
	if err != nil {
		if errors.Is(err, api.ErrAuthentication) {
			return nil, ErrBadToken
		}
		return nil, err
	}

	s.client = client
	s.state = &session.State{
		Token:           token,
		LoggedIn:        true,
		HasSubscription: details.HasSubscription(),
		Slug:            details.Slug,
	}
	if err := s.save(); err != nil {
		return nil, err
	}
	return details, nil
}

// LoggedIn reports whether a validated token is stored.
func (s *Service) LoggedIn() bool {
	return s.state.LoggedIn && s.client != nil
}

// HasSubscription reports the subscription status recorded at login.
func (s *Service) HasSubscription() bool {
	return s.state.HasSubscription
}

func (s *Service) requireAuth() error {
	if !s.LoggedIn() {
		return ErrNotLoggedIn
	}
	return nil
}

func (s *Service) save() error {
	s.state.Graph = s.graph.Snapshot()
	return s.store.Save(s.state)
}

// fetchCourses resolves each id against the graph first and the remote
// second. Unresolvable ids are recorded and skipped.
func (s *Service) fetchCourses(ctx context.Context, ids []int) ([]*model.Course, error) {
	courses := make([]*model.Course, 0, len(ids))
	for _, id := range ids {
		if s.graph.IsNotFound(id) {
			continue
		}
		if course := s.graph.Course(id); course != nil {
			courses = append(courses, course)
			continue
		}
		course, err := s.client.FetchCourse(ctx, id)
		if err != nil {
			if api.IsNotFound(err) {
				s.graph.MarkNotFound(id)
				s.log.Warn("Course " + strconv.Itoa(id) + " is not found. Ignoring it.")
				continue
			}
			return nil, err
		}
		s.graph.PutCourse(course)
		courses = append(courses, course)
	}
	return courses, nil
}

// assignOrders gives the listed courses fresh 1-based order numbers and
// clears the order of every cached course outside the listing.
func (s *Service) assignOrders(listed []*model.Course) {
	seen := make(map[int]struct{}, len(listed))
	for i, course := range listed {
		course.Order = i + 1
		seen[course.ID] = struct{}{}
	}
	for _, course := range s.graph.Courses() {
		if _, ok := seen[course.ID]; !ok {
			course.Order = 0
		}
	}
}

// CompletedCourses lists the user's completed courses, newest listing order
// first, and caches them for later identifier resolution.
func (s *Service) CompletedCourses(ctx context.Context) ([]*model.Course, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	profile, err := s.client.FetchProfile(ctx, s.state.Slug)
	if err != nil {
		return nil, err
	}
	ids := make([]int, 0, len(profile.CompletedCourses))
	for _, c := range profile.CompletedCourses {
		ids = append(ids, c.ID)
	}
	courses, err := s.fetchCourses(ctx, ids)
	if err != nil {
		return nil, err
	}
	s.assignOrders(courses)
	if err := s.save(); err != nil {
		return nil, err
	}
	return courses, nil
}

// EnrolledCourses lists the user's ongoing courses and caches them with
// fresh order numbers.
func (s *Service) EnrolledCourses(ctx context.Context) ([]*model.Course, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	profile, err := s.client.FetchProfile(ctx, s.state.Slug)
	if err != nil {
		return nil, err
	}
	ids := make([]int, 0, len(profile.EnrolledCourses))
	for _, c := range profile.EnrolledCourses {
		ids = append(ids, c.ID)
	}
	courses, err := s.fetchCourses(ctx, ids)
	if err != nil {
		return nil, err
	}
	s.assignOrders(courses)
	if err := s.save(); err != nil {
		return nil, err
	}
	return courses, nil
}

// CompletedTracks lists the user's completed tracks as t1..tn, resolves
// their member courses and caches everything. Course order numbers run
// sequentially across all listed tracks.
func (s *Service) CompletedTracks(ctx context.Context) ([]*model.Track, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	profile, err := s.client.FetchProfile(ctx, s.state.Slug)
	if err != nil {
		return nil, err
	}

	var listed []*model.Course
	tracks := make([]*model.Track, 0, len(profile.CompletedTracks))
	for i, entry := range profile.CompletedTracks {
		ids, err := s.client.FetchTrackCourseIDs(ctx, entry.URL)
		if err != nil {
			return nil, err
		}
		courses, err := s.fetchCourses(ctx, ids)
		if err != nil {
			return nil, err
		}
		track := &model.Track{
			ID:      "t" + strconv.Itoa(i+1),
			Title:   entry.Title,
			Link:    entry.URL,
			Courses: courses,
		}
		s.graph.PutTrack(track)
		tracks = append(tracks, track)
		listed = append(listed, courses...)
	}
	s.assignOrders(listed)
	if err := s.save(); err != nil {
		return nil, err
	}
	return tracks, nil
}

// SkillTracks lists the skill-track catalog, optionally filtered.
func (s *Service) SkillTracks(ctx context.Context, filter string) ([]api.CatalogTrack, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	tracks, err := s.client.FetchSkillTracks(ctx)
	if err != nil {
		return nil, err
	}
	return api.FilterCatalogTracks(tracks, filter), nil
}

// CareerTracks lists the career-track catalog, optionally filtered.
func (s *Service) CareerTracks(ctx context.Context, filter string) ([]api.CatalogTrack, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	tracks, err := s.client.FetchCareerTracks(ctx)
	if err != nil {
		return nil, err
	}
	return api.FilterCatalogTracks(tracks, filter), nil
}

// DownloadSkillTrack downloads every course of a catalog track by its
// catalog id, searching skill tracks first and career tracks second.
func (s *Service) DownloadSkillTrack(ctx context.Context, id int, path string, opts config.DownloadOptions) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	opts.Clamp()
	entry, err := s.findCatalogTrack(ctx, id)
	if err != nil {
		return err
	}
	courses, err := s.fetchCourses(ctx, entry.CourseIDs)
	if err != nil {
		return err
	}
	track := &model.Track{
		ID:      "t" + strconv.Itoa(entry.ID),
		Title:   entry.Title,
		Courses: courses,
	}
	if err := s.save(); err != nil {
		return err
	}
	return s.newPipeline(s.client, opts).DownloadTrack(ctx, track, path, opts)
}

func (s *Service) findCatalogTrack(ctx context.Context, id int) (*api.CatalogTrack, error) {
	skills, err := s.client.FetchSkillTracks(ctx)
	if err != nil {
		return nil, err
	}
	if entry := api.FindCatalogTrack(skills, id); entry != nil {
		return entry, nil
	}
	careers, err := s.client.FetchCareerTracks(ctx)
	if err != nil {
		return nil, err
	}
	if entry := api.FindCatalogTrack(careers, id); entry != nil {
		return entry, nil
	}
	return nil, api.NotFoundTrackError(id)
}

// Download resolves the identifier tokens and persists each resulting
// material under path. A failing material is logged and skipped so one
// broken course cannot abort the rest of the selection.
func (s *Service) Download(ctx context.Context, tokens []string, path string, opts config.DownloadOptions) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	opts.Clamp()

	resolver := resolve.New(s.graph, s.client, s.log)
	materials, err := resolver.Resolve(ctx, tokens)
	if err != nil {
		return err
	}
	if err := s.save(); err != nil {
		return err
	}

	pipeline := s.newPipeline(s.client, opts)
	failed := 0
	for i, material := range materials {
		s.log.Info(fmt.Sprintf("[%d/%d] Downloading %s", i+1, len(materials), material.MaterialTitle()),
			"id", material.MaterialID())
		var err error
		switch m := material.(type) {
		case *model.Course:
			err = pipeline.DownloadCourse(ctx, m, path, "", opts)
		case *model.Track:
			err = pipeline.DownloadTrack(ctx, m, path, opts)
		default:
			err = fmt.Errorf("unsupported material %T", material)
		}
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			failed++
			s.log.Error("download failed",
				"id", material.MaterialID(), "title", material.MaterialTitle(), "error", err)
		}
	}
	if failed == len(materials) && failed > 0 {
		return fmt.Errorf("all %d downloads failed", failed)
	}
	return nil
}

// Reset discards the session file and all cached content.
func (s *Service) Reset() error {
	s.graph.Clear()
	s.state = &session.State{}
	s.client = nil
	return s.store.Reset()
}
