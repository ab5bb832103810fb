package api

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dcget/dc-downloader/internal/model"
)

// coursePayload is the raw course-details response. Pointer fields
// distinguish absent from zero during normalization.
type coursePayload struct {
	ID                  *int               `json:"id"`
	Title               *string            `json:"title"`
	Slug                string             `json:"slug"`
	Description         string             `json:"description"`
	TimeNeeded          *string            `json:"time_needed"`
	TimeNeededInHours   *float64           `json:"time_needed_in_hours"`
	DurationMinutes     *float64           `json:"duration_minutes"`
	Difficulty          interface{}        `json:"difficulty_level"`
	ProgrammingLanguage string             `json:"programming_language"`
	Instructors         []model.Instructor `json:"instructors"`
	Datasets            []model.Dataset    `json:"datasets"`
	Chapters            []chapterPayload   `json:"chapters"`
}

type chapterPayload struct {
	ID         int    `json:"id"`
	Number     *int   `json:"number"`
	Title      string `json:"title"`
	TitleMeta  string `json:"title_meta"`
	Slug       string `json:"slug"`
	SlidesLink string `json:"slides_link"`
	XP         int    `json:"xp"`
	Exercises  int    `json:"nb_exercises"`
	Videos     int    `json:"number_of_videos"`
}

// FetchCourse fetches and normalizes one course. An explicit error marker in
// the body is reported as NotFound; a missing id or title as Malformed. No
// partial entity is returned on failure.
func (c *Client) FetchCourse(ctx context.Context, id int) (*model.Course, error) {
	var payload coursePayload
	notFound := &NotFoundError{Kind: "course", ID: strconv.Itoa(id)}
	if err := c.getJSON(ctx, fmt.Sprintf(CourseDetailsURL, id), &payload, notFound); err != nil {
		return nil, err
	}
	if payload.ID == nil {
		return nil, &MalformedError{Kind: "course", Reason: "missing id"}
	}
	if payload.Title == nil || *payload.Title == "" {
		return nil, &MalformedError{Kind: "course", Reason: "missing title"}
	}

	course := &model.Course{
		ID:                  *payload.ID,
		Title:               *payload.Title,
		Slug:                payload.Slug,
		Description:         payload.Description,
		TimeNeeded:          normalizeTimeNeeded(&payload),
		Difficulty:          stringify(payload.Difficulty),
		ProgrammingLanguage: payload.ProgrammingLanguage,
		Instructors:         payload.Instructors,
		Datasets:            payload.Datasets,
		Chapters:            normalizeChapters(payload.Chapters),
	}
	return course, nil
}

// normalizeTimeNeeded derives the duration string: direct value first, then
// the hours field, then minutes divided by 60 rendered to one decimal. When
// none is present the field stays unset.
func normalizeTimeNeeded(p *coursePayload) string {
	switch {
	case p.TimeNeeded != nil && *p.TimeNeeded != "":
		return *p.TimeNeeded
	case p.TimeNeededInHours != nil:
		return trimFloat(*p.TimeNeededInHours) + " hours"
	case p.DurationMinutes != nil:
		return fmt.Sprintf("%.1f hours", *p.DurationMinutes/60)
	default:
		return ""
	}
}

// trimFloat renders a float without a trailing ".0" for whole values.
func trimFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	return s
}

// stringify renders an optional field that the platform returns as either a
// number or a string.
func stringify(v interface{}) string {
	if v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return trimFloat(t)
	default:
		return fmt.Sprint(t)
	}
}

// normalizeChapters carries remote chapter numbers through when they are
// strictly increasing from 1, and renumbers by position otherwise so path
// construction stays deterministic.
func normalizeChapters(payloads []chapterPayload) []model.Chapter {
	chapters := make([]model.Chapter, 0, len(payloads))
	valid := true
	prev := 0
	for _, p := range payloads {
		if p.Number == nil || *p.Number <= prev {
			valid = false
			break
		}
		prev = *p.Number
	}
	if valid && len(payloads) > 0 && *payloads[0].Number != 1 {
		valid = false
	}
	for i, p := range payloads {
		number := i + 1
		if valid {
			number = *p.Number
		}
		chapters = append(chapters, model.Chapter{
			ID:         p.ID,
			Number:     number,
			Title:      p.Title,
			TitleMeta:  p.TitleMeta,
			Slug:       p.Slug,
			SlidesLink: p.SlidesLink,
			XP:         p.XP,
			Exercises:  p.Exercises,
			Videos:     p.Videos,
		})
	}
	return chapters
}

// FetchExercise fetches one exercise by id.
func (c *Client) FetchExercise(ctx context.Context, id int) (*model.Exercise, error) {
	var exercise model.Exercise
	notFound := &NotFoundError{Kind: "exercise", ID: strconv.Itoa(id)}
	if err := c.getJSON(ctx, fmt.Sprintf(ExerciseDetailsURL, id), &exercise, notFound); err != nil {
		return nil, err
	}
	if exercise.ID == 0 {
		return nil, &MalformedError{Kind: "exercise", Reason: "missing id"}
	}
	if exercise.Type == "" {
		return nil, &MalformedError{Kind: "exercise", Reason: "missing type"}
	}
	return &exercise, nil
}

// FetchVideo fetches one video by its opaque hash.
func (c *Client) FetchVideo(ctx context.Context, hash string) (*model.Video, error) {
	if hash == "" {
		return nil, &MalformedError{Kind: "video", Reason: "missing projector key"}
	}
	var video model.Video
	notFound := &NotFoundError{Kind: "video", ID: hash}
	if err := c.getJSON(ctx, fmt.Sprintf(VideoDetailsURL, hash), &video, notFound); err != nil {
		return nil, err
	}
	return &video, nil
}

// progressEntry is one element of the chapter progress response.
type progressEntry struct {
	ExerciseID  int     `json:"exercise_id"`
	LastAttempt *string `json:"last_attempt"`
}

func (c *Client) fetchProgress(ctx context.Context, courseID, chapterID int) ([]progressEntry, error) {
	notFound := &NotFoundError{
		Kind: "chapter progress",
		ID:   fmt.Sprintf("%d/%d", courseID, chapterID),
	}
	var entries []progressEntry
	url := fmt.Sprintf(ProgressURL, courseID, chapterID)
	if err := c.getJSON(ctx, url, &entries, notFound); err != nil {
		return nil, err
	}
	return entries, nil
}

// FetchExerciseIDs returns the chapter's exercise ids in API order.
func (c *Client) FetchExerciseIDs(ctx context.Context, courseID, chapterID int) ([]int, error) {
	entries, err := c.fetchProgress(ctx, courseID, chapterID)
	if err != nil {
		return nil, err
	}
	ids := make([]int, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ExerciseID)
	}
	return ids, nil
}

// FetchLastAttempts returns the user's recorded solution code keyed by
// exercise id. Exercises without an attempt are absent from the map.
func (c *Client) FetchLastAttempts(ctx context.Context, courseID, chapterID int) (map[int]string, error) {
	entries, err := c.fetchProgress(ctx, courseID, chapterID)
	if err != nil {
		return nil, err
	}
	attempts := make(map[int]string, len(entries))
	for _, e := range entries {
		if e.LastAttempt != nil && *e.LastAttempt != "" {
			attempts[e.ExerciseID] = *e.LastAttempt
		}
	}
	return attempts, nil
}

// FixTrackLink marks a track page request as embedded so the platform
// serves the plain course listing.
func FixTrackLink(link string) string {
	if strings.Contains(link, "?") {
		return link + "&embedded=true"
	}
	return link + "?embedded=true"
}

// Course entries on a track page are article tags with an async class and a
// data-id attribute. Attribute order varies, so the tag is matched first and
// its attributes inspected separately.
var (
	articleTagPattern = regexp.MustCompile(`<article[^>]*>`)
	dataIDPattern     = regexp.MustCompile(`data-id="(\d+)"`)
)

func extractCourseIDs(page string) []int {
	var ids []int
	for _, tag := range articleTagPattern.FindAllString(page, -1) {
		if !strings.Contains(tag, "js-async") {
			continue
		}
		m := dataIDPattern.FindStringSubmatch(tag)
		if m == nil {
			continue
		}
		id, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// FetchTrackCourseIDs scans a track page for the ids of its member courses,
// in page order.
func (c *Client) FetchTrackCourseIDs(ctx context.Context, trackLink string) ([]int, error) {
	body, err := c.transport.Fetch(ctx, FixTrackLink(trackLink))
	if err != nil {
		return nil, err
	}
	return extractCourseIDs(string(body)), nil
}
