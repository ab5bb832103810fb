package api

import (
	"context"
	"fmt"
	"testing"

	"github.com/dcget/dc-downloader/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func courseURL(id int) string { return fmt.Sprintf(CourseDetailsURL, id) }

func TestFetchCourse(t *testing.T) {
	transport := newFakeTransport()
	transport.responses[courseURL(100)] = `{
		"id": 100,
		"title": "Intro to Python",
		"slug": "intro-to-python",
		"time_needed": "4 hours",
		"difficulty_level": 1,
		"programming_language": "python",
		"chapters": [
			{"id": 10, "number": 1, "title": "Basics", "xp": 700, "nb_exercises": 10, "number_of_videos": 3},
			{"id": 11, "number": 2, "title": "Lists", "xp": 800, "nb_exercises": 12, "number_of_videos": 4}
		]
	}`

	course, err := newTestClient(transport).FetchCourse(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, 100, course.ID)
	assert.Equal(t, "Intro to Python", course.Title)
	assert.Equal(t, "4 hours", course.TimeNeeded)
	assert.Equal(t, "1", course.Difficulty)
	require.Len(t, course.Chapters, 2)
	assert.Equal(t, 1, course.Chapters[0].Number)
	assert.Equal(t, 2, course.Chapters[1].Number)
}

func TestFetchCoursePreWrapped(t *testing.T) {
	transport := newFakeTransport()
	transport.responses[courseURL(7)] = `<html><pre>{"id": 7, "title": "Wrapped"}</pre></html>`

	course, err := newTestClient(transport).FetchCourse(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "Wrapped", course.Title)
}

func TestFetchCourseNotFound(t *testing.T) {
	transport := newFakeTransport()
	transport.responses[courseURL(999)] = `{"error": "Course not found"}`

	_, err := newTestClient(transport).FetchCourse(context.Background(), 999)
	assert.True(t, IsNotFound(err))
}

func TestFetchCourseMissingTitle(t *testing.T) {
	transport := newFakeTransport()
	transport.responses[courseURL(5)] = `{"id": 5}`

	_, err := newTestClient(transport).FetchCourse(context.Background(), 5)
	assert.True(t, IsMalformed(err))
}

func TestTimeNeededNormalization(t *testing.T) {
	hours := 3.5
	minutes := 150.0
	direct := "2 hours"

	assert.Equal(t, "2 hours", normalizeTimeNeeded(&coursePayload{TimeNeeded: &direct, TimeNeededInHours: &hours}))
	assert.Equal(t, "3.5 hours", normalizeTimeNeeded(&coursePayload{TimeNeededInHours: &hours}))
	assert.Equal(t, "2.5 hours", normalizeTimeNeeded(&coursePayload{DurationMinutes: &minutes}))
	// No synthetic default when every duration field is absent.
	assert.Equal(t, "", normalizeTimeNeeded(&coursePayload{}))
}

func TestNormalizeChaptersRenumbers(t *testing.T) {
	two, five := 2, 5
	// Remote numbers not starting at 1: renumbered by position.
	chapters := normalizeChapters([]chapterPayload{{ID: 1, Number: &two}, {ID: 2, Number: &five}})
	assert.Equal(t, 1, chapters[0].Number)
	assert.Equal(t, 2, chapters[1].Number)

	// Missing numbers: renumbered by position.
	chapters = normalizeChapters([]chapterPayload{{ID: 1}, {ID: 2}, {ID: 3}})
	for i, ch := range chapters {
		assert.Equal(t, i+1, ch.Number)
	}
}

func TestFetchExercise(t *testing.T) {
	transport := newFakeTransport()
	transport.responses[fmt.Sprintf(ExerciseDetailsURL, 42)] = `{
		"id": 42,
		"type": "NormalExercise",
		"title": "Slicing",
		"language": "python",
		"subexercises": [43, 44]
	}`

	ex, err := newTestClient(transport).FetchExercise(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, model.NormalExercise, ex.Type)
	assert.Equal(t, []int{43, 44}, ex.SubexerciseIDs)
	assert.False(t, ex.IsVideo())
}

func TestFetchExerciseMissingType(t *testing.T) {
	transport := newFakeTransport()
	transport.responses[fmt.Sprintf(ExerciseDetailsURL, 1)] = `{"id": 1}`

	_, err := newTestClient(transport).FetchExercise(context.Background(), 1)
	assert.True(t, IsMalformed(err))
}

func TestFetchVideo(t *testing.T) {
	transport := newFakeTransport()
	transport.responses[fmt.Sprintf(VideoDetailsURL, "abc123")] = `{
		"id": "abc123",
		"video_mp4_link": "https://cdn.example.com/v.mp4",
		"subtitles": [{"language": "English", "link": "https://cdn.example.com/en.vtt"}]
	}`

	video, err := newTestClient(transport).FetchVideo(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/v.mp4", video.MP4Link)
	require.Len(t, video.Subtitles, 1)

	_, err = newTestClient(transport).FetchVideo(context.Background(), "")
	assert.True(t, IsMalformed(err))
}

func TestFetchProgress(t *testing.T) {
	transport := newFakeTransport()
	url := fmt.Sprintf(ProgressURL, 100, 10)
	transport.responses[url] = `[
		{"exercise_id": 1, "last_attempt": "print(1)"},
		{"exercise_id": 2, "last_attempt": null},
		{"exercise_id": 3, "last_attempt": "print(3)"}
	]`

	client := newTestClient(transport)
	ids, err := client.FetchExerciseIDs(context.Background(), 100, 10)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, ids)

	attempts, err := client.FetchLastAttempts(context.Background(), 100, 10)
	require.NoError(t, err)
	assert.Equal(t, map[int]string{1: "print(1)", 3: "print(3)"}, attempts)
}

func TestFetchProgressNotFound(t *testing.T) {
	transport := newFakeTransport()
	transport.responses[fmt.Sprintf(ProgressURL, 1, 2)] = `{"error": "no such chapter"}`

	_, err := newTestClient(transport).FetchExerciseIDs(context.Background(), 1, 2)
	assert.True(t, IsNotFound(err))
}

func TestFixTrackLink(t *testing.T) {
	assert.Equal(t, "https://x.example/t?embedded=true", FixTrackLink("https://x.example/t"))
	assert.Equal(t, "https://x.example/t?a=1&embedded=true", FixTrackLink("https://x.example/t?a=1"))
}

func TestExtractCourseIDs(t *testing.T) {
	page := `
		<article class="js-async course" data-id="735"></article>
		<article data-id="800" class="other js-async"></article>
		<article class="static" data-id="900"></article>
		<article class="js-async"></article>`
	assert.Equal(t, []int{735, 800}, extractCourseIDs(page))
}

func TestFilterCatalogTracks(t *testing.T) {
	tracks := []CatalogTrack{
		{ID: 1, UserTrack: UserTrack{Enrolled: true}},
		{ID: 2, UserTrack: UserTrack{Active: true, CompletionRate: 100}},
		{ID: 3, IsFoundational: true},
		{ID: 4, CertificationAvailable: true},
	}

	assert.Len(t, FilterCatalogTracks(tracks, "all"), 4)
	assert.Equal(t, 1, FilterCatalogTracks(tracks, "enrolled")[0].ID)
	assert.Equal(t, 2, FilterCatalogTracks(tracks, "active")[0].ID)
	assert.Equal(t, 2, FilterCatalogTracks(tracks, "completed")[0].ID)
	assert.Equal(t, 3, FilterCatalogTracks(tracks, "foundational")[0].ID)
	assert.Equal(t, 4, FilterCatalogTracks(tracks, "certification")[0].ID)
	assert.Empty(t, FilterCatalogTracks(tracks, "bogus"))
}

func TestLoginDetailsSubscription(t *testing.T) {
	yes := true
	d := &LoginDetails{HasActiveSubscription: &yes}
	assert.True(t, d.HasSubscription())

	d = &LoginDetails{ActiveProducts: []interface{}{map[string]interface{}{"id": 1}}}
	assert.True(t, d.HasSubscription())

	d = &LoginDetails{}
	assert.False(t, d.HasSubscription())
}

func TestFetchLoginDetailsInvalidToken(t *testing.T) {
	transport := newFakeTransport()
	transport.responses[LoginDetailsURL] = `{"error": "unauthorized"}`

	_, err := newTestClient(transport).FetchLoginDetails(context.Background())
	assert.ErrorIs(t, err, ErrAuthentication)
}
