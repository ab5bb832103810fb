package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExerciseTypeClassification(t *testing.T) {
	assert.True(t, VideoExercise.IsVideo())
	assert.False(t, VideoExercise.IsPractice())
	assert.True(t, NormalExercise.IsPractice())
	assert.True(t, MultipleChoiceExercise.IsPractice())
	assert.False(t, NormalExercise.IsVideo())
}

func TestCodeExtension(t *testing.T) {
	assert.Equal(t, ".py", (&Exercise{Language: "python"}).CodeExtension())
	assert.Equal(t, ".R", (&Exercise{Language: "r"}).CodeExtension())
	assert.Equal(t, ".sql", (&Exercise{Language: "sql"}).CodeExtension())
	assert.Equal(t, "", (&Exercise{Language: "shell"}).CodeExtension())
	assert.Equal(t, "", (&Exercise{}).CodeExtension())
}

func TestExerciseMarkdown(t *testing.T) {
	ex := &Exercise{
		Title:       "Filtering rows",
		Assignment:  "Filter the DataFrame.",
		Instruction: "- Use df[df.a > 1]",
		Hint:        "Boolean indexing.",
	}
	md := ex.Markdown()
	assert.True(t, strings.HasPrefix(md, "## Filtering rows\n"))
	assert.Contains(t, md, "### Instructions")
	assert.Contains(t, md, "### Hint")

	// Empty sections are omitted entirely.
	md = (&Exercise{Title: "Quiz"}).Markdown()
	assert.NotContains(t, md, "Instructions")
	assert.NotContains(t, md, "Hint")
}

func TestFormatCourseMetadata(t *testing.T) {
	course := &Course{
		ID:    1234,
		Title: "Intro to Python",
		Slug:  "intro-to-python",
		Instructors: []Instructor{
			{FullName: "Hugo Bowne-Anderson"},
		},
		Datasets: []Dataset{{Name: "Cars", AssetURL: "https://assets.example.com/cars.csv"}},
		Chapters: []Chapter{
			{Number: 1, Title: "Python Basics", Exercises: 11, Videos: 3, XP: 800},
			{Number: 2, Title: "Functions", Exercises: 14, Videos: 4, XP: 1050},
		},
	}
	out := FormatCourseMetadata(course)
	assert.Contains(t, out, "Course: Intro to Python")
	assert.Contains(t, out, "ID: 1234")
	assert.Contains(t, out, "Total XP: 1850")
	assert.Contains(t, out, "  1. Python Basics (11 exercises, 3 videos, 800 XP)")
	assert.Contains(t, out, "  - Hugo Bowne-Anderson")
	assert.Contains(t, out, "  - Cars")

	// Missing optional fields fall back to a placeholder, never an error.
	assert.Contains(t, out, "Duration: N/A")
	assert.Contains(t, out, "Difficulty: N/A")
}

func TestCourseCounts(t *testing.T) {
	course := &Course{Chapters: []Chapter{
		{Exercises: 10, Videos: 3, XP: 700},
		{Exercises: 12, Videos: 4, XP: 900},
	}}
	assert.Equal(t, 15, course.PracticeCount())
	assert.Equal(t, 7, course.VideoCount())
	assert.Equal(t, 1600, course.TotalXP())
}

func TestSubtitleByLanguage(t *testing.T) {
	video := &Video{Subtitles: []Subtitle{
		{Language: "English", Link: "https://cdn.example.com/en.vtt"},
		{Language: "Spanish", Link: "https://cdn.example.com/es.vtt"},
	}}
	sub := video.SubtitleByLanguage("Spanish")
	assert.NotNil(t, sub)
	assert.Equal(t, "https://cdn.example.com/es.vtt", sub.Link)
	assert.Nil(t, video.SubtitleByLanguage("German"))
}
