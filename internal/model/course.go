package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Course is a single unit of learning content composed of chapters.
//
// ID is the platform-assigned identifier and is globally unique. Order is the
// 1-based position assigned during the most recent listing pass; it is not a
// stable identifier and is only meaningful for the session that produced it.
type Course struct {
	ID                  int          `json:"id" yaml:"id"`
	Title               string       `json:"title" yaml:"title"`
	Slug                string       `json:"slug,omitempty" yaml:"slug,omitempty"`
	Description         string       `json:"description,omitempty" yaml:"description,omitempty"`
	TimeNeeded          string       `json:"time_needed,omitempty" yaml:"time_needed,omitempty"`
	Difficulty          string       `json:"difficulty_level,omitempty" yaml:"difficulty,omitempty"`
	ProgrammingLanguage string       `json:"programming_language,omitempty" yaml:"programming_language,omitempty"`
	Instructors         []Instructor `json:"instructors,omitempty" yaml:"instructors,omitempty"`
	Datasets            []Dataset    `json:"datasets,omitempty" yaml:"datasets,omitempty"`
	Chapters            []Chapter    `json:"chapters,omitempty" yaml:"chapters,omitempty"`

	Order int `json:"-" yaml:"order,omitempty"`
}

// Instructor teaches a course.
type Instructor struct {
	FullName string `json:"full_name" yaml:"full_name"`
}

// Dataset is a downloadable data file attached to a course.
type Dataset struct {
	Name     string `json:"name" yaml:"name"`
	AssetURL string `json:"asset_url" yaml:"asset_url"`
}

// Chapter is a numbered section of a course. Number is assigned by the remote
// ordering and is strictly increasing within a course.
type Chapter struct {
	ID         int    `json:"id" yaml:"id"`
	Number     int    `json:"number" yaml:"number"`
	Title      string `json:"title,omitempty" yaml:"title,omitempty"`
	TitleMeta  string `json:"title_meta,omitempty" yaml:"title_meta,omitempty"`
	Slug       string `json:"slug,omitempty" yaml:"slug,omitempty"`
	SlidesLink string `json:"slides_link,omitempty" yaml:"slides_link,omitempty"`
	XP         int    `json:"xp,omitempty" yaml:"xp,omitempty"`
	Exercises  int    `json:"nb_exercises,omitempty" yaml:"nb_exercises,omitempty"`
	Videos     int    `json:"number_of_videos,omitempty" yaml:"number_of_videos,omitempty"`
}

// MaterialID returns the course identifier as a display string.
func (c *Course) MaterialID() string { return strconv.Itoa(c.ID) }

// MaterialTitle returns the course title.
func (c *Course) MaterialTitle() string { return c.Title }

// TotalXP sums the XP of all chapters.
func (c *Course) TotalXP() int {
	total := 0
	for _, ch := range c.Chapters {
		total += ch.XP
	}
	return total
}

// PracticeCount returns the number of non-video exercises across all chapters.
func (c *Course) PracticeCount() int {
	exercises, videos := 0, 0
	for _, ch := range c.Chapters {
		exercises += ch.Exercises
		videos += ch.Videos
	}
	return exercises - videos
}

// VideoCount returns the number of video exercises across all chapters.
func (c *Course) VideoCount() int {
	videos := 0
	for _, ch := range c.Chapters {
		videos += ch.Videos
	}
	return videos
}

// orNA substitutes a neutral placeholder for missing optional fields.
func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

// FormatCourseMetadata renders the human-readable course summary written as
// README.txt at the root of every course directory. Missing optional fields
// render as "N/A"; the summary never fails to render.
func FormatCourseMetadata(c *Course) string {
	lines := []string{
		"Course: " + orNA(c.Title),
		"ID: " + strconv.Itoa(c.ID),
		"Slug: " + orNA(c.Slug),
		"Duration: " + orNA(c.TimeNeeded),
		"Difficulty: " + orNA(c.Difficulty),
		"Language: " + orNA(c.ProgrammingLanguage),
		"Chapters: " + strconv.Itoa(len(c.Chapters)),
		"Total XP: " + strconv.Itoa(c.TotalXP()),
		"",
		"Instructors:",
	}
	for _, instructor := range c.Instructors {
		lines = append(lines, "  - "+orNA(instructor.FullName))
	}
	if len(c.Datasets) > 0 {
		lines = append(lines, "", "Datasets:")
		for _, dataset := range c.Datasets {
			lines = append(lines, "  - "+orNA(dataset.Name))
		}
	}
	lines = append(lines, "", "Chapters Overview:")
	for _, ch := range c.Chapters {
		lines = append(lines, fmt.Sprintf(
			"  %d. %s (%d exercises, %d videos, %d XP)",
			ch.Number, orNA(ch.Title), ch.Exercises, ch.Videos, ch.XP,
		))
	}
	return strings.Join(lines, "\n")
}
