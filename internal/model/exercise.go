package model

import "strings"

// ExerciseType classifies an exercise variant as reported by the platform.
type ExerciseType string

const (
	// NormalExercise is a coding task with an assignment and instructions.
	NormalExercise ExerciseType = "NormalExercise"

	// MultipleChoiceExercise is a quiz-style task.
	MultipleChoiceExercise ExerciseType = "MultipleChoiceExercise"

	// VideoExercise is a lecture video slot within a chapter.
	VideoExercise ExerciseType = "VideoExercise"
)

// String returns the string representation of ExerciseType.
func (et ExerciseType) String() string {
	return string(et)
}

// IsVideo reports whether the exercise is a lecture video.
func (et ExerciseType) IsVideo() bool {
	return et == VideoExercise
}

// IsPractice reports whether the exercise is a practice (non-video) task.
func (et ExerciseType) IsPractice() bool {
	return et == NormalExercise || et == MultipleChoiceExercise
}

// Exercise is an atomic learning task. IDs are unique within a chapter's
// exercise sequence but not globally. Video exercises carry a ProjectorKey
// referencing the video entity; practice exercises may list child
// subexercise ids that are fetched and persisted recursively.
//
// LastAttempt is the user's previously submitted solution code, attached
// out-of-band from the chapter progress lookup.
type Exercise struct {
	ID             int          `json:"id"`
	Type           ExerciseType `json:"type"`
	Title          string       `json:"title,omitempty"`
	Assignment     string       `json:"assignment,omitempty"`
	Instruction    string       `json:"instructions,omitempty"`
	Hint           string       `json:"hint,omitempty"`
	Language       string       `json:"language,omitempty"`
	ProjectorKey   string       `json:"projector_key,omitempty"`
	SubexerciseIDs []int        `json:"subexercises,omitempty"`

	LastAttempt string `json:"-"`
}

// IsVideo reports whether this exercise is a lecture video.
func (e *Exercise) IsVideo() bool {
	return e.Type.IsVideo()
}

// CodeExtension returns the solution-file extension for the exercise's
// language, or "" when the exercise has no code representation.
func (e *Exercise) CodeExtension() string {
	switch strings.ToLower(e.Language) {
	case "python":
		return ".py"
	case "r":
		return ".R"
	case "sql":
		return ".sql"
	default:
		return ""
	}
}

// Markdown renders the exercise text content persisted to disk.
func (e *Exercise) Markdown() string {
	var b strings.Builder
	if e.Title != "" {
		b.WriteString("## ")
		b.WriteString(e.Title)
		b.WriteString("\n\n")
	}
	if e.Assignment != "" {
		b.WriteString(e.Assignment)
		b.WriteString("\n\n")
	}
	if e.Instruction != "" {
		b.WriteString("### Instructions\n\n")
		b.WriteString(e.Instruction)
		b.WriteString("\n\n")
	}
	if e.Hint != "" {
		b.WriteString("### Hint\n\n")
		b.WriteString(e.Hint)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}
