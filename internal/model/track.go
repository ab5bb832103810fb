package model

// Track is a named learning path composed of an ordered sequence of courses.
// ID is the session-local tag shown in listings (e.g. "t3"); Link points at
// the track page the member courses are resolved from.
type Track struct {
	ID      string    `json:"id" yaml:"id"`
	Title   string    `json:"title" yaml:"title"`
	Link    string    `json:"link" yaml:"link"`
	Courses []*Course `json:"courses,omitempty" yaml:"courses,omitempty"`
}

// MaterialID returns the track tag.
func (t *Track) MaterialID() string { return t.ID }

// MaterialTitle returns the track title.
func (t *Track) MaterialTitle() string { return t.Title }
