// Package graph holds the resolved content entities for the current process:
// courses, tracks and the set of identifiers known to be unresolvable.
package graph

import (
	"sort"
	"sync"

	"github.com/dcget/dc-downloader/internal/model"
)

// Graph is the in-memory content cache. All mutations are serialized behind
// a single lock so concurrent fetches can resolve safely.
type Graph struct {
	mu       sync.RWMutex
	courses  []*model.Course
	tracks   []*model.Track
	notFound map[int]struct{}
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{notFound: make(map[int]struct{})}
}

// Course returns the cached course with the given id, or nil.
func (g *Graph) Course(id int) *model.Course {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, c := range g.courses {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// CourseByOrder returns the course holding the given listing position, or
// nil. Order numbers are 1-based and only valid for the session that
// assigned them; courses fetched outside a listing pass carry order 0 and
// are never matched.
func (g *Graph) CourseByOrder(order int) *model.Course {
	if order < 1 {
		return nil
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, c := range g.courses {
		if c.Order == order {
			if _, bad := g.notFound[c.ID]; !bad {
				return c
			}
		}
	}
	return nil
}

// Track returns the cached track with the given tag, or nil.
func (g *Graph) Track(tag string) *model.Track {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, t := range g.tracks {
		if t.ID == tag {
			return t
		}
	}
	return nil
}

// Courses returns the cached courses in insertion order.
func (g *Graph) Courses() []*model.Course {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*model.Course, len(g.courses))
	copy(out, g.courses)
	return out
}

// Tracks returns the cached tracks in insertion order.
func (g *Graph) Tracks() []*model.Track {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*model.Track, len(g.tracks))
	copy(out, g.tracks)
	return out
}

// PutCourse inserts or replaces a course. The id is removed from the
// not-found set: an id can never be both resolved and unresolvable.
func (g *Graph) PutCourse(course *model.Course) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.notFound, course.ID)
	for i, c := range g.courses {
		if c.ID == course.ID {
			g.courses[i] = course
			return
		}
	}
	g.courses = append(g.courses, course)
}

// PutTrack inserts or replaces a track by tag.
func (g *Graph) PutTrack(track *model.Track) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i, t := range g.tracks {
		if t.ID == track.ID {
			g.tracks[i] = track
			return
		}
	}
	g.tracks = append(g.tracks, track)
}

// MarkNotFound records an unresolvable course id and evicts any resolved
// entity under the same id.
func (g *Graph) MarkNotFound(id int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.notFound[id] = struct{}{}
	for i, c := range g.courses {
		if c.ID == id {
			g.courses = append(g.courses[:i], g.courses[i+1:]...)
			break
		}
	}
}

// IsNotFound reports whether the id was recorded as unresolvable.
func (g *Graph) IsNotFound(id int) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.notFound[id]
	return ok
}

// Clear empties the graph.
func (g *Graph) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.courses = nil
	g.tracks = nil
	g.notFound = make(map[int]struct{})
}

// Snapshot is the persistable form of the graph.
type Snapshot struct {
	Courses  []*model.Course `yaml:"courses,omitempty"`
	Tracks   []*model.Track  `yaml:"tracks,omitempty"`
	NotFound []int           `yaml:"not_found,omitempty"`
}

// Snapshot captures the full graph state for persistence.
func (g *Graph) Snapshot() Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()
	snap := Snapshot{
		Courses: make([]*model.Course, len(g.courses)),
		Tracks:  make([]*model.Track, len(g.tracks)),
	}
	copy(snap.Courses, g.courses)
	copy(snap.Tracks, g.tracks)
	for id := range g.notFound {
		snap.NotFound = append(snap.NotFound, id)
	}
	sort.Ints(snap.NotFound)
	return snap
}

// Restore replaces the graph contents with a persisted snapshot.
func (g *Graph) Restore(snap Snapshot) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.courses = append([]*model.Course(nil), snap.Courses...)
	g.tracks = append([]*model.Track(nil), snap.Tracks...)
	g.notFound = make(map[int]struct{}, len(snap.NotFound))
	for _, id := range snap.NotFound {
		g.notFound[id] = struct{}{}
	}
}
