package api

import (
	"context"
	"strconv"
)

// UserTrack is the caller's relationship with a catalog track.
type UserTrack struct {
	Enrolled       bool    `json:"enrolled"`
	Active         bool    `json:"active"`
	CompletionRate float64 `json:"completionRate"`
}

// CatalogTrack is one entry of the skill- or career-track catalog.
type CatalogTrack struct {
	ID                     int       `json:"id"`
	Title                  string    `json:"title"`
	CourseCount            int       `json:"courseCount"`
	TimeNeeded             string    `json:"timeNeeded"`
	Technologies           []string  `json:"technologies"`
	CourseIDs              []int     `json:"courseIds"`
	IsFoundational         bool      `json:"isFoundational"`
	CertificationAvailable bool      `json:"certificationAvailable"`
	UserTrack              UserTrack `json:"userTrack"`
}

type trackCatalog struct {
	Tracks []CatalogTrack `json:"tracks"`
}

// FetchSkillTracks fetches the skill-track catalog.
func (c *Client) FetchSkillTracks(ctx context.Context) ([]CatalogTrack, error) {
	var catalog trackCatalog
	if err := c.getJSON(ctx, SkillTracksURL, &catalog, ErrAuthentication); err != nil {
		return nil, err
	}
	return catalog.Tracks, nil
}

// FetchCareerTracks fetches the career-track catalog.
func (c *Client) FetchCareerTracks(ctx context.Context) ([]CatalogTrack, error) {
	var catalog trackCatalog
	if err := c.getJSON(ctx, CareerTracksURL, &catalog, ErrAuthentication); err != nil {
		return nil, err
	}
	return catalog.Tracks, nil
}

// FindCatalogTrack returns the catalog track with the given id, or nil.
func FindCatalogTrack(tracks []CatalogTrack, id int) *CatalogTrack {
	for i := range tracks {
		if tracks[i].ID == id {
			return &tracks[i]
		}
	}
	return nil
}

// FilterCatalogTracks filters the catalog by the given criterion:
// all, enrolled, active, completed, foundational or certification.
// Unknown filters yield an empty list.
func FilterCatalogTracks(tracks []CatalogTrack, filter string) []CatalogTrack {
	if filter == "" || filter == "all" {
		return tracks
	}
	var filtered []CatalogTrack
	for _, track := range tracks {
		switch filter {
		case "enrolled":
			if track.UserTrack.Enrolled {
				filtered = append(filtered, track)
			}
		case "active":
			if track.UserTrack.Active {
				filtered = append(filtered, track)
			}
		case "completed":
			if track.UserTrack.CompletionRate >= 100 {
				filtered = append(filtered, track)
			}
		case "foundational":
			if track.IsFoundational {
				filtered = append(filtered, track)
			}
		case "certification":
			if track.CertificationAvailable {
				filtered = append(filtered, track)
			}
		}
	}
	return filtered
}

// NotFoundTrackError builds the not-found failure for a catalog track id.
func NotFoundTrackError(id int) *NotFoundError {
	return &NotFoundError{Kind: "skill track", ID: strconv.Itoa(id)}
}
