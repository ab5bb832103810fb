package api

import (
	"context"
	"fmt"
)

// LoginDetails is the signed-in user record used to verify a token.
type LoginDetails struct {
	FirstName             string        `json:"first_name"`
	LastName              string        `json:"last_name"`
	Email                 string        `json:"email"`
	Slug                  string        `json:"slug"`
	HasActiveSubscription *bool         `json:"has_active_subscription"`
	ActiveProducts        []interface{} `json:"active_products"`
}

// DisplayName returns the friendliest available name for the user.
func (d *LoginDetails) DisplayName() string {
	switch {
	case d.FirstName != "":
		return d.FirstName
	case d.LastName != "":
		return d.LastName
	default:
		return d.Email
	}
}

// HasSubscription detects an active subscription across API generations:
// the old boolean flag or the newer active-products list.
func (d *LoginDetails) HasSubscription() bool {
	if d.HasActiveSubscription != nil {
		return *d.HasActiveSubscription
	}
	return len(d.ActiveProducts) > 0
}

// FetchLoginDetails verifies the stored token against the signed-in
// endpoint. Any error marker or decode failure means the token is invalid.
func (c *Client) FetchLoginDetails(ctx context.Context) (*LoginDetails, error) {
	var details LoginDetails
	if err := c.getJSON(ctx, LoginDetailsURL, &details, ErrAuthentication); err != nil {
		return nil, err
	}
	if details.Slug == "" && details.Email == "" {
		return nil, ErrAuthentication
	}
	return &details, nil
}

// ProfileTrack is a completed track entry on the public profile.
type ProfileTrack struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// ProfileCourse is a completed course entry on the public profile.
type ProfileCourse struct {
	ID int `json:"id"`
}

// EnrolledCourse is an ongoing course the user started but has not finished.
type EnrolledCourse struct {
	ID                int      `json:"id"`
	Title             string   `json:"title"`
	TimeNeededInHours *float64 `json:"time_needed_in_hours"`
	XP                int      `json:"xp"`
	DifficultyLevel   *int     `json:"difficulty_level"`
}

// Profile is the extended user profile: completed and enrolled content.
type Profile struct {
	CompletedTracks  []ProfileTrack   `json:"completed_tracks"`
	CompletedCourses []ProfileCourse  `json:"completed_courses"`
	EnrolledCourses  []EnrolledCourse `json:"enrolled_courses"`
}

// FetchProfile fetches the extended profile for the given user slug.
func (c *Client) FetchProfile(ctx context.Context, slug string) (*Profile, error) {
	if slug == "" {
		return nil, &MalformedError{Kind: "profile", Reason: "missing user slug"}
	}
	var profile Profile
	notFound := &NotFoundError{Kind: "profile", ID: slug}
	if err := c.getJSON(ctx, fmt.Sprintf(ProfileDataURL, slug), &profile, notFound); err != nil {
		return nil, err
	}
	return &profile, nil
}
