// Package model contains the learning-content entities fetched from the
// remote platform: tracks, courses, chapters, exercises, videos and
// datasets, plus their rendering helpers.
package model
