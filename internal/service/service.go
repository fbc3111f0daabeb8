// Package service orchestrates repositories, the catalog and the game engine
// for the HTTP handlers and the backup CLI.
package service

import "errors"

var (
	ErrChildNotFound   = errors.New("child not found")
	ErrNoActiveGame    = errors.New("no preference game for this child")
	ErrNoRatingSession = errors.New("no rating session for this child")
	ErrSessionNotFound = errors.New("saved session not found")
	ErrEmailDisabled   = errors.New("email is not configured")
	ErrSameChild       = errors.New("shared recommendations need two different children")
	ErrNothingToExport = errors.New("no recommendations to export")
)
