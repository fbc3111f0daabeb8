// Package repository persists children, reading history, game history and
// saved recommendation sessions through the dialect-aware database wrapper.
//
// Lookups of a single row return (nil, nil) when nothing matches; updates and
// deletes of a missing row return ErrNotFound.
package repository

import "errors"

// ErrNotFound is returned when an update or delete matches no row
var ErrNotFound = errors.New("record not found")
