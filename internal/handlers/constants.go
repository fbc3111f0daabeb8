package handlers

const (
	ErrInvalidJSON          = "Invalid JSON body"
	ErrInvalidChildID       = "Invalid child ID"
	ErrChildNotFound        = "Child not found"
	ErrInternalServerError  = "Internal server error"
	ErrTooManyRequests      = "Too many requests"
	ErrValidationFailed     = "Validation failed"
	ErrUnknownMode          = "Mode must be grid or comparison"
	ErrNotEnoughBooks       = "Not enough age-appropriate books in the catalog"
	ErrNoActiveGame         = "No preference game for this child"
	ErrNoRatingSession      = "No rating session for this child"
	ErrSavedSessionNotFound = "Saved session not found"
	ErrEmailDisabled        = "Email is not configured"
	ErrBodyTooLarge         = "Request body is too large"

	// maxUploadBytes caps reading history uploads
	maxUploadBytes = 1 << 20
	// maxBodyBytes caps JSON request bodies
	maxBodyBytes = 64 << 10
)
