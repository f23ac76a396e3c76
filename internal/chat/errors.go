package chat

import "errors"

var (
	ErrGenerationUnavailable = errors.New("Gemini AI not initialized")
	ErrDatabaseUnavailable   = errors.New("Database not connected")
)
