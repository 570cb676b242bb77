package aiclient

import "errors"

// The proxy maps server-side failures onto three canonical classes.
// Each class carries a fixed, user-presentable message; the raw
// transport detail stays wrapped underneath for logging.
var (
	ErrUnauthorized = errors.New("the AI service rejected the request: server credentials are missing or invalid")
	ErrRateLimited  = errors.New("the AI service is handling too many requests right now, please try again in a moment")
	ErrServer       = errors.New("the AI service failed to process the request, please try again")

	// ErrEmptyArtifact is raised by operations whose contract requires a
	// non-empty composite artifact. List-bearing operations never raise
	// it; they return empty collections instead.
	ErrEmptyArtifact = errors.New("the AI service returned no usable image result")
)
