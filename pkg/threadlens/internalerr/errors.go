package internalerr

import "errors"

// Sentinel errors for the analysis pipeline
var (
	ErrEmptyCorpus       = errors.New("empty corpus")
	ErrEmptyVocabulary   = errors.New("empty vocabulary")
	ErrUnsupportedInput  = errors.New("unsupported input type")
	ErrInvalidMethod     = errors.New("invalid reduction method")
	ErrInsufficientItems = errors.New("insufficient items")
	ErrPrecondition      = errors.New("analysis precondition failed")
)

// Sentinel errors for infrastructure around the pipeline
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidConfig = errors.New("invalid configuration")
)
