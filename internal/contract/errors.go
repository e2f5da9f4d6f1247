package contract

import "errors"

// Sentinel errors shared across packages.
var (
	ErrNoRequest        = errors.New("no experiment request uploaded; run 'deepdive analyze <request.json>' first")
	ErrNoDimensions     = errors.New("at least one dimension is required")
	ErrUnknownDimension = errors.New("unknown dimension")
	ErrNoCachedResult   = errors.New("no cached result")
	ErrConfigNotDone    = errors.New("backend configuration has not been uploaded")
)
