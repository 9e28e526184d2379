package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrSessionExpired   = fmt.Errorf("session expired")

	// Job and stream errors
	ErrJobCreateFailed = fmt.Errorf("job creation failed")
	ErrJobNotResumable = fmt.Errorf("job can no longer be resumed")
	ErrJobExpired      = fmt.Errorf("job expired")
	ErrStreamFormat    = fmt.Errorf("stream format invalid")
	ErrRateLimited     = fmt.Errorf("rate limited")
	ErrEmptyNarrative  = fmt.Errorf("narrative is empty")
	ErrGenerationBusy  = fmt.Errorf("a narrative is already being generated")

	// Narration errors
	ErrNarrationQueueFull   = fmt.Errorf("narration queue full")
	ErrNarrationUnavailable = fmt.Errorf("narration unavailable")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrNoCardsDrawn    = fmt.Errorf("no cards drawn")
	ErrUnknownSpread   = fmt.Errorf("unknown spread")

	// Persistence errors
	ErrStorageUnavailable = fmt.Errorf("storage unavailable")
	ErrEntryNotFound      = fmt.Errorf("journal entry not found")
)
