package addrcache

// SentinelError is an error.
type SentinelError string

const (
	// ErrInvalidArgument indicates non-positive max age or absent value.
	ErrInvalidArgument = SentinelError("invalid cache argument")

	// ErrInterrupted indicates cancelled wait for an address.
	ErrInterrupted = SentinelError("interrupted")

	// ErrNothingToInvalidate indicates no caches were added to Invalidator.
	ErrNothingToInvalidate = SentinelError("nothing to invalidate")

	// ErrAlreadyInvalidated indicates recent invalidation.
	ErrAlreadyInvalidated = SentinelError("already invalidated")
)

// Error implements error.
func (e SentinelError) Error() string {
	return string(e)
}
