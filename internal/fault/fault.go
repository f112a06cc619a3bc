// Package fault defines the error taxonomy shared by the measurement engine.
//
// Every error returned by the engine wraps exactly one of the sentinels below,
// so callers can classify failures with errors.Is regardless of which package
// produced them:
//
//	if errors.Is(err, fault.ErrMarkerState) {
//	    // unbalanced Start/Stop
//	}
package fault

import "errors"

var (
	// ErrSamplerUnavailable reports that a backing counter is not supported
	// on this platform. It is recoverable: markers substitute a zero value
	// and flag the record as degraded.
	ErrSamplerUnavailable = errors.New("sampler unavailable")

	// ErrMarkerState reports unbalanced manual Start/Stop calls.
	ErrMarkerState = errors.New("marker state error")

	// ErrStackCorruption reports a LIFO violation on a thread's call stack.
	ErrStackCorruption = errors.New("call stack corruption")

	// ErrPostFinalizeAccess reports recording into storage after finalize.
	ErrPostFinalizeAccess = errors.New("access after finalize")

	// ErrConfiguration reports invalid settings or an unknown component name.
	ErrConfiguration = errors.New("configuration error")
)
