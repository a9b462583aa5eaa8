// Package lifecycle holds shared timing bounds for start/stop hooks and background calls.
package lifecycle

import "time"

const (
	// DefaultTimeout bounds fx start/stop hooks.
	DefaultTimeout = 10 * time.Second

	// BackgroundCallTimeout bounds gateway calls issued outside a request, such as
	// debounced searches and push-triggered read receipts.
	BackgroundCallTimeout = 15 * time.Second
)
