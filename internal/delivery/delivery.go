// Package delivery defines the servers started by the composition root.
package delivery

import "context"

// Delivery is a long-running inbound adapter.
type Delivery interface {
	Serve(ctx context.Context) error
}
