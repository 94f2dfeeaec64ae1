package interfaces

import (
	"context"
)

// TelemetryService is the contract for publishing polled snapshots to
// external systems.
type TelemetryService interface {
	Produce(ctx context.Context, key, value []byte) error
	Enabled() bool
	Close() error
}
