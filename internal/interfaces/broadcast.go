package interfaces

import (
	"github.com/twmiller/dl-44/internal/grbl"
)

// SnapshotPublisher receives the controller snapshot after each poll
// cycle and fans it out to subscribed clients.
type SnapshotPublisher interface {
	PublishSnapshot(snap grbl.Snapshot)
}
