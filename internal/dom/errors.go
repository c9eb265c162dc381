package dom

import (
	"errors"
	"fmt"
)

// ErrSyncIDCollision is returned when two desired siblings share a
// SyncID. The pass is rejected before any mutation so ordering can
// never be corrupted by the ambiguity.
var ErrSyncIDCollision = errors.New("dom: duplicate syncId among siblings")

// CollisionError carries the offending key.
type CollisionError struct {
	SyncID string
}

// Error implements the error interface.
func (e *CollisionError) Error() string {
	return fmt.Sprintf("dom: duplicate syncId %q among siblings", e.SyncID)
}

// Is allows errors.Is to match CollisionError with ErrSyncIDCollision.
func (e *CollisionError) Is(target error) bool {
	return target == ErrSyncIDCollision
}
