package common

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewQueueItemID generates a unique queue item ID. The creation timestamp
// is folded in so ids regenerated on import never collide with prior ones.
// Format: queue_<unixms>_<uuid8>
func NewQueueItemID() string {
	return fmt.Sprintf("queue_%d_%s", time.Now().UnixMilli(), uuid.New().String()[:8])
}

// NewHistoryID generates a unique history entry ID
// Format: hist_<unixms>_<uuid8>
func NewHistoryID() string {
	return fmt.Sprintf("hist_%d_%s", time.Now().UnixMilli(), uuid.New().String()[:8])
}
