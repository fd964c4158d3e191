package models

import (
	"fmt"
	"sync"
	"time"
)

var (
	idMu   sync.Mutex
	lastID int64
)

// NewID returns "<prefix>-<millis>" where millis never repeats within the
// process, so two IDs minted in the same millisecond stay distinct and ordered.
func NewID(prefix string, now time.Time) string {
	idMu.Lock()
	ms := now.UnixMilli()
	if ms <= lastID {
		ms = lastID + 1
	}
	lastID = ms
	idMu.Unlock()

	if prefix == "" {
		prefix = "EVT"
	}
	return fmt.Sprintf("%s-%d", prefix, ms)
}
