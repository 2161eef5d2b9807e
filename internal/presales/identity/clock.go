package identity

import (
	"sync/atomic"
	"time"
)

// Clock yields the timestamp segment of new uids.
type Clock interface {
	Next() int64
}

// NanoClock returns Unix nanoseconds, bumped so that every call in the process is
// strictly greater than the previous one.
type NanoClock struct {
	last atomic.Int64
	now  func() time.Time
}

func NewNanoClock() *NanoClock {
	return &NanoClock{now: time.Now}
}

func (c *NanoClock) Next() int64 {
	now := time.Now
	if c.now != nil {
		now = c.now
	}
	for {
		prev := c.last.Load()
		ts := now().UnixNano()
		if ts <= prev {
			ts = prev + 1
		}
		if c.last.CompareAndSwap(prev, ts) {
			return ts
		}
	}
}
