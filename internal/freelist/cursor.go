package freelist

import "sync/atomic"

// Cursor is a bump cursor over slots [0, limit). It only ever advances; an
// advance that lands at or past limit is forfeited.
type Cursor struct {
	next  atomic.Uint64
	limit uint64
}

// NewCursor returns a cursor over limit slots.
func NewCursor(limit uint32) *Cursor {
	return &Cursor{limit: uint64(limit)}
}

// Next claims the next never-used slot with a single fetch-and-add.
func (c *Cursor) Next() (uint32, bool) {
	v := c.next.Add(1) - 1
	if v >= c.limit {
		return 0, false
	}
	return uint32(v), true
}

// Bumped returns how many slots have been handed out, capped at the limit.
func (c *Cursor) Bumped() uint32 {
	return uint32(min(c.next.Load(), c.limit))
}

// Limit returns the number of slots the cursor covers.
func (c *Cursor) Limit() uint32 {
	return uint32(c.limit)
}
