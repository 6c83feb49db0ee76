// Package notification keeps the per-user list of display notifications.
// Entries live only in process memory and are lost on restart.
package notification

import (
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iliyamo/campus-housing/internal/model"
)

// DefaultLimit is how many entries are kept per user.
const DefaultLimit = 50

// Center is a concurrency-safe, in-memory notification store keyed by
// user ID.  Newest entries come first.
//
// Besides pushed entries a user may have summaries: entries computed
// from the store on every read (such as the pending request count).
// Only their read state lives here.
type Center struct {
	mu        sync.RWMutex
	items     map[uint64][]model.Notification
	summaries map[uint64]map[string]*summary
	limit     int
	seq       atomic.Uint64
	now       func() time.Time
}

type summary struct {
	current  model.Notification
	readText string
}

func (s *summary) unread() bool { return s.current.Message != s.readText }

// NewCenter returns an empty Center keeping at most limit entries per
// user.  A non-positive limit selects DefaultLimit.
func NewCenter(limit int) *Center {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Center{
		items:     make(map[uint64][]model.Notification),
		summaries: make(map[uint64]map[string]*summary),
		limit:     limit,
		now:       time.Now,
	}
}

// Push prepends n to the user's list and returns the stored entry.  ID
// and Time are filled in when empty; Read is always reset.
func (c *Center) Push(userID uint64, n model.Notification) model.Notification {
	if n.ID == "" {
		n.ID = strconv.FormatInt(c.now().UnixMilli(), 10) + "-" + strconv.FormatUint(c.seq.Add(1), 10)
	}
	if n.Time == "" {
		n.Time = c.now().UTC().Format(time.RFC3339)
	}
	n.Read = false

	c.mu.Lock()
	defer c.mu.Unlock()
	list := append([]model.Notification{n}, c.items[userID]...)
	if len(list) > c.limit {
		list = list[:c.limit]
	}
	c.items[userID] = list
	return n
}

// List returns a copy of the user's notifications, newest first.
func (c *Center) List(userID uint64) []model.Notification {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.Notification, len(c.items[userID]))
	copy(out, c.items[userID])
	return out
}

// SetSummary records the current version of the summary n.ID and
// returns it with its read state.  A summary stays read only while its
// message is the one the user marked as read.
func (c *Center) SetSummary(userID uint64, n model.Notification) model.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	byID := c.summaries[userID]
	if byID == nil {
		byID = make(map[string]*summary)
		c.summaries[userID] = byID
	}
	st := byID[n.ID]
	if st == nil {
		st = &summary{}
		byID[n.ID] = st
	}
	st.current = n
	st.current.Read = !st.unread()
	return st.current
}

// DropSummary forgets the summary id, read state included.
func (c *Center) DropSummary(userID uint64, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.summaries[userID], id)
}

// UnreadCount returns how many of the user's notifications, summaries
// included, are unread.
func (c *Center) UnreadCount(userID uint64) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, it := range c.items[userID] {
		if !it.Read {
			n++
		}
	}
	for _, st := range c.summaries[userID] {
		if st.unread() {
			n++
		}
	}
	return n
}

// MarkAsRead flags one notification or summary as read.  It reports
// whether it was found.
func (c *Center) MarkAsRead(userID uint64, id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	list := c.items[userID]
	for i := range list {
		if list[i].ID == id {
			list[i].Read = true
			return true
		}
	}
	if st, ok := c.summaries[userID][id]; ok {
		st.readText = st.current.Message
		return true
	}
	return false
}

// MarkAllAsRead flags every notification and summary of the user as
// read and returns how many changed.
func (c *Center) MarkAllAsRead(userID uint64) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	changed := 0
	list := c.items[userID]
	for i := range list {
		if !list[i].Read {
			list[i].Read = true
			changed++
		}
	}
	for _, st := range c.summaries[userID] {
		if st.unread() {
			st.readText = st.current.Message
			changed++
		}
	}
	return changed
}

// RemoveWhere drops the user's notifications for which match returns true and
// returns how many were removed.
func (c *Center) RemoveWhere(userID uint64, match func(model.Notification) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	list := c.items[userID]
	kept := list[:0]
	removed := 0
	for _, n := range list {
		if match(n) {
			removed++
			continue
		}
		kept = append(kept, n)
	}
	c.items[userID] = kept
	return removed
}

// ForRequest matches notifications whose data refers to requestID.
func ForRequest(requestID uint64) func(model.Notification) bool {
	return func(n model.Notification) bool {
		if n.Data == nil {
			return false
		}
		switch v := n.Data["request_id"].(type) {
		case uint64:
			return v == requestID
		case string:
			return v == strconv.FormatUint(requestID, 10)
		}
		return false
	}
}
