package application

import (
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/example/appointment-scheduler/internal/slot"
)

// SlotCache stores recently generated slot sets per (form, range) so repeated
// calendar reads do not re-expand templates while nothing changed. Every
// mutation of a form invalidates its entries.
type SlotCache struct {
	store *gocache.Cache
}

// NewSlotCache builds a cache whose entries expire after ttl; a non-positive
// ttl falls back to 30 seconds.
func NewSlotCache(ttl time.Duration) *SlotCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &SlotCache{store: gocache.New(ttl, 2*ttl)}
}

func (c *SlotCache) Get(formID string, from, to time.Time) ([]slot.Slot, bool) {
	if c == nil {
		return nil, false
	}
	value, ok := c.store.Get(SlotCacheKey(formID, from, to))
	if !ok {
		return nil, false
	}
	cached, ok := value.([]slot.Slot)
	if !ok {
		return nil, false
	}
	return cloneSlots(cached), true
}

func (c *SlotCache) Store(formID string, from, to time.Time, slots []slot.Slot) {
	if c == nil {
		return
	}
	c.store.SetDefault(SlotCacheKey(formID, from, to), cloneSlots(slots))
}

// InvalidateForm drops every cached range of the form.
func (c *SlotCache) InvalidateForm(formID string) {
	if c == nil {
		return
	}
	prefix := formID + "|"
	for key := range c.store.Items() {
		if strings.HasPrefix(key, prefix) {
			c.store.Delete(key)
		}
	}
}

func SlotCacheKey(formID string, from, to time.Time) string {
	builder := strings.Builder{}
	builder.WriteString(formID)
	builder.WriteString("|")
	builder.WriteString(from.UTC().Format(time.RFC3339))
	builder.WriteString("|")
	builder.WriteString(to.UTC().Format(time.RFC3339))
	return builder.String()
}

func cloneSlots(slots []slot.Slot) []slot.Slot {
	if len(slots) == 0 {
		return nil
	}
	out := make([]slot.Slot, len(slots))
	copy(out, slots)
	return out
}
