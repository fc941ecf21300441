// file: internal/registry/cursor.go
package registry

import (
	"time"

	"github.com/rs/xid"

	"github.com/dkoosis/mcpkit/internal/cache"
	"github.com/dkoosis/mcpkit/internal/protoerr"
)

// cursorTTL bounds how long an issued page token remains valid; it need
// only outlive a reasonable pause between a client's paginated list calls.
const cursorTTL = 10 * time.Minute

// cursorStore maps opaque, xid-generated page tokens to the offset they
// resume from, per spec.md §4.6's "opaque nextCursor" requirement.
type cursorStore struct {
	offsets *cache.Store[string, int]
}

func newCursorStore() *cursorStore {
	return &cursorStore{
		offsets: cache.New[string, int](4096, cache.WithDefaultTTL[string, int](cursorTTL)),
	}
}

// issue mints a new opaque cursor resuming at offset.
func (c *cursorStore) issue(offset int) string {
	token := xid.New().String()
	c.offsets.Set(token, offset)
	return token
}

// resolve decodes cursor into an offset. An empty cursor resolves to 0,
// matching the start of a fresh listing. An unknown or expired cursor is
// InvalidParams (spec.md §4.6).
func (c *cursorStore) resolve(cursor string) (int, error) {
	if cursor == "" {
		return 0, nil
	}
	offset, ok := c.offsets.Get(cursor)
	if !ok {
		return 0, protoerr.WithDetails(protoerr.KindInvalidParams,
			"unknown or expired cursor", map[string]interface{}{"cursor": cursor})
	}
	return offset, nil
}
