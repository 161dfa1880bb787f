package db

import (
	"fmt"
	"strings"
	"time"

	"github.com/mithrel/muse/pkg/api"
)

type cursorToken struct {
	ts time.Time
	id string
}

func parseCursorToken(s string) (cursorToken, bool) {
	parts := strings.SplitN(strings.TrimSpace(s), "|", 2)
	if len(parts) != 2 {
		return cursorToken{}, false
	}
	ts, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return cursorToken{}, false
	}
	id := strings.TrimSpace(parts[1])
	if id == "" {
		return cursorToken{}, false
	}
	return cursorToken{ts: ts, id: id}, true
}

// cursorFrom parses an optional cursor; empty means the first page.
func cursorFrom(s string) (cursorToken, bool, error) {
	if strings.TrimSpace(s) == "" {
		return cursorToken{}, false, nil
	}
	c, ok := parseCursorToken(s)
	if !ok {
		return cursorToken{}, false, ErrInvalidCursor
	}
	return c, true, nil
}

func encodeCursorToken(d api.DocumentSummary) string {
	return fmt.Sprintf("%s|%s", d.UpdatedAt.UTC().Format(time.RFC3339Nano), d.ID)
}

// before reports whether d sorts after the cursor in updated_at DESC, id DESC order.
func (c cursorToken) before(d api.DocumentSummary) bool {
	u := d.UpdatedAt.UTC()
	ts := c.ts.UTC()
	return u.Before(ts) || (u.Equal(ts) && d.ID < c.id)
}

// pageOf trims a limit+1 result set and derives the next cursor.
func pageOf(rows []api.DocumentSummary, limit int) ([]api.DocumentSummary, api.Page, error) {
	var page api.Page
	if len(rows) > limit {
		rows = rows[:limit]
		page.Next = encodeCursorToken(rows[len(rows)-1])
	}
	return rows, page, nil
}
