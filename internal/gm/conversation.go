package gm

import (
	"sync"

	"github.com/antoniostano/gamemaster/internal/transcript"
)

// conversation is the live turn history of one connection. Tool
// handlers and the brain adapter read snapshots while the session loop
// appends, so access is locked.
type conversation struct {
	mu    sync.Mutex
	turns []transcript.Turn
}

// History returns a point-in-time copy safe to hand to tools and the
// model adapter.
func (c *conversation) History() []transcript.Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]transcript.Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

func (c *conversation) Append(role, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = append(c.turns, transcript.Turn{Role: role, Content: content})
}

func (c *conversation) UserTurns() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.turns {
		if t.Role == transcript.RoleUser {
			n++
		}
	}
	return n
}
