package llm

import (
	"context"
	"strings"
	"sync"
)

// Roles used in conversation history.
const (
	RoleUser = "user"
	RoleAI   = "ai"
)

// Turn is one entry of a conversation history.
type Turn struct {
	Role    string
	Content string
}

// FormatHistory renders turns as "User: ..." / "AI: ..." lines. Turns with an unknown
// role are skipped.
func FormatHistory(turns []Turn) string {
	var b strings.Builder
	for _, t := range turns {
		switch t.Role {
		case RoleUser:
			b.WriteString("User: " + t.Content + "\n")
		case RoleAI:
			b.WriteString("AI: " + t.Content + "\n")
		}
	}
	return b.String()
}

// Conversation keeps a multi-turn history and sends all of it with every new prompt.
type Conversation struct {
	gen Generator

	mu      sync.Mutex
	history []Turn
}

func NewConversation(gen Generator) *Conversation {
	return &Conversation{gen: gen}
}

// Send appends input as a user turn, asks the model with the full history and records the
// reply. If generation fails the user turn is dropped so the history stays paired.
func (c *Conversation) Send(ctx context.Context, input string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.history = append(c.history, Turn{Role: RoleUser, Content: input})
	reply, err := c.gen.Generate(ctx, FormatHistory(c.history))
	if err != nil {
		c.history = c.history[:len(c.history)-1]
		return "", err
	}
	c.history = append(c.history, Turn{Role: RoleAI, Content: reply})
	return reply, nil
}

// History returns a copy of the recorded turns.
func (c *Conversation) History() []Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Turn, len(c.history))
	copy(out, c.history)
	return out
}

// Reset clears the history.
func (c *Conversation) Reset() {
	c.mu.Lock()
	c.history = nil
	c.mu.Unlock()
}
