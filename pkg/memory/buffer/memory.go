package buffer

import (
	"fmt"
	"strings"

	"github.com/y-pakorn/friendwithbets/pkg/models"
)

type Role string

const (
	User      Role = "user"
	Assistant Role = "assistant"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Transcript is an append-only conversation. Copies share a backing array, so
// Clone before appending to a transcript someone else holds.
type Transcript struct {
	Items []Message `json:"messages"`
}

func New(items ...Message) Transcript {
	return Transcript{Items: append([]Message(nil), items...)}
}

func (t *Transcript) Add(m Message) {
	t.Items = append(t.Items, m)
}

func (t Transcript) Len() int {
	return len(t.Items)
}

func (t Transcript) Last() (Message, bool) {
	if len(t.Items) == 0 {
		return Message{}, false
	}
	return t.Items[len(t.Items)-1], true
}

// Clone returns a transcript that shares nothing with t.
func (t Transcript) Clone() Transcript {
	return New(t.Items...)
}

// Validate rejects unknown roles and empty messages.
func (t Transcript) Validate() error {
	for i, m := range t.Items {
		if m.Role != User && m.Role != Assistant {
			return fmt.Errorf("%w: message %d has role %q", models.ErrBadInput, i, m.Role)
		}
		if strings.TrimSpace(m.Content) == "" {
			return fmt.Errorf("%w: message %d is empty", models.ErrBadInput, i)
		}
	}
	return nil
}
