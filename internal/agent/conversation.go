package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/oklog/ulid/v2"

	"github.com/clippy-ai/clippy/internal/storage"
)

// Conversation is the persisted record of one agent session.
type Conversation struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Agent        string `json:"agent,omitempty"`
	ParentID     string `json:"parentID,omitempty"`
	WorkDir      string `json:"workDir"`
	CreatedAt    int64  `json:"createdAt"`
	UpdatedAt    int64  `json:"updatedAt"`
	MessageCount int    `json:"messageCount"`
}

// Message is one turn of a conversation. Tool results carry the ToolCallID
// of the call they answer; assistant turns carry the calls they requested.
type Message struct {
	ID         string            `json:"id"`
	Role       string            `json:"role"` // "user" | "assistant" | "tool"
	Content    string            `json:"content"`
	ToolCalls  []schema.ToolCall `json:"toolCalls,omitempty"`
	ToolCallID string            `json:"toolCallID,omitempty"`
	CreatedAt  int64             `json:"createdAt"`
}

// Store persists conversations and their messages on top of the file store.
// Message IDs are ULIDs, so lexical order is creation order.
type Store struct {
	storage *storage.Store
}

// NewStore creates a conversation store backed by s.
func NewStore(s *storage.Store) *Store {
	return &Store{storage: s}
}

func conversationPath(id string) []string {
	return []string{"conversation", id, "info"}
}

func messagePath(conversationID, messageID string) []string {
	return []string{"conversation", conversationID, "message", messageID}
}

// Create starts a new conversation. The title defaults to a truncated copy
// of the first user input.
func (s *Store) Create(ctx context.Context, workDir, title, agentName, parentID string) (*Conversation, error) {
	now := time.Now().UnixMilli()
	conv := &Conversation{
		ID:        ulid.Make().String(),
		Title:     truncateTitle(title),
		Agent:     agentName,
		ParentID:  parentID,
		WorkDir:   workDir,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.storage.Put(ctx, conversationPath(conv.ID), conv); err != nil {
		return nil, fmt.Errorf("creating conversation: %w", err)
	}
	return conv, nil
}

// Get loads one conversation record.
func (s *Store) Get(ctx context.Context, id string) (*Conversation, error) {
	var conv Conversation
	if err := s.storage.Get(ctx, conversationPath(id), &conv); err != nil {
		return nil, fmt.Errorf("loading conversation %s: %w", id, err)
	}
	return &conv, nil
}

// AppendMessage persists a message and bumps the conversation's counters.
func (s *Store) AppendMessage(ctx context.Context, conversationID string, msg *Message) error {
	if msg.ID == "" {
		msg.ID = ulid.Make().String()
	}
	if msg.CreatedAt == 0 {
		msg.CreatedAt = time.Now().UnixMilli()
	}
	if err := s.storage.Put(ctx, messagePath(conversationID, msg.ID), msg); err != nil {
		return fmt.Errorf("saving message: %w", err)
	}

	conv, err := s.Get(ctx, conversationID)
	if err != nil {
		return err
	}
	conv.MessageCount++
	conv.UpdatedAt = time.Now().UnixMilli()
	return s.storage.Put(ctx, conversationPath(conversationID), conv)
}

// Messages returns the conversation's messages in creation order.
func (s *Store) Messages(ctx context.Context, conversationID string) ([]Message, error) {
	var messages []Message
	err := s.storage.Scan(ctx, []string{"conversation", conversationID, "message"}, func(key string, data json.RawMessage) error {
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			return fmt.Errorf("decoding message %s: %w", key, err)
		}
		messages = append(messages, msg)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(messages, func(i, j int) bool { return messages[i].ID < messages[j].ID })
	return messages, nil
}

// List returns all conversations, most recently updated first.
func (s *Store) List(ctx context.Context) ([]Conversation, error) {
	ids, err := s.storage.List(ctx, []string{"conversation"})
	if err != nil {
		return nil, err
	}
	conversations := make([]Conversation, 0, len(ids))
	for _, id := range ids {
		conv, err := s.Get(ctx, id)
		if err != nil {
			continue
		}
		conversations = append(conversations, *conv)
	}
	sort.Slice(conversations, func(i, j int) bool {
		return conversations[i].UpdatedAt > conversations[j].UpdatedAt
	})
	return conversations, nil
}

// Delete removes a conversation and its messages.
func (s *Store) Delete(ctx context.Context, id string) error {
	ids, err := s.storage.List(ctx, []string{"conversation", id, "message"})
	if err == nil {
		for _, msgID := range ids {
			_ = s.storage.Delete(ctx, messagePath(id, msgID))
		}
	}
	return s.storage.Delete(ctx, conversationPath(id))
}

// toSchemaMessages converts stored history into the provider wire shape.
func toSchemaMessages(messages []Message) []*schema.Message {
	out := make([]*schema.Message, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case "assistant":
			out = append(out, &schema.Message{
				Role:      schema.Assistant,
				Content:   msg.Content,
				ToolCalls: msg.ToolCalls,
			})
		case "tool":
			out = append(out, &schema.Message{
				Role:       schema.Tool,
				Content:    msg.Content,
				ToolCallID: msg.ToolCallID,
			})
		default:
			out = append(out, schema.UserMessage(msg.Content))
		}
	}
	return out
}

func truncateTitle(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 80 {
		s = s[:77] + "..."
	}
	return s
}
