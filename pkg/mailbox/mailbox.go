// Package mailbox implements the point-to-point message channel between
// named agents. Messages are append-only advisory notices — a worker that
// never reads its inbox still discovers work by polling the task store.
package mailbox

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"quorum/pkg/protocol"
	"quorum/pkg/store"
)

// Mailbox is the shared message channel for one workspace.
type Mailbox struct {
	messages *store.Store[protocol.Message]

	nowFunc func() time.Time
	idFunc  func() string
}

// New creates a Mailbox backed by the messages file at path.
func New(path string) *Mailbox {
	return &Mailbox{
		messages: store.New[protocol.Message](path),
		nowFunc:  time.Now,
		idFunc: func() string {
			return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
		},
	}
}

// SetNowFunc overrides the clock. Test hook.
func (m *Mailbox) SetNowFunc(fn func() time.Time) { m.nowFunc = fn }

// Send appends a message from one agent to another and returns its id.
// taskID may be empty for notices not tied to a task.
func (m *Mailbox) Send(from, to string, typ protocol.MessageType, body, taskID string) (string, error) {
	var msgID string
	err := m.messages.Update(func(messages []protocol.Message) ([]protocol.Message, error) {
		msgID = m.idFunc()
		messages = append(messages, protocol.Message{
			ID:        msgID,
			From:      from,
			To:        to,
			Type:      typ,
			Body:      body,
			TaskID:    taskID,
			Timestamp: m.nowFunc(),
		})
		return messages, nil
	})
	if err != nil {
		return "", err
	}
	return msgID, nil
}

// Inbox returns all messages addressed to agentID in arrival order.
// Reading does not consume: messages stay in the store.
func (m *Mailbox) Inbox(agentID string) ([]protocol.Message, error) {
	messages, err := m.messages.Load()
	if err != nil {
		return nil, err
	}
	inbox := make([]protocol.Message, 0, len(messages))
	for _, msg := range messages {
		if msg.To == agentID {
			inbox = append(inbox, msg)
		}
	}
	return inbox, nil
}
