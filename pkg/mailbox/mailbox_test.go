package mailbox

import (
	"path/filepath"
	"testing"

	"quorum/pkg/protocol"
)

func newTestMailbox(t *testing.T) *Mailbox {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "messages.json"))
}

func TestSendAndInbox(t *testing.T) {
	m := newTestMailbox(t)

	id, err := m.Send("coordinator-1", "coder", protocol.MsgDelegation, "new task", "abc12345")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if id == "" {
		t.Fatal("empty message id")
	}

	inbox, err := m.Inbox("coder")
	if err != nil {
		t.Fatalf("Inbox: %v", err)
	}
	if len(inbox) != 1 {
		t.Fatalf("inbox size = %d, want 1", len(inbox))
	}
	msg := inbox[0]
	if msg.From != "coordinator-1" || msg.Type != protocol.MsgDelegation || msg.TaskID != "abc12345" {
		t.Errorf("unexpected message: %+v", msg)
	}
}

func TestInboxFiltersByRecipient(t *testing.T) {
	m := newTestMailbox(t)

	if _, err := m.Send("a", "coder", protocol.MsgInfo, "for coder", ""); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if _, err := m.Send("a", "tester", protocol.MsgInfo, "for tester", ""); err != nil {
		t.Fatalf("Send: %v", err)
	}

	inbox, err := m.Inbox("coder")
	if err != nil {
		t.Fatalf("Inbox: %v", err)
	}
	for _, msg := range inbox {
		if msg.To != "coder" {
			t.Errorf("message for %q leaked into coder's inbox", msg.To)
		}
	}
	if len(inbox) != 1 {
		t.Errorf("inbox size = %d, want 1", len(inbox))
	}
}

func TestInboxPreservesArrivalOrder(t *testing.T) {
	m := newTestMailbox(t)

	bodies := []string{"first", "second", "third"}
	for _, body := range bodies {
		if _, err := m.Send("a", "coder", protocol.MsgInfo, body, ""); err != nil {
			t.Fatalf("Send: %v", err)
		}
	}

	inbox, err := m.Inbox("coder")
	if err != nil {
		t.Fatalf("Inbox: %v", err)
	}
	if len(inbox) != len(bodies) {
		t.Fatalf("inbox size = %d, want %d", len(inbox), len(bodies))
	}
	for i, body := range bodies {
		if inbox[i].Body != body {
			t.Errorf("inbox[%d] = %q, want %q", i, inbox[i].Body, body)
		}
	}
}

func TestInboxDoesNotConsume(t *testing.T) {
	m := newTestMailbox(t)

	if _, err := m.Send("a", "coder", protocol.MsgInfo, "sticky", ""); err != nil {
		t.Fatalf("Send: %v", err)
	}

	for i := 0; i < 2; i++ {
		inbox, err := m.Inbox("coder")
		if err != nil {
			t.Fatalf("Inbox: %v", err)
		}
		if len(inbox) != 1 {
			t.Fatalf("read %d: inbox size = %d, want 1", i, len(inbox))
		}
	}
}
