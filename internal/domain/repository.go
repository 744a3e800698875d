package domain

import (
	"context"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	ListByRole(ctx context.Context, role string) ([]*User, error)
	Count(ctx context.Context) (int, error)
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id string) error
	SetAccessCode(ctx context.Context, id, hashedCode string) error
	ConsumeAccessCode(ctx context.Context, id string) error
}

// TaskRepository defines persistence operations for tasks.
type TaskRepository interface {
	Create(ctx context.Context, t *Task) error
	GetByID(ctx context.Context, id string) (*Task, error)
	ListAll(ctx context.Context) ([]*Task, error)
	ListByAssignee(ctx context.Context, userID string) ([]*Task, error)
	Update(ctx context.Context, t *Task) error
	UpdateStatus(ctx context.Context, id, status string) error
	Delete(ctx context.Context, id string) error
}

// MessageRepository defines persistence operations for chat messages. The store
// assigns message ids and timestamps on Create; timestamps are non-decreasing
// in store order.
type MessageRepository interface {
	Create(ctx context.Context, m *Message) error
	GetByID(ctx context.Context, id string) (*Message, error)

	// ListConversation returns messages between the two users sorted by
	// timestamp ascending, truncated to the first limit (oldest-first).
	// Records predating the conversationId field match on sender/receiver
	// in either direction.
	ListConversation(ctx context.Context, userA, userB string, limit int) ([]*Message, error)

	// ListForParticipant returns every message the user sent or received, in
	// store insertion order.
	ListForParticipant(ctx context.Context, userID string) ([]*Message, error)

	// MarkConversationRead atomically flags every unread message from senderID
	// to receiverID as read and returns the number of messages transitioned.
	// All-or-nothing: on error no message is observably updated.
	MarkConversationRead(ctx context.Context, senderID, receiverID string) (int, error)

	// CountUnread returns the total unread count for a receiver along with a
	// per-sender breakdown.
	CountUnread(ctx context.Context, userID string) (*UnreadSummary, error)
}
