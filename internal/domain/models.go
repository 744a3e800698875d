package domain

import (
	"sort"
	"strings"
	"time"
)

// User roles.
const (
	RoleOwner    = "owner"
	RoleEmployee = "employee"
)

// User represents an account in the users collection. The first account ever
// created becomes the owner; everyone else is an employee added by the owner.
type User struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Email       string    `db:"email" json:"email"`
	PhoneNumber string    `db:"phone_number" json:"phoneNumber"`
	Department  string    `db:"department" json:"department"`
	Role        string    `db:"role" json:"role"`
	AccessCode  string    `db:"access_code" json:"-"` // bcrypt hash of the pending login code, empty once consumed
	IsVerified  bool      `db:"is_verified" json:"isVerified"`
	CreatedBy   string    `db:"created_by" json:"createdBy,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// Task represents a unit of work assigned to an employee. Status and deadline
// are client-owned strings and pass through the backend unmodified.
type Task struct {
	ID          string    `db:"id" json:"id"`
	AssignedTo  string    `db:"assigned_to" json:"assignedTo"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Status      string    `db:"status" json:"status"`
	Deadline    string    `db:"deadline" json:"deadline"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// Message is a direct chat message between two users. Sender display fields are
// denormalized at send time and never updated retroactively.
type Message struct {
	ID             string     `db:"id" json:"id"`
	SenderID       string     `db:"sender_id" json:"senderId"`
	ReceiverID     string     `db:"receiver_id" json:"receiverId"`
	Message        string     `db:"message" json:"message"`
	SenderName     string     `db:"sender_name" json:"senderName"`
	SenderRole     string     `db:"sender_role" json:"senderRole"`
	Timestamp      time.Time  `db:"timestamp" json:"timestamp"`
	Read           bool       `db:"read" json:"read"`
	ReadAt         *time.Time `db:"read_at" json:"readAt,omitempty"`
	ConversationID string     `db:"conversation_id" json:"conversationId"`
	Participants   []string   `json:"participants"`
}

// ConversationSeparator joins the two participant ids of a conversation key.
const ConversationSeparator = "_"

// ConversationID derives the direction-independent conversation key for two
// users: the ids sorted lexicographically and joined with the separator, so
// ConversationID(a, b) == ConversationID(b, a) for every pair.
func ConversationID(a, b string) string {
	return strings.Join(SortedPair(a, b), ConversationSeparator)
}

// SortedPair returns the two ids in lexicographic order.
func SortedPair(a, b string) []string {
	pair := []string{a, b}
	sort.Strings(pair)
	return pair
}

// ConversationSummary is the derived per-partner entry of a user's conversation
// list: the latest message exchanged with that partner. PartnerName is empty
// when the latest message was sent by the viewer, since messages only carry the
// sender's display name.
type ConversationSummary struct {
	PartnerID   string    `json:"partnerId"`
	PartnerName string    `json:"partnerName,omitempty"`
	IsMeSend    bool      `json:"isMeSend"`
	LastMessage string    `json:"lastMessage"`
	Timestamp   time.Time `json:"timestamp"`
	Read        bool      `json:"read"`
}

// UnreadSummary is the derived unread-message report for a receiving user.
type UnreadSummary struct {
	TotalUnread    int            `json:"totalUnread"`
	UnreadBySender map[string]int `json:"unreadBySender"`
}
