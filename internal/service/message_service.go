package service

import (
	"context"
	"fmt"
	"sort"

	"taskhub/internal/domain"
)

// DefaultHistoryLimit caps a history query when the caller gives no limit.
const DefaultHistoryLimit = 50

// MessageService implements the message fan-out persistence step and the three
// read derivations: history, conversation summaries, and unread counts. All
// reads are recomputed from the store on every call; nothing is cached.
type MessageService struct {
	messages     domain.MessageRepository
	historyLimit int
}

func NewMessageService(messages domain.MessageRepository, historyLimit int) *MessageService {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &MessageService{
		messages:     messages,
		historyLimit: historyLimit,
	}
}

type SendMessageInput struct {
	SenderID   string
	ReceiverID string
	Message    string
	SenderName string
	SenderRole string
}

// Send validates the inbound chat event, persists it unread with the derived
// conversation key, and returns the persisted message read back from the
// store (with its assigned id and resolved timestamp).
func (s *MessageService) Send(ctx context.Context, in SendMessageInput) (*domain.Message, error) {
	switch {
	case in.SenderID == "":
		return nil, fmt.Errorf("%w: senderId is required", domain.ErrInvalidInput)
	case in.ReceiverID == "":
		return nil, fmt.Errorf("%w: receiverId is required", domain.ErrInvalidInput)
	case in.Message == "":
		return nil, fmt.Errorf("%w: message must not be empty", domain.ErrInvalidInput)
	}

	msg := &domain.Message{
		SenderID:       in.SenderID,
		ReceiverID:     in.ReceiverID,
		Message:        in.Message,
		SenderName:     in.SenderName,
		SenderRole:     in.SenderRole,
		Read:           false,
		ConversationID: domain.ConversationID(in.SenderID, in.ReceiverID),
		Participants:   domain.SortedPair(in.SenderID, in.ReceiverID),
	}

	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("persist message: %w", err)
	}

	saved, err := s.messages.GetByID(ctx, msg.ID)
	if err != nil {
		return nil, fmt.Errorf("read back message: %w", err)
	}
	return saved, nil
}

// History returns the conversation between two users sorted ascending by
// timestamp, truncated to the first limit messages. The truncation is
// oldest-first: a small limit on a long history returns the oldest messages.
func (s *MessageService) History(ctx context.Context, userA, userB string, limit int) ([]*domain.Message, error) {
	if userA == "" || userB == "" {
		return nil, fmt.Errorf("%w: both user ids are required", domain.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = s.historyLimit
	}
	return s.messages.ListConversation(ctx, userA, userB, limit)
}

// Conversations derives one summary per partner: the latest message exchanged
// with that partner, most recently active first. A later message with an equal
// timestamp does not replace the stored one (strictly-greater comparison in
// store encounter order).
func (s *MessageService) Conversations(ctx context.Context, userID string) ([]*domain.ConversationSummary, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: userId is required", domain.ErrInvalidInput)
	}

	msgs, err := s.messages.ListForParticipant(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	byPartner := make(map[string]*domain.ConversationSummary)
	for _, m := range msgs {
		partnerID := partnerOf(m, userID)
		if partnerID == "" {
			continue
		}
		cur, ok := byPartner[partnerID]
		if ok && !m.Timestamp.After(cur.Timestamp) {
			continue
		}
		summary := &domain.ConversationSummary{
			PartnerID:   partnerID,
			IsMeSend:    m.SenderID == userID,
			LastMessage: m.Message,
			Timestamp:   m.Timestamp,
			Read:        m.Read,
		}
		// Messages only denormalize the sender's name, so the partner name is
		// unknown when the viewer sent the latest message.
		if m.SenderID != userID {
			summary.PartnerName = m.SenderName
		}
		byPartner[partnerID] = summary
	}

	res := make([]*domain.ConversationSummary, 0, len(byPartner))
	for _, c := range byPartner {
		res = append(res, c)
	}
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].Timestamp.After(res[j].Timestamp)
	})
	return res, nil
}

// Unread reports the total unread count for a receiver plus the per-sender
// breakdown.
func (s *MessageService) Unread(ctx context.Context, userID string) (*domain.UnreadSummary, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: userId is required", domain.ErrInvalidInput)
	}
	return s.messages.CountUnread(ctx, userID)
}

// MarkRead atomically flags every unread message from senderID to receiverID
// as read and returns the number transitioned in this batch. No matching
// messages is not an error; the count is zero.
func (s *MessageService) MarkRead(ctx context.Context, senderID, receiverID string) (int, error) {
	if senderID == "" || receiverID == "" {
		return 0, fmt.Errorf("%w: senderId and receiverId are required", domain.ErrInvalidInput)
	}
	return s.messages.MarkConversationRead(ctx, senderID, receiverID)
}

func partnerOf(m *domain.Message, userID string) string {
	if len(m.Participants) == 2 {
		if m.Participants[0] == userID {
			return m.Participants[1]
		}
		if m.Participants[1] == userID {
			return m.Participants[0]
		}
	}
	// Records predating the participants pair fall back to sender/receiver.
	if m.SenderID == userID {
		return m.ReceiverID
	}
	if m.ReceiverID == userID {
		return m.SenderID
	}
	return ""
}
