package service_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskhub/internal/domain"
	"taskhub/internal/service"
)

// fakeMessageRepo is an in-memory MessageRepository that mirrors the store
// semantics: id/timestamp assignment on create, oldest-first history
// truncation, insertion-order participant listing, and atomic batch mark-read.
type fakeMessageRepo struct {
	msgs       []*domain.Message
	seq        int
	clock      time.Time
	failCreate bool
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{clock: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeMessageRepo) Create(_ context.Context, m *domain.Message) error {
	if f.failCreate {
		return errors.New("store unavailable")
	}
	f.seq++
	m.ID = fmt.Sprintf("m%d", f.seq)
	f.clock = f.clock.Add(time.Second)
	m.Timestamp = f.clock
	m.Participants = domain.SortedPair(m.SenderID, m.ReceiverID)
	stored := *m
	f.msgs = append(f.msgs, &stored)
	return nil
}

// add inserts a message with an explicit timestamp, bypassing the clock.
func (f *fakeMessageRepo) add(m domain.Message) *domain.Message {
	f.seq++
	if m.ID == "" {
		m.ID = fmt.Sprintf("m%d", f.seq)
	}
	if m.ConversationID == "" && len(m.Participants) == 0 {
		// legacy record: no conversation key, no participant pair
	} else if len(m.Participants) == 0 {
		m.Participants = domain.SortedPair(m.SenderID, m.ReceiverID)
	}
	f.msgs = append(f.msgs, &m)
	return &m
}

func (f *fakeMessageRepo) GetByID(_ context.Context, id string) (*domain.Message, error) {
	for _, m := range f.msgs {
		if m.ID == id {
			cp := *m
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeMessageRepo) ListConversation(_ context.Context, userA, userB string, limit int) ([]*domain.Message, error) {
	convID := domain.ConversationID(userA, userB)
	var res []*domain.Message
	for _, m := range f.msgs {
		match := m.ConversationID == convID
		if m.ConversationID == "" {
			match = (m.SenderID == userA && m.ReceiverID == userB) ||
				(m.SenderID == userB && m.ReceiverID == userA)
		}
		if match {
			cp := *m
			res = append(res, &cp)
		}
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].Timestamp.Before(res[j].Timestamp) })
	if len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

func (f *fakeMessageRepo) ListForParticipant(_ context.Context, userID string) ([]*domain.Message, error) {
	var res []*domain.Message
	for _, m := range f.msgs {
		if m.SenderID == userID || m.ReceiverID == userID {
			cp := *m
			res = append(res, &cp)
		}
	}
	return res, nil
}

func (f *fakeMessageRepo) MarkConversationRead(_ context.Context, senderID, receiverID string) (int, error) {
	count := 0
	for _, m := range f.msgs {
		if m.SenderID == senderID && m.ReceiverID == receiverID && !m.Read {
			m.Read = true
			at := f.clock
			m.ReadAt = &at
			count++
		}
	}
	return count, nil
}

func (f *fakeMessageRepo) CountUnread(_ context.Context, userID string) (*domain.UnreadSummary, error) {
	summary := &domain.UnreadSummary{UnreadBySender: make(map[string]int)}
	for _, m := range f.msgs {
		if m.ReceiverID == userID && !m.Read {
			summary.UnreadBySender[m.SenderID]++
			summary.TotalUnread++
		}
	}
	return summary, nil
}

var _ domain.MessageRepository = (*fakeMessageRepo)(nil)

func at(sec int) time.Time {
	return time.Date(2024, 6, 1, 0, 0, sec, 0, time.UTC)
}

func TestSend(t *testing.T) {
	ctx := context.Background()

	t.Run("Valid", func(t *testing.T) {
		repo := newFakeMessageRepo()
		svc := service.NewMessageService(repo, 0)

		msg, err := svc.Send(ctx, service.SendMessageInput{
			SenderID:   "bob",
			ReceiverID: "alice",
			Message:    "hello",
			SenderName: "Bob",
			SenderRole: domain.RoleEmployee,
		})
		require.NoError(t, err)
		assert.NotEmpty(t, msg.ID)
		assert.False(t, msg.Timestamp.IsZero())
		assert.False(t, msg.Read)
		assert.Equal(t, "alice_bob", msg.ConversationID)
		assert.Equal(t, []string{"alice", "bob"}, msg.Participants)
	})

	t.Run("ValidationFailure", func(t *testing.T) {
		repo := newFakeMessageRepo()
		svc := service.NewMessageService(repo, 0)

		cases := []service.SendMessageInput{
			{ReceiverID: "alice", Message: "hi"},
			{SenderID: "bob", Message: "hi"},
			{SenderID: "bob", ReceiverID: "alice"},
		}
		for _, in := range cases {
			_, err := svc.Send(ctx, in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		}
		assert.Empty(t, repo.msgs, "nothing may be persisted on validation failure")
	})

	t.Run("StoreFailure", func(t *testing.T) {
		repo := newFakeMessageRepo()
		repo.failCreate = true
		svc := service.NewMessageService(repo, 0)

		_, err := svc.Send(ctx, service.SendMessageInput{
			SenderID: "bob", ReceiverID: "alice", Message: "hi",
		})
		assert.Error(t, err)
	})

	t.Run("BackToBackBothPersisted", func(t *testing.T) {
		repo := newFakeMessageRepo()
		svc := service.NewMessageService(repo, 0)

		m1, err := svc.Send(ctx, service.SendMessageInput{SenderID: "a", ReceiverID: "b", Message: "one"})
		require.NoError(t, err)
		m2, err := svc.Send(ctx, service.SendMessageInput{SenderID: "a", ReceiverID: "b", Message: "two"})
		require.NoError(t, err)

		assert.Len(t, repo.msgs, 2)
		assert.NotEqual(t, m1.ID, m2.ID)
		assert.False(t, m2.Timestamp.Before(m1.Timestamp))
	})
}

func TestHistory(t *testing.T) {
	ctx := context.Background()

	t.Run("OldestFirstTruncation", func(t *testing.T) {
		repo := newFakeMessageRepo()
		for i := 1; i <= 3; i++ {
			repo.add(domain.Message{
				SenderID: "a", ReceiverID: "b",
				Message:        fmt.Sprintf("msg %d", i),
				ConversationID: domain.ConversationID("a", "b"),
				Timestamp:      at(i),
			})
		}
		svc := service.NewMessageService(repo, 0)

		msgs, err := svc.History(ctx, "a", "b", 2)
		require.NoError(t, err)
		require.Len(t, msgs, 2)
		assert.Equal(t, "msg 1", msgs[0].Message)
		assert.Equal(t, "msg 2", msgs[1].Message)
	})

	t.Run("LegacyRecordsMatchEitherDirection", func(t *testing.T) {
		repo := newFakeMessageRepo()
		repo.add(domain.Message{SenderID: "a", ReceiverID: "b", Message: "old a->b", Timestamp: at(1)})
		repo.add(domain.Message{SenderID: "b", ReceiverID: "a", Message: "old b->a", Timestamp: at(2)})
		repo.add(domain.Message{SenderID: "a", ReceiverID: "c", Message: "other", Timestamp: at(3)})
		svc := service.NewMessageService(repo, 0)

		msgs, err := svc.History(ctx, "a", "b", 50)
		require.NoError(t, err)
		require.Len(t, msgs, 2)
		assert.Equal(t, "old a->b", msgs[0].Message)
		assert.Equal(t, "old b->a", msgs[1].Message)
	})

	t.Run("DefaultLimit", func(t *testing.T) {
		repo := newFakeMessageRepo()
		for i := 1; i <= 60; i++ {
			repo.add(domain.Message{
				SenderID: "a", ReceiverID: "b",
				ConversationID: domain.ConversationID("a", "b"),
				Timestamp:      at(i),
			})
		}
		svc := service.NewMessageService(repo, 0)

		msgs, err := svc.History(ctx, "a", "b", 0)
		require.NoError(t, err)
		assert.Len(t, msgs, service.DefaultHistoryLimit)
	})
}

func TestConversations(t *testing.T) {
	ctx := context.Background()

	t.Run("LatestMessagePerPartner", func(t *testing.T) {
		repo := newFakeMessageRepo()
		repo.add(domain.Message{
			SenderID: "alice", ReceiverID: "bob", SenderName: "Alice",
			Message: "first", Timestamp: at(1),
			ConversationID: domain.ConversationID("alice", "bob"),
		})
		repo.add(domain.Message{
			SenderID: "bob", ReceiverID: "alice", SenderName: "Bob",
			Message: "reply", Timestamp: at(2),
			ConversationID: domain.ConversationID("alice", "bob"),
		})
		svc := service.NewMessageService(repo, 0)

		convs, err := svc.Conversations(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, convs, 1)
		c := convs[0]
		assert.Equal(t, "bob", c.PartnerID)
		assert.Equal(t, "Bob", c.PartnerName)
		assert.False(t, c.IsMeSend)
		assert.Equal(t, "reply", c.LastMessage)
		assert.Equal(t, at(2), c.Timestamp)
	})

	t.Run("EqualTimestampKeepsFirstEncountered", func(t *testing.T) {
		repo := newFakeMessageRepo()
		repo.add(domain.Message{
			SenderID: "alice", ReceiverID: "bob", Message: "kept", Timestamp: at(5),
			ConversationID: domain.ConversationID("alice", "bob"),
		})
		repo.add(domain.Message{
			SenderID: "bob", ReceiverID: "alice", Message: "ignored", Timestamp: at(5),
			ConversationID: domain.ConversationID("alice", "bob"),
		})
		svc := service.NewMessageService(repo, 0)

		convs, err := svc.Conversations(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, convs, 1)
		assert.Equal(t, "kept", convs[0].LastMessage)
		assert.True(t, convs[0].IsMeSend)
	})

	t.Run("SortedByRecency", func(t *testing.T) {
		repo := newFakeMessageRepo()
		repo.add(domain.Message{
			SenderID: "u", ReceiverID: "old", Message: "stale", Timestamp: at(1),
			ConversationID: domain.ConversationID("u", "old"),
		})
		repo.add(domain.Message{
			SenderID: "fresh", ReceiverID: "u", SenderName: "Fresh", Message: "new", Timestamp: at(9),
			ConversationID: domain.ConversationID("u", "fresh"),
		})
		svc := service.NewMessageService(repo, 0)

		convs, err := svc.Conversations(ctx, "u")
		require.NoError(t, err)
		require.Len(t, convs, 2)
		assert.Equal(t, "fresh", convs[0].PartnerID)
		assert.Equal(t, "old", convs[1].PartnerID)
	})

	t.Run("PartnerNameEmptyWhenViewerSentLatest", func(t *testing.T) {
		repo := newFakeMessageRepo()
		repo.add(domain.Message{
			SenderID: "alice", ReceiverID: "bob", SenderName: "Alice",
			Message: "ping", Timestamp: at(3),
			ConversationID: domain.ConversationID("alice", "bob"),
		})
		svc := service.NewMessageService(repo, 0)

		convs, err := svc.Conversations(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, convs, 1)
		assert.True(t, convs[0].IsMeSend)
		assert.Empty(t, convs[0].PartnerName)
	})
}

func TestUnread(t *testing.T) {
	ctx := context.Background()
	repo := newFakeMessageRepo()
	for i := 0; i < 3; i++ {
		repo.add(domain.Message{SenderID: "s1", ReceiverID: "u", Timestamp: at(i)})
	}
	for i := 0; i < 2; i++ {
		repo.add(domain.Message{SenderID: "s2", ReceiverID: "u", Timestamp: at(i)})
	}
	repo.add(domain.Message{SenderID: "s1", ReceiverID: "u", Read: true, Timestamp: at(9)})
	svc := service.NewMessageService(repo, 0)

	summary, err := svc.Unread(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, 5, summary.TotalUnread)
	assert.Equal(t, map[string]int{"s1": 3, "s2": 2}, summary.UnreadBySender)
}

func TestMarkRead(t *testing.T) {
	ctx := context.Background()
	repo := newFakeMessageRepo()
	repo.add(domain.Message{SenderID: "s", ReceiverID: "r", Timestamp: at(1)})
	repo.add(domain.Message{SenderID: "s", ReceiverID: "r", Timestamp: at(2)})
	repo.add(domain.Message{SenderID: "r", ReceiverID: "s", Timestamp: at(3)})
	svc := service.NewMessageService(repo, 0)

	count, err := svc.MarkRead(ctx, "s", "r")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// Second call is idempotent: nothing left to transition.
	count, err = svc.MarkRead(ctx, "s", "r")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	for _, m := range repo.msgs[:2] {
		assert.True(t, m.Read)
		assert.NotNil(t, m.ReadAt)
	}
	assert.False(t, repo.msgs[2].Read, "opposite direction untouched")
}
