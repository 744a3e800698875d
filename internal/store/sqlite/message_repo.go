package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"taskhub/internal/domain"
)

type MessageRepo struct {
	db *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

var _ domain.MessageRepository = (*MessageRepo)(nil)

const messageColumns = `id, sender_id, receiver_id, message, sender_name, sender_role, timestamp, read, read_at, conversation_id, participant_a, participant_b`

func (r *MessageRepo) Create(ctx context.Context, m *domain.Message) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.Timestamp = time.Now().UTC()
	pair := domain.SortedPair(m.SenderID, m.ReceiverID)
	m.Participants = pair

	query := `
		INSERT INTO messages (` + messageColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		m.ID,
		m.SenderID,
		m.ReceiverID,
		m.Message,
		m.SenderName,
		m.SenderRole,
		m.Timestamp,
		m.Read,
		m.ReadAt,
		m.ConversationID,
		pair[0],
		pair[1],
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (r *MessageRepo) GetByID(ctx context.Context, id string) (*domain.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = ?`
	m, err := scanMessage(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}
	return m, nil
}

func (r *MessageRepo) ListConversation(ctx context.Context, userA, userB string, limit int) ([]*domain.Message, error) {
	convID := domain.ConversationID(userA, userB)
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE conversation_id = ?
		   OR (conversation_id = '' AND (
		        (sender_id = ? AND receiver_id = ?) OR
		        (sender_id = ? AND receiver_id = ?)))
		ORDER BY timestamp ASC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, convID, userA, userB, userB, userA, limit)
	if err != nil {
		return nil, fmt.Errorf("list conversation: %w", err)
	}
	defer rows.Close()
	return collectMessages(rows)
}

func (r *MessageRepo) ListForParticipant(ctx context.Context, userID string) ([]*domain.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE participant_a = ? OR participant_b = ?
		ORDER BY rowid ASC
	`
	rows, err := r.db.QueryContext(ctx, query, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("list for participant: %w", err)
	}
	defer rows.Close()
	return collectMessages(rows)
}

func (r *MessageRepo) MarkConversationRead(ctx context.Context, senderID, receiverID string) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin mark read: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE messages
		SET read = 1, read_at = ?
		WHERE sender_id = ? AND receiver_id = ? AND read = 0
	`, time.Now().UTC(), senderID, receiverID)
	if err != nil {
		return 0, fmt.Errorf("mark read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark read rows: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit mark read: %w", err)
	}
	return int(n), nil
}

func (r *MessageRepo) CountUnread(ctx context.Context, userID string) (*domain.UnreadSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT sender_id, COUNT(*)
		FROM messages
		WHERE receiver_id = ? AND read = 0
		GROUP BY sender_id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("count unread: %w", err)
	}
	defer rows.Close()

	summary := &domain.UnreadSummary{UnreadBySender: make(map[string]int)}
	for rows.Next() {
		var sender string
		var n int
		if err := rows.Scan(&sender, &n); err != nil {
			return nil, fmt.Errorf("scan unread: %w", err)
		}
		summary.UnreadBySender[sender] = n
		summary.TotalUnread += n
	}
	return summary, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (*domain.Message, error) {
	m := &domain.Message{}
	var readAt sql.NullTime
	var pa, pb string
	if err := row.Scan(
		&m.ID,
		&m.SenderID,
		&m.ReceiverID,
		&m.Message,
		&m.SenderName,
		&m.SenderRole,
		&m.Timestamp,
		&m.Read,
		&readAt,
		&m.ConversationID,
		&pa,
		&pb,
	); err != nil {
		return nil, err
	}
	if readAt.Valid {
		t := readAt.Time
		m.ReadAt = &t
	}
	m.Participants = []string{pa, pb}
	return m, nil
}

func collectMessages(rows *sql.Rows) ([]*domain.Message, error) {
	res := []*domain.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		res = append(res, m)
	}
	return res, rows.Err()
}
