package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/meetbasket/models"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrMessageNotFound      = errors.New("message not found")
)

type MessageRepository interface {
	GetOrCreateConversation(ctx context.Context, userA, userB int) (*models.Conversation, error)
	GetConversation(ctx context.Context, id int) (*models.Conversation, error)
	ListConversations(ctx context.Context, userID int) ([]models.Conversation, error)
	ListMessages(ctx context.Context, conversationID int) ([]models.Message, error)
	MarkRead(ctx context.Context, conversationID, readerID int) (int64, error)
	CreateMessage(ctx context.Context, exec SQLExecutor, m *models.Message) error
	GetMessage(ctx context.Context, id int) (*models.Message, error)
	DeleteMessage(ctx context.Context, id int) error
	CountUnread(ctx context.Context, userID int) (int, error)
}

type postgresMessageRepository struct {
	db *sql.DB
}

func NewPostgresMessageRepository(db *sql.DB) MessageRepository {
	return &postgresMessageRepository{db: db}
}

// GetOrCreateConversation returns the single conversation of the unordered pair,
// creating it on first contact.
func (r *postgresMessageRepository) GetOrCreateConversation(ctx context.Context, userA, userB int) (*models.Conversation, error) {
	one, two := userA, userB
	if one > two {
		one, two = two, one
	}
	query := `
		INSERT INTO conversations (user_one_id, user_two_id)
		VALUES ($1, $2)
		ON CONFLICT ON CONSTRAINT conversations_pair_key DO UPDATE SET user_one_id = EXCLUDED.user_one_id
		RETURNING id, user_one_id, user_two_id, created_at, updated_at`

	c := &models.Conversation{}
	err := r.db.QueryRowContext(ctx, query, one, two).Scan(&c.ID, &c.UserOneID, &c.UserTwoID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to open conversation: %w", err)
	}
	return c, nil
}

func (r *postgresMessageRepository) GetConversation(ctx context.Context, id int) (*models.Conversation, error) {
	c := &models.Conversation{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_one_id, user_two_id, created_at, updated_at FROM conversations WHERE id = $1`, id,
	).Scan(&c.ID, &c.UserOneID, &c.UserTwoID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("failed to scan conversation %d: %w", id, err)
	}
	return c, nil
}

// ListConversations returns the user's conversations, most recently active
// first, each with partner, last message and unread count.
func (r *postgresMessageRepository) ListConversations(ctx context.Context, userID int) ([]models.Conversation, error) {
	query := `
		SELECT c.id, c.user_one_id, c.user_two_id, c.created_at, c.updated_at,
		       p.id, p.username, p.avatar_key,
		       lm.id, lm.sender_id, lm.content, lm.read_at, lm.created_at,
		       (SELECT COUNT(*) FROM messages um
		         WHERE um.conversation_id = c.id AND um.sender_id <> $1 AND um.read_at IS NULL)
		FROM conversations c
		JOIN users p ON p.id = CASE WHEN c.user_one_id = $1 THEN c.user_two_id ELSE c.user_one_id END
		LEFT JOIN LATERAL (
			SELECT id, sender_id, content, read_at, created_at FROM messages m
			WHERE m.conversation_id = c.id
			ORDER BY m.created_at DESC, m.id DESC LIMIT 1
		) lm ON TRUE
		WHERE c.user_one_id = $1 OR c.user_two_id = $1
		ORDER BY c.updated_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations of user %d: %w", userID, err)
	}
	defer rows.Close()

	out := make([]models.Conversation, 0)
	for rows.Next() {
		var (
			c         models.Conversation
			partner   models.User
			msgID     sql.NullInt64
			msgSender sql.NullInt64
			msgBody   sql.NullString
			msgRead   sql.NullTime
			msgAt     sql.NullTime
		)
		if err := rows.Scan(&c.ID, &c.UserOneID, &c.UserTwoID, &c.CreatedAt, &c.UpdatedAt,
			&partner.ID, &partner.Username, &partner.AvatarKey,
			&msgID, &msgSender, &msgBody, &msgRead, &msgAt,
			&c.UnreadCount); err != nil {
			return nil, fmt.Errorf("failed to scan conversation row: %w", err)
		}
		c.Partner = &partner
		if msgID.Valid {
			m := &models.Message{
				ID:             int(msgID.Int64),
				ConversationID: c.ID,
				SenderID:       int(msgSender.Int64),
				Content:        msgBody.String,
				CreatedAt:      msgAt.Time,
			}
			if msgRead.Valid {
				readAt := msgRead.Time
				m.ReadAt = &readAt
			}
			c.LastMessage = m
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *postgresMessageRepository) ListMessages(ctx context.Context, conversationID int) ([]models.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, conversation_id, sender_id, content, read_at, created_at
		FROM messages WHERE conversation_id = $1
		ORDER BY created_at, id`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages of conversation %d: %w", conversationID, err)
	}
	defer rows.Close()

	out := make([]models.Message, 0)
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &m.ReadAt, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// MarkRead stamps every unread message the reader received in the conversation.
func (r *postgresMessageRepository) MarkRead(ctx context.Context, conversationID, readerID int) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE messages SET read_at = NOW()
		WHERE conversation_id = $1 AND sender_id <> $2 AND read_at IS NULL`, conversationID, readerID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark conversation %d read: %w", conversationID, err)
	}
	return result.RowsAffected()
}

func (r *postgresMessageRepository) CreateMessage(ctx context.Context, exec SQLExecutor, m *models.Message) error {
	ex := executor(r.db, exec)
	err := ex.QueryRowContext(ctx, `
		INSERT INTO messages (conversation_id, sender_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`, m.ConversationID, m.SenderID, m.Content).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrConversationNotFound
		}
		return fmt.Errorf("failed to store message: %w", err)
	}
	if _, err := ex.ExecContext(ctx, `UPDATE conversations SET updated_at = $1 WHERE id = $2`, m.CreatedAt, m.ConversationID); err != nil {
		return fmt.Errorf("failed to touch conversation %d: %w", m.ConversationID, err)
	}
	return nil
}

func (r *postgresMessageRepository) GetMessage(ctx context.Context, id int) (*models.Message, error) {
	m := &models.Message{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, conversation_id, sender_id, content, read_at, created_at FROM messages WHERE id = $1`, id,
	).Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &m.ReadAt, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("failed to scan message %d: %w", id, err)
	}
	return m, nil
}

func (r *postgresMessageRepository) DeleteMessage(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete message %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrMessageNotFound)
}

func (r *postgresMessageRepository) CountUnread(ctx context.Context, userID int) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM messages m
		JOIN conversations c ON c.id = m.conversation_id
		WHERE (c.user_one_id = $1 OR c.user_two_id = $1) AND m.sender_id <> $1 AND m.read_at IS NULL`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages of user %d: %w", userID, err)
	}
	return n, nil
}
