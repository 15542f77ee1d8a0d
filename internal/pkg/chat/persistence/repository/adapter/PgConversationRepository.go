package adapter

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pkgerrors "github.com/pkg/errors"

	chat "github.com/poke-max/jomach-sub000/internal/pkg/chat/application/domain"
	appErrors "github.com/poke-max/jomach-sub000/pkg/errors"
)

// PgConversationRepository persists conversations and messages in Postgres.
// Every mutation that touches the denormalized summary runs inside one
// transaction so readers never see the log and the summary out of step.
type PgConversationRepository struct {
	pool *pgxpool.Pool
}

func NewPgConversationRepository(pool *pgxpool.Pool) *PgConversationRepository {
	return &PgConversationRepository{pool: pool}
}

func (r *PgConversationRepository) GetOrCreateConversation(ctx context.Context, userA, userB string) (chat.Conversation, error) {
	pair := chat.PairKey(userA, userB)
	id := chat.ConversationID(userA, userB)

	_, err := r.pool.Exec(ctx, `
		INSERT INTO chat.conversation (id, user_a, user_b, created_at, updated_at)
		VALUES ($1::uuid, $2, $3, now(), now())
		ON CONFLICT (id) DO NOTHING
	`, id, pair[0], pair[1])
	if err != nil {
		return chat.Conversation{}, pkgerrors.Wrap(err, "conversationRepo.GetOrCreateConversation.Insert")
	}
	return r.GetConversation(ctx, id)
}

func (r *PgConversationRepository) GetConversation(ctx context.Context, conversationID string) (chat.Conversation, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id::text, user_a, user_b, last_message, last_message_at, created_at, updated_at
		FROM chat.conversation
		WHERE id = $1::uuid
	`, conversationID)
	c, err := scanConversation(row)
	if err != nil {
		if pkgerrors.Is(err, pgx.ErrNoRows) {
			return chat.Conversation{}, appErrors.ErrConversationNotFound
		}
		return chat.Conversation{}, pkgerrors.Wrap(err, "conversationRepo.GetConversation.Scan")
	}
	return c, nil
}

func (r *PgConversationRepository) ListConversationsByUser(ctx context.Context, userID string) ([]chat.Conversation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, user_a, user_b, last_message, last_message_at, created_at, updated_at
		FROM chat.conversation
		WHERE user_a = $1 OR user_b = $1
		ORDER BY updated_at DESC
	`, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "conversationRepo.ListConversationsByUser.Query")
	}
	defer rows.Close()

	var convs []chat.Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, pkgerrors.Wrap(err, "conversationRepo.ListConversationsByUser.Scan")
		}
		convs = append(convs, c)
	}
	if rows.Err() != nil {
		return nil, pkgerrors.Wrap(rows.Err(), "conversationRepo.ListConversationsByUser.Rows")
	}
	return convs, nil
}

func (r *PgConversationRepository) DeleteConversation(ctx context.Context, conversationID string) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM chat.message WHERE conversation_id = $1::uuid`, conversationID); err != nil {
			return pkgerrors.Wrap(err, "conversationRepo.DeleteConversation.Messages")
		}
		ct, err := tx.Exec(ctx,
			`DELETE FROM chat.conversation WHERE id = $1::uuid`, conversationID)
		if err != nil {
			return pkgerrors.Wrap(err, "conversationRepo.DeleteConversation.Conversation")
		}
		if ct.RowsAffected() == 0 {
			return appErrors.ErrConversationNotFound
		}
		return nil
	})
}

func (r *PgConversationRepository) SaveMessage(ctx context.Context, m chat.Message) (chat.Message, error) {
	meta, err := encodeAttachment(m.Metadata)
	if err != nil {
		return chat.Message{}, pkgerrors.Wrap(err, "conversationRepo.SaveMessage.Meta")
	}

	err = r.inTx(ctx, func(tx pgx.Tx) error {
		// clock_timestamp() keeps ordering strict even inside one transaction
		err := tx.QueryRow(ctx, `
			INSERT INTO chat.message (conversation_id, sender_id, content, msg_type, metadata, sent_at, read_by)
			VALUES ($1::uuid, $2, $3, $4, $5, clock_timestamp(), $6)
			RETURNING id::text, sent_at
		`, m.ConversationID, m.SenderID, m.Content, m.MsgType, meta, m.ReadBy).Scan(&m.ID, &m.SentAt)
		if err != nil {
			return pkgerrors.Wrap(err, "conversationRepo.SaveMessage.Insert")
		}

		summary := m.Summary()
		ct, err := tx.Exec(ctx, `
			UPDATE chat.conversation
			SET last_message = $2, last_message_at = $3, updated_at = $3
			WHERE id = $1::uuid
		`, m.ConversationID, summary, m.SentAt)
		if err != nil {
			return pkgerrors.Wrap(err, "conversationRepo.SaveMessage.Summary")
		}
		if ct.RowsAffected() == 0 {
			return appErrors.ErrConversationNotFound
		}
		return nil
	})
	if err != nil {
		return chat.Message{}, err
	}
	return m, nil
}

func (r *PgConversationRepository) GetMessage(ctx context.Context, conversationID, messageID string) (chat.Message, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id::text, conversation_id::text, sender_id, content, msg_type, metadata, sent_at, read_by, is_edited, edited_at
		FROM chat.message
		WHERE conversation_id = $1::uuid AND id = $2::uuid
	`, conversationID, messageID)
	m, err := scanMessage(row)
	if err != nil {
		if pkgerrors.Is(err, pgx.ErrNoRows) {
			return chat.Message{}, appErrors.ErrMessageNotFound
		}
		return chat.Message{}, pkgerrors.Wrap(err, "conversationRepo.GetMessage.Scan")
	}
	return m, nil
}

func (r *PgConversationRepository) GetMessagesByConversation(ctx context.Context, conversationID string) ([]chat.Message, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, conversation_id::text, sender_id, content, msg_type, metadata, sent_at, read_by, is_edited, edited_at
		FROM chat.message
		WHERE conversation_id = $1::uuid
		ORDER BY sent_at ASC
	`, conversationID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "conversationRepo.GetMessagesByConversation.Query")
	}
	defer rows.Close()

	var msgs []chat.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, pkgerrors.Wrap(err, "conversationRepo.GetMessagesByConversation.Scan")
		}
		msgs = append(msgs, m)
	}
	if rows.Err() != nil {
		return nil, pkgerrors.Wrap(rows.Err(), "conversationRepo.GetMessagesByConversation.Rows")
	}
	return msgs, nil
}

func (r *PgConversationRepository) UpdateMessageContent(ctx context.Context, conversationID, messageID, content string, editedAt time.Time) (chat.Message, error) {
	var updated chat.Message
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			UPDATE chat.message
			SET content = $3, is_edited = true, edited_at = $4
			WHERE conversation_id = $1::uuid AND id = $2::uuid
			RETURNING id::text, conversation_id::text, sender_id, content, msg_type, metadata, sent_at, read_by, is_edited, edited_at
		`, conversationID, messageID, content, editedAt)
		m, err := scanMessage(row)
		if err != nil {
			if pkgerrors.Is(err, pgx.ErrNoRows) {
				return appErrors.ErrMessageNotFound
			}
			return pkgerrors.Wrap(err, "conversationRepo.UpdateMessageContent.Scan")
		}
		updated = m
		return r.repairSummaryTx(ctx, tx, conversationID, editedAt)
	})
	if err != nil {
		return chat.Message{}, err
	}
	return updated, nil
}

func (r *PgConversationRepository) DeleteMessage(ctx context.Context, conversationID, messageID string) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx, `
			DELETE FROM chat.message
			WHERE conversation_id = $1::uuid AND id = $2::uuid
		`, conversationID, messageID)
		if err != nil {
			return pkgerrors.Wrap(err, "conversationRepo.DeleteMessage.Exec")
		}
		if ct.RowsAffected() == 0 {
			return appErrors.ErrMessageNotFound
		}
		return r.repairSummaryTx(ctx, tx, conversationID, time.Now().UTC())
	})
}

func (r *PgConversationRepository) MarkConversationRead(ctx context.Context, conversationID, userID string) (int, error) {
	ct, err := r.pool.Exec(ctx, `
		UPDATE chat.message
		SET read_by = read_by || ARRAY[$2]
		WHERE conversation_id = $1::uuid
		  AND sender_id <> $2
		  AND NOT (read_by @> ARRAY[$2])
	`, conversationID, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(err, "conversationRepo.MarkConversationRead.Exec")
	}
	return int(ct.RowsAffected()), nil
}

// repairSummaryTx re-derives the denormalized summary from the current tail of
// the message log, inside the caller's transaction.
func (r *PgConversationRepository) repairSummaryTx(ctx context.Context, tx pgx.Tx, conversationID string, at time.Time) error {
	row := tx.QueryRow(ctx, `
		SELECT content, msg_type, metadata, sent_at
		FROM chat.message
		WHERE conversation_id = $1::uuid
		ORDER BY sent_at DESC
		LIMIT 1
	`, conversationID)

	var (
		tail chat.Message
		meta []byte
	)
	err := row.Scan(&tail.Content, &tail.MsgType, &meta, &tail.SentAt)
	switch {
	case pkgerrors.Is(err, pgx.ErrNoRows):
		_, err = tx.Exec(ctx, `
			UPDATE chat.conversation
			SET last_message = NULL, last_message_at = NULL, updated_at = $2
			WHERE id = $1::uuid
		`, conversationID, at)
		return pkgerrors.Wrap(err, "conversationRepo.repairSummary.Clear")
	case err != nil:
		return pkgerrors.Wrap(err, "conversationRepo.repairSummary.Scan")
	}

	if tail.Metadata, err = decodeAttachment(meta); err != nil {
		return pkgerrors.Wrap(err, "conversationRepo.repairSummary.Meta")
	}
	_, err = tx.Exec(ctx, `
		UPDATE chat.conversation
		SET last_message = $2, last_message_at = $3, updated_at = $4
		WHERE id = $1::uuid
	`, conversationID, tail.Summary(), tail.SentAt, at)
	return pkgerrors.Wrap(err, "conversationRepo.repairSummary.Update")
}

func (r *PgConversationRepository) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return pkgerrors.Wrap(err, "conversationRepo.Begin")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	return pkgerrors.Wrap(tx.Commit(ctx), "conversationRepo.Commit")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row rowScanner) (chat.Conversation, error) {
	var c chat.Conversation
	err := row.Scan(&c.ID, &c.Participants[0], &c.Participants[1], &c.LastMessage, &c.LastMessageAt, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func scanMessage(row rowScanner) (chat.Message, error) {
	var (
		m    chat.Message
		meta []byte
	)
	err := row.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &m.MsgType, &meta, &m.SentAt, &m.ReadBy, &m.IsEdited, &m.EditedAt)
	if err != nil {
		return chat.Message{}, err
	}
	if m.Metadata, err = decodeAttachment(meta); err != nil {
		return chat.Message{}, err
	}
	return m, nil
}

func encodeAttachment(a *chat.Attachment) ([]byte, error) {
	if a == nil {
		return nil, nil
	}
	return json.Marshal(a)
}

func decodeAttachment(raw []byte) (*chat.Attachment, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var a chat.Attachment
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, err
	}
	return &a, nil
}
