package practice

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

//go:embed schema.sql
var schemaSQL string

// PostgresStore is a PostgreSQL-backed Store.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store on pool. Call EnsureSchema before first use.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

// EnsureSchema creates the practice tables when they do not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure practice schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateSession(ctx context.Context, sess Session) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if sess.TopicID == "" {
		return "", fmt.Errorf("topic_id is required")
	}

	startedAt := sess.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now()
	}

	var id string
	err := s.pool.QueryRow(ctx,
		`INSERT INTO practice_sessions (
		   topic_id, level, conversation_topic, conversation_party, section, custom_option,
		   subtopic_id, subtopic_name, subtopic_description, voice, realtime_session_id, started_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING id::text`,
		sess.TopicID,
		nullIfEmpty(sess.Level),
		nullIfEmpty(sess.ConversationTopic),
		nullIfEmpty(sess.ConversationParty),
		nullIfEmpty(sess.Section),
		nullIfEmpty(sess.CustomOption),
		nullIfEmpty(sess.SubtopicID),
		nullIfEmpty(sess.SubtopicName),
		nullIfEmpty(sess.SubtopicDescription),
		nullIfEmpty(sess.Voice),
		nullIfEmpty(sess.RealtimeSessionID),
		startedAt,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("create practice session: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) GetSession(ctx context.Context, id string) (*Session, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	uid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	sess := &Session{}
	var level, topic, party, section, option, subID, subName, subDesc, voice, realtimeID *string
	err = s.pool.QueryRow(ctx,
		`SELECT id::text, topic_id, level, conversation_topic, conversation_party, section,
		        custom_option, subtopic_id, subtopic_name, subtopic_description, voice,
		        realtime_session_id, started_at, ended_at
		 FROM practice_sessions
		 WHERE id = $1`,
		uid,
	).Scan(
		&sess.ID,
		&sess.TopicID,
		&level,
		&topic,
		&party,
		&section,
		&option,
		&subID,
		&subName,
		&subDesc,
		&voice,
		&realtimeID,
		&sess.StartedAt,
		&sess.EndedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("get practice session: %w", err)
	}

	sess.Level = deref(level)
	sess.ConversationTopic = deref(topic)
	sess.ConversationParty = deref(party)
	sess.Section = deref(section)
	sess.CustomOption = deref(option)
	sess.SubtopicID = deref(subID)
	sess.SubtopicName = deref(subName)
	sess.SubtopicDescription = deref(subDesc)
	sess.Voice = deref(voice)
	sess.RealtimeSessionID = deref(realtimeID)
	return sess, nil
}

func (s *PostgresStore) AttachRealtime(ctx context.Context, id, realtimeSessionID, voice string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	uid, err := parseID(id)
	if err != nil {
		return err
	}
	cmd, err := s.pool.Exec(ctx,
		`UPDATE practice_sessions
		 SET realtime_session_id = $2, voice = $3
		 WHERE id = $1`,
		uid,
		nullIfEmpty(realtimeSessionID),
		nullIfEmpty(voice),
	)
	if err != nil {
		return fmt.Errorf("attach realtime session: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (s *PostgresStore) AppendMessages(ctx context.Context, id string, msgs []Message) ([]Message, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if err := validateMessages(msgs); err != nil {
		return nil, err
	}
	uid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	// Locking the session row serialises concurrent appends so seq stays dense.
	var exists int
	if err := tx.QueryRow(ctx, `SELECT 1 FROM practice_sessions WHERE id = $1 FOR UPDATE`, uid).Scan(&exists); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("lock practice session: %w", err)
	}

	var last int
	if err := tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM practice_messages WHERE session_id = $1`, uid,
	).Scan(&last); err != nil {
		return nil, fmt.Errorf("read last seq: %w", err)
	}

	now := time.Now()
	out := make([]Message, len(msgs))
	batch := &pgx.Batch{}
	for i, m := range msgs {
		m.Seq = last + i + 1
		if m.CreatedAt.IsZero() {
			m.CreatedAt = now
		}
		out[i] = m
		batch.Queue(
			`INSERT INTO practice_messages (session_id, seq, type, payload, created_at)
			 VALUES ($1, $2, $3, $4::json, $5)`,
			uid, m.Seq, m.Type, string(m.Raw), m.CreatedAt,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return nil, fmt.Errorf("insert messages: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) ListMessages(ctx context.Context, id string) ([]Message, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	uid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var exists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM practice_sessions WHERE id = $1)`, uid,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check practice session: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT seq, type, payload::text, created_at
		 FROM practice_messages
		 WHERE session_id = $1
		 ORDER BY seq ASC`,
		uid,
	)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	msgs := []Message{}
	for rows.Next() {
		var m Message
		var payload string
		if err := rows.Scan(&m.Seq, &m.Type, &payload, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Raw = []byte(payload)
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return msgs, nil
}

func (s *PostgresStore) EndSession(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	uid, err := parseID(id)
	if err != nil {
		return err
	}
	cmd, err := s.pool.Exec(ctx,
		`UPDATE practice_sessions
		 SET ended_at = COALESCE(ended_at, NOW())
		 WHERE id = $1`,
		uid,
	)
	if err != nil {
		return fmt.Errorf("end practice session: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// parseID rejects ids that cannot name a row, so they read as not found rather than as
// a database error.
func parseID(id string) (pgtype.UUID, error) {
	var u pgtype.UUID
	if err := u.Scan(id); err != nil {
		return u, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return u, nil
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func nullIfEmpty(v string) any {
	if v == "" {
		return nil
	}
	return v
}
