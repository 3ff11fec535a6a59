package bot

import (
	"context"
	"database/sql"
)

// EnsureSchema creates the tables on first run. A failure here is fatal for
// the caller: the process must not serve without its stores.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			chat_id      BIGINT PRIMARY KEY,
			first_name   TEXT NOT NULL DEFAULT '',
			username     TEXT NOT NULL DEFAULT '',
			phone_number TEXT,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
		);

		CREATE TABLE IF NOT EXISTS sentiments (
			id         BIGSERIAL PRIMARY KEY,
			chat_id    BIGINT NOT NULL,
			message    TEXT NOT NULL,
			sentiment  TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);

		CREATE INDEX IF NOT EXISTS sentiments_chat_recency
			ON sentiments (chat_id, created_at DESC);
	`)
	return err
}

type profileRepo struct {
	db *sql.DB
}

func NewProfileRepo(db *sql.DB) ProfileRepo {
	return &profileRepo{db: db}
}

func (r *profileRepo) Find(ctx context.Context, chatID int64) (*Profile, error) {
	var p Profile
	err := r.db.QueryRowContext(ctx, `
		SELECT chat_id, first_name, username, phone_number, created_at
		FROM users
		WHERE chat_id = $1
	`, chatID).Scan(&p.ChatID, &p.FirstName, &p.Username, &p.PhoneNumber, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *profileRepo) Create(ctx context.Context, p *Profile) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (chat_id, first_name, username, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (chat_id) DO NOTHING
	`,
		p.ChatID,
		p.FirstName,
		p.Username,
		p.CreatedAt,
	)
	return err
}

// SetPhoneNumber is a no-op when no profile row exists.
func (r *profileRepo) SetPhoneNumber(ctx context.Context, chatID int64, phone string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET phone_number = $2 WHERE chat_id = $1
	`, chatID, phone)
	return err
}

type sentimentRepo struct {
	db *sql.DB
}

func NewSentimentRepo(db *sql.DB) SentimentRepo {
	return &sentimentRepo{db: db}
}

func (r *sentimentRepo) Insert(ctx context.Context, rec *SentimentRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sentiments (chat_id, message, sentiment, created_at)
		VALUES ($1, $2, $3, $4)
	`,
		rec.ChatID,
		rec.Message,
		rec.Sentiment,
		rec.CreatedAt,
	)
	return err
}

func (r *sentimentRepo) Recent(ctx context.Context, chatID int64, limit int) ([]SentimentRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT chat_id, message, sentiment, created_at
		FROM sentiments
		WHERE chat_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, chatID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SentimentRecord
	for rows.Next() {
		var rec SentimentRecord
		if err := rows.Scan(&rec.ChatID, &rec.Message, &rec.Sentiment, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}

	return out, rows.Err()
}
