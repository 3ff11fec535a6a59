package bot

import (
	"context"
	"time"
)

// Incoming is a transport-neutral inbound message.
type Incoming struct {
	ChatID    int64
	MessageID int
	Text      string
	Command   string
	FirstName string
	Username  string
	Contact   *Contact
	// PhotoFileID references the highest-resolution variant of an attached photo.
	PhotoFileID string
	Document    *Document
}

type Contact struct {
	PhoneNumber string
}

type Document struct {
	FileID   string
	MimeType string
	FileName string
}

// Profile holds one user per chat, created on first /start.
type Profile struct {
	ChatID      int64
	FirstName   string
	Username    string
	PhoneNumber *string
	CreatedAt   time.Time
}

// SentimentRecord is one classified message. Records are immutable once
// written.
type SentimentRecord struct {
	ChatID    int64
	Message   string
	Sentiment string
	CreatedAt time.Time
}

// Outbound sends replies over the chat transport. SendText returns the id of
// the sent message so placeholders can be deleted later.
type Outbound interface {
	SendText(ctx context.Context, chatID int64, text string) (int, error)
	SendMenu(ctx context.Context, chatID int64, text string) error
	SendContactRequest(ctx context.Context, chatID int64, text string) error
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
}

// FileFetcher downloads attachment payloads by file reference.
type FileFetcher interface {
	Download(ctx context.Context, fileID string) ([]byte, error)
}

// ProfileRepo — persistence for user profiles. Find returns (nil, nil) when
// no profile exists.
type ProfileRepo interface {
	Find(ctx context.Context, chatID int64) (*Profile, error)
	Create(ctx context.Context, p *Profile) error
	SetPhoneNumber(ctx context.Context, chatID int64, phone string) error
}

// SentimentRepo — append-only sentiment log, queryable by recency.
type SentimentRepo interface {
	Insert(ctx context.Context, rec *SentimentRecord) error
	Recent(ctx context.Context, chatID int64, limit int) ([]SentimentRecord, error)
}
