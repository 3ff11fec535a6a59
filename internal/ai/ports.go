package ai

import "context"

// AI is the inference gateway. It knows nothing about Telegram or the DB.
type AI interface {
	GetReply(ctx context.Context, prompt string) (string, error)
	DescribeImage(ctx context.Context, prompt string, image []byte) (string, error)
}
