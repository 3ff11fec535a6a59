package bot

import (
	"context"
	"io"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramOutbound adapts the Telegram Bot API to the Outbound and
// FileFetcher ports.
type TelegramOutbound struct {
	api    *tgbotapi.BotAPI
	client *http.Client
}

func NewTelegramOutbound(api *tgbotapi.BotAPI) *TelegramOutbound {
	return &TelegramOutbound{
		api:    api,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (t *TelegramOutbound) SendText(_ context.Context, chatID int64, text string) (int, error) {
	sent, err := t.api.Send(tgbotapi.NewMessage(chatID, text))
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

func (t *TelegramOutbound) SendMenu(_ context.Context, chatID int64, text string) error {
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(LabelImageAnalysis),
			tgbotapi.NewKeyboardButton(LabelWebSearch),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(LabelSentimentReport),
			tgbotapi.NewKeyboardButton(LabelProfile),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(LabelChat),
			tgbotapi.NewKeyboardButton(LabelStop),
		),
	)
	keyboard.ResizeKeyboard = true

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboard
	_, err := t.api.Send(msg)
	return err
}

func (t *TelegramOutbound) SendContactRequest(_ context.Context, chatID int64, text string) error {
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButtonContact("📱 Share Phone Number"),
		),
	)
	keyboard.ResizeKeyboard = true
	keyboard.OneTimeKeyboard = true

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboard
	_, err := t.api.Send(msg)
	return err
}

func (t *TelegramOutbound) DeleteMessage(_ context.Context, chatID int64, messageID int) error {
	_, err := t.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID))
	return err
}

func (t *TelegramOutbound) Download(ctx context.Context, fileID string) ([]byte, error) {
	url, err := t.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

// FromUpdate converts a Telegram update into the transport-neutral shape the
// dispatcher works with. Returns nil for updates that carry no message.
func FromUpdate(update tgbotapi.Update) *Incoming {
	m := update.Message
	if m == nil {
		return nil
	}

	in := &Incoming{
		ChatID:    m.Chat.ID,
		MessageID: m.MessageID,
		Text:      m.Text,
		Command:   m.Command(),
	}

	if m.From != nil {
		in.FirstName = m.From.FirstName
		in.Username = m.From.UserName
	}
	if m.Contact != nil {
		in.Contact = &Contact{PhoneNumber: m.Contact.PhoneNumber}
	}
	if len(m.Photo) > 0 {
		// Telegram lists photo sizes ascending; the last one is the largest.
		in.PhotoFileID = m.Photo[len(m.Photo)-1].FileID
	}
	if m.Document != nil {
		in.Document = &Document{
			FileID:   m.Document.FileID,
			MimeType: m.Document.MimeType,
			FileName: m.Document.FileName,
		}
	}

	return in
}
