package bot

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"telegram-assistant/internal/ai"
	"telegram-assistant/internal/docs"
	"telegram-assistant/internal/search"
)

// menuAction decouples handler capability from the display label.
type menuAction int

const (
	actionImageAnalysis menuAction = iota
	actionWebSearch
	actionSentimentReport
	actionProfile
	actionChat
	actionStop
)

const (
	LabelImageAnalysis   = "📷 Image Analysis"
	LabelWebSearch       = "🌐 Web Search"
	LabelSentimentReport = "📊 Sentiment Report"
	LabelProfile         = "👤 My Profile"
	LabelChat            = "💬 Chat with AI"
	LabelStop            = "🛑 Stop Bot"
)

var menuActions = map[string]menuAction{
	LabelImageAnalysis:   actionImageAnalysis,
	LabelWebSearch:       actionWebSearch,
	LabelSentimentReport: actionSentimentReport,
	LabelProfile:         actionProfile,
	LabelChat:            actionChat,
	LabelStop:            actionStop,
}

const (
	topResults           = 3
	documentExcerptLimit = 10000
)

// stepFunc is a single-shot continuation for the next message from a chat.
type stepFunc func(ctx context.Context, msg *Incoming) error

type Service struct {
	profiles   ProfileRepo
	sentiments SentimentRepo
	ai         ai.AI
	search     search.Searcher
	extractor  docs.Extractor
	out        Outbound
	files      FileFetcher

	// steps holds at most one pending continuation per chat. Dispatch is
	// single-threaded, so access happens from one goroutine at a time.
	steps map[int64]stepFunc

	done     chan struct{}
	stopOnce sync.Once
}

func NewService(
	profiles ProfileRepo,
	sentiments SentimentRepo,
	aiClient ai.AI,
	searcher search.Searcher,
	extractor docs.Extractor,
	out Outbound,
	files FileFetcher,
) *Service {
	return &Service{
		profiles:   profiles,
		sentiments: sentiments,
		ai:         aiClient,
		search:     searcher,
		extractor:  extractor,
		out:        out,
		files:      files,
		steps:      make(map[int64]stepFunc),
		done:       make(chan struct{}),
	}
}

// Done is closed when a chat asks the bot to stop; the run loop observes it.
func (s *Service) Done() <-chan struct{} {
	return s.done
}

// Dispatch routes one inbound message. A registered pending step wins over
// every other rule and is consumed before it runs. Handler faults are logged
// and answered with a short apology; they never reach the run loop.
func (s *Service) Dispatch(ctx context.Context, msg *Incoming) {
	if step, ok := s.steps[msg.ChatID]; ok {
		delete(s.steps, msg.ChatID)
		s.run(ctx, msg, step)
		return
	}

	switch {
	case msg.Command == "start":
		s.run(ctx, msg, s.handleStart)
	case msg.Contact != nil:
		s.run(ctx, msg, s.handleContact)
	case msg.PhotoFileID != "":
		s.run(ctx, msg, s.handlePhoto)
	case msg.Document != nil:
		s.run(ctx, msg, s.handleDocument)
	default:
		if action, ok := menuActions[msg.Text]; ok {
			s.run(ctx, msg, s.menuHandler(action))
			return
		}
		text := strings.TrimSpace(msg.Text)
		if text != "" && !strings.HasPrefix(text, "/") {
			s.run(ctx, msg, s.analyzeSentiment)
		}
	}
}

func (s *Service) run(ctx context.Context, msg *Incoming, h stepFunc) {
	if err := h(ctx, msg); err != nil {
		log.Printf("[bot] handler error chatId=%d: %v", msg.ChatID, err)
		if _, err := s.out.SendText(ctx, msg.ChatID, "⚠️ Error processing your request"); err != nil {
			log.Printf("[bot] apology send error chatId=%d: %v", msg.ChatID, err)
		}
	}
}

// ------------------------------------------------------------

func (s *Service) handleStart(ctx context.Context, msg *Incoming) error {
	profile, err := s.profiles.Find(ctx, msg.ChatID)
	if err != nil {
		return err
	}

	if profile != nil {
		return s.sendMainMenu(ctx, msg.ChatID)
	}

	if err := s.profiles.Create(ctx, &Profile{
		ChatID:    msg.ChatID,
		FirstName: msg.FirstName,
		Username:  msg.Username,
		CreatedAt: time.Now(),
	}); err != nil {
		return err
	}

	if _, err := s.out.SendText(ctx, msg.ChatID, "👋 Welcome! Please share your phone number to continue."); err != nil {
		return err
	}
	return s.out.SendContactRequest(ctx, msg.ChatID, "🔐 Please share your phone number:")
}

func (s *Service) handleContact(ctx context.Context, msg *Incoming) error {
	if err := s.profiles.SetPhoneNumber(ctx, msg.ChatID, msg.Contact.PhoneNumber); err != nil {
		return err
	}
	if _, err := s.out.SendText(ctx, msg.ChatID, "✅ Phone number saved!"); err != nil {
		return err
	}
	return s.sendMainMenu(ctx, msg.ChatID)
}

func (s *Service) handlePhoto(ctx context.Context, msg *Incoming) error {
	placeholder, err := s.out.SendText(ctx, msg.ChatID, "🖼️ Analyzing image...")
	if err != nil {
		return err
	}
	defer func() {
		if err := s.out.DeleteMessage(ctx, msg.ChatID, placeholder); err != nil {
			log.Printf("[bot] placeholder delete error chatId=%d: %v", msg.ChatID, err)
		}
	}()

	image, err := s.files.Download(ctx, msg.PhotoFileID)
	if err != nil {
		return err
	}

	description, err := s.ai.DescribeImage(ctx, describeImagePrompt, image)
	if err != nil {
		return err
	}

	if _, err := s.out.SendText(ctx, msg.ChatID, "📸 Image Analysis:\n"+description); err != nil {
		return err
	}
	_, err = s.out.SendText(ctx, msg.ChatID, "💡 Ask follow-up questions about the image")
	return err
}

func (s *Service) handleDocument(ctx context.Context, msg *Incoming) error {
	if msg.Document.MimeType != "application/pdf" {
		_, err := s.out.SendText(ctx, msg.ChatID, "⚠️ Please send a PDF file")
		return err
	}

	placeholder, err := s.out.SendText(ctx, msg.ChatID, "📄 Processing PDF...")
	if err != nil {
		return err
	}
	defer func() {
		if err := s.out.DeleteMessage(ctx, msg.ChatID, placeholder); err != nil {
			log.Printf("[bot] placeholder delete error chatId=%d: %v", msg.ChatID, err)
		}
	}()

	data, err := s.files.Download(ctx, msg.Document.FileID)
	if err != nil {
		return err
	}

	// Unique name per upload; two uploads from the same chat must not collide.
	path := filepath.Join(os.TempDir(), "doc-"+uuid.NewString()+".pdf")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	defer func() {
		if err := os.Remove(path); err != nil {
			log.Printf("[bot] temp file remove error: %v", err)
		}
	}()

	text, err := s.extractor.ExtractText(path)
	if err != nil {
		return err
	}
	if text == "" {
		_, err := s.out.SendText(ctx, msg.ChatID, "❌ No text found in PDF")
		return err
	}

	if len(text) > documentExcerptLimit {
		text = text[:documentExcerptLimit]
	}
	analysis, err := s.ai.GetReply(ctx, fmt.Sprintf(documentPrompt, text))
	if err != nil {
		return err
	}

	_, err = s.out.SendText(ctx, msg.ChatID, "📑 PDF Analysis:\n"+analysis)
	return err
}

// ------------------------------------------------------------

func (s *Service) menuHandler(action menuAction) stepFunc {
	switch action {
	case actionImageAnalysis:
		return func(ctx context.Context, msg *Incoming) error {
			_, err := s.out.SendText(ctx, msg.ChatID, "📤 Please send an image for analysis")
			return err
		}
	case actionWebSearch:
		return func(ctx context.Context, msg *Incoming) error {
			if _, err := s.out.SendText(ctx, msg.ChatID, "🔍 What would you like to search for?"); err != nil {
				return err
			}
			s.steps[msg.ChatID] = s.stepWebSearch
			return nil
		}
	case actionSentimentReport:
		return s.sendSentimentReport
	case actionProfile:
		return s.showProfile
	case actionChat:
		return func(ctx context.Context, msg *Incoming) error {
			if _, err := s.out.SendText(ctx, msg.ChatID, "🤖 Ask me anything:"); err != nil {
				return err
			}
			s.steps[msg.ChatID] = s.stepChat
			return nil
		}
	case actionStop:
		return s.handleStop
	}
	return func(context.Context, *Incoming) error { return nil }
}

func (s *Service) stepWebSearch(ctx context.Context, msg *Incoming) error {
	query := strings.TrimSpace(msg.Text)
	if query == "" {
		_, err := s.out.SendText(ctx, msg.ChatID, "❌ Search cancelled")
		return err
	}

	if _, err := s.out.SendText(ctx, msg.ChatID, "🔎 Searching the web..."); err != nil {
		return err
	}

	results, err := s.search.Top(ctx, query, topResults)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		_, err := s.out.SendText(ctx, msg.ChatID, "❌ No results found")
		return err
	}

	_, err = s.out.SendText(ctx, msg.ChatID,
		fmt.Sprintf("🌐 Top Results for '%s':\n%s", query, formatResults(results)))
	return err
}

func formatResults(results []search.Result) string {
	lines := make([]string, 0, len(results))
	for i, r := range results {
		lines = append(lines, fmt.Sprintf("%d. %s (%s)", i+1, r.Title, r.Link))
	}
	return strings.Join(lines, "\n")
}

func (s *Service) stepChat(ctx context.Context, msg *Incoming) error {
	input := strings.TrimSpace(msg.Text)
	if input == "" {
		_, err := s.out.SendText(ctx, msg.ChatID, "❌ Please enter a valid query.")
		return err
	}

	if _, err := s.out.SendText(ctx, msg.ChatID, "🤖 Thinking..."); err != nil {
		return err
	}

	answer, err := s.ai.GetReply(ctx, input)
	if err != nil {
		return err
	}

	_, err = s.out.SendText(ctx, msg.ChatID, "💡 Assistant says:\n"+answer)
	return err
}

// ------------------------------------------------------------

// analyzeSentiment classifies unmatched free text. Faults here are logged and
// swallowed: free-text chatter must never surface an apology.
func (s *Service) analyzeSentiment(ctx context.Context, msg *Incoming) error {
	text := strings.TrimSpace(msg.Text)

	raw, err := s.ai.GetReply(ctx, fmt.Sprintf(sentimentPrompt, text))
	if err != nil {
		log.Printf("[bot] sentiment error chatId=%d: %v", msg.ChatID, err)
		return nil
	}
	sentiment := strings.ToLower(strings.TrimSpace(raw))

	if err := s.sentiments.Insert(ctx, &SentimentRecord{
		ChatID:    msg.ChatID,
		Message:   text,
		Sentiment: sentiment,
		CreatedAt: time.Now(),
	}); err != nil {
		log.Printf("[bot] sentiment insert error chatId=%d: %v", msg.ChatID, err)
		return nil
	}

	reply := "🤔 Neutral message recorded"
	switch {
	case strings.Contains(sentiment, "positive"):
		reply = "😊 Positive vibes detected!"
	case strings.Contains(sentiment, "negative"):
		reply = "😟 Negative sentiment noted"
	}
	if _, err := s.out.SendText(ctx, msg.ChatID, reply); err != nil {
		log.Printf("[bot] sentiment reply error chatId=%d: %v", msg.ChatID, err)
	}
	return nil
}

func (s *Service) showProfile(ctx context.Context, msg *Incoming) error {
	profile, err := s.profiles.Find(ctx, msg.ChatID)
	if err != nil {
		return err
	}
	if profile == nil {
		_, err := s.out.SendText(ctx, msg.ChatID, "❌ Profile not found")
		return err
	}

	name := profile.FirstName
	if name == "" {
		name = "N/A"
	}
	username := profile.Username
	if username == "" {
		username = "N/A"
	}
	phone := "Not provided"
	if profile.PhoneNumber != nil {
		phone = *profile.PhoneNumber
	}

	_, err = s.out.SendText(ctx, msg.ChatID, fmt.Sprintf(
		"👤 User Profile:\n├ Name: %s\n├ Username: @%s\n└ Phone: %s",
		name, username, phone,
	))
	return err
}

func (s *Service) handleStop(ctx context.Context, msg *Incoming) error {
	if _, err := s.out.SendText(ctx, msg.ChatID, "🛑 Session ended. Use /start to begin again!"); err != nil {
		log.Printf("[bot] farewell send error chatId=%d: %v", msg.ChatID, err)
	}
	log.Printf("[bot] stop requested by chatId=%d", msg.ChatID)
	s.stopOnce.Do(func() { close(s.done) })
	return nil
}

func (s *Service) sendMainMenu(ctx context.Context, chatID int64) error {
	return s.out.SendMenu(ctx, chatID, "🔧 Main Menu - Select an option:")
}
