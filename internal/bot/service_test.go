package bot_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"telegram-assistant/internal/bot"
	"telegram-assistant/internal/search"
)

type fakeOutbound struct {
	sent            []string
	deleted         []int
	menus           int
	contactRequests int
	nextID          int
}

func (f *fakeOutbound) SendText(_ context.Context, _ int64, text string) (int, error) {
	f.nextID++
	f.sent = append(f.sent, text)
	return f.nextID, nil
}

func (f *fakeOutbound) SendMenu(_ context.Context, _ int64, _ string) error {
	f.menus++
	return nil
}

func (f *fakeOutbound) SendContactRequest(_ context.Context, _ int64, _ string) error {
	f.contactRequests++
	return nil
}

func (f *fakeOutbound) DeleteMessage(_ context.Context, _ int64, messageID int) error {
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakeOutbound) last() string {
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1]
}

type fakeFiles struct {
	data []byte
	err  error
}

func (f *fakeFiles) Download(_ context.Context, _ string) ([]byte, error) {
	return f.data, f.err
}

type fakeAI struct {
	reply    string
	replyErr error
	imageErr error
	prompts  []string
}

func (f *fakeAI) GetReply(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.replyErr
}

func (f *fakeAI) DescribeImage(_ context.Context, _ string, _ []byte) (string, error) {
	if f.imageErr != nil {
		return "", f.imageErr
	}
	return "a cat on a chair", nil
}

type fakeSearch struct {
	results []search.Result
	err     error
}

func (f *fakeSearch) Top(_ context.Context, _ string, n int) ([]search.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.results) > n {
		return f.results[:n], nil
	}
	return f.results, nil
}

type fakeExtractor struct {
	text string
	err  error
}

func (f *fakeExtractor) ExtractText(_ string) (string, error) {
	return f.text, f.err
}

type fakeProfiles struct {
	profiles map[int64]*bot.Profile
}

func (f *fakeProfiles) Find(_ context.Context, chatID int64) (*bot.Profile, error) {
	p, ok := f.profiles[chatID]
	if !ok {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}

func (f *fakeProfiles) Create(_ context.Context, p *bot.Profile) error {
	if _, ok := f.profiles[p.ChatID]; ok {
		return nil
	}
	copied := *p
	f.profiles[p.ChatID] = &copied
	return nil
}

func (f *fakeProfiles) SetPhoneNumber(_ context.Context, chatID int64, phone string) error {
	if p, ok := f.profiles[chatID]; ok {
		p.PhoneNumber = &phone
	}
	return nil
}

type fakeSentiments struct {
	records []bot.SentimentRecord
}

func (f *fakeSentiments) Insert(_ context.Context, rec *bot.SentimentRecord) error {
	f.records = append(f.records, *rec)
	return nil
}

func (f *fakeSentiments) Recent(_ context.Context, chatID int64, limit int) ([]bot.SentimentRecord, error) {
	var out []bot.SentimentRecord
	for _, r := range f.records {
		if r.ChatID == chatID {
			out = append(out, r)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type testEnv struct {
	svc        *bot.Service
	out        *fakeOutbound
	files      *fakeFiles
	ai         *fakeAI
	search     *fakeSearch
	extractor  *fakeExtractor
	profiles   *fakeProfiles
	sentiments *fakeSentiments
}

func newTestEnv() *testEnv {
	env := &testEnv{
		out:        &fakeOutbound{},
		files:      &fakeFiles{data: []byte("payload")},
		ai:         &fakeAI{reply: "neutral"},
		search:     &fakeSearch{},
		extractor:  &fakeExtractor{},
		profiles:   &fakeProfiles{profiles: make(map[int64]*bot.Profile)},
		sentiments: &fakeSentiments{},
	}
	env.svc = bot.NewService(
		env.profiles,
		env.sentiments,
		env.ai,
		env.search,
		env.extractor,
		env.out,
		env.files,
	)
	return env
}

const chatID = int64(42)

func text(t string) *bot.Incoming {
	return &bot.Incoming{ChatID: chatID, Text: t}
}

func TestStartCreatesProfileOnce(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	env.svc.Dispatch(ctx, &bot.Incoming{ChatID: chatID, Command: "start", FirstName: "Ada", Username: "ada"})
	require.Len(t, env.profiles.profiles, 1)
	require.Equal(t, 1, env.out.contactRequests)
	require.Contains(t, env.out.sent[0], "Welcome")
	require.Equal(t, 0, env.out.menus)

	env.svc.Dispatch(ctx, &bot.Incoming{ChatID: chatID, Command: "start", FirstName: "Ada", Username: "ada"})
	require.Len(t, env.profiles.profiles, 1)
	require.Equal(t, 1, env.out.contactRequests)
	require.Equal(t, 1, env.out.menus)
}

func TestContactUpdatesPhoneAndShowsMenu(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	env.svc.Dispatch(ctx, &bot.Incoming{ChatID: chatID, Command: "start"})
	env.svc.Dispatch(ctx, &bot.Incoming{ChatID: chatID, Contact: &bot.Contact{PhoneNumber: "+123"}})

	p := env.profiles.profiles[chatID]
	require.NotNil(t, p.PhoneNumber)
	require.Equal(t, "+123", *p.PhoneNumber)
	require.Contains(t, env.out.last(), "Phone number saved!")
	require.Equal(t, 1, env.out.menus)
}

func TestPendingStepConsumedExactlyOnce(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	env.ai.reply = "Go is a statically typed language."
	env.svc.Dispatch(ctx, text(bot.LabelChat))
	require.Contains(t, env.out.last(), "Ask me anything")

	env.svc.Dispatch(ctx, text("what is go"))
	require.Contains(t, env.out.last(), "Assistant says:\nGo is a statically typed language.")
	require.Equal(t, []string{"what is go"}, env.ai.prompts)

	// The consumed step must not fire again: the same text now falls through
	// to sentiment analysis.
	env.ai.reply = "Neutral"
	env.svc.Dispatch(ctx, text("what is go"))
	require.Contains(t, env.out.last(), "Neutral message recorded")
	require.Len(t, env.sentiments.records, 1)
}

func TestWebSearchFlow(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	env.search.results = []search.Result{
		{Title: "Rust vs Go", Link: "https://a.example"},
		{Title: "Go vs Rust benchmarks", Link: "https://b.example"},
		{Title: "Choosing a language", Link: "https://c.example"},
	}

	env.svc.Dispatch(ctx, text(bot.LabelWebSearch))
	require.Contains(t, env.out.last(), "What would you like to search for?")

	env.svc.Dispatch(ctx, text("rust vs go"))
	reply := env.out.last()
	require.Contains(t, reply, "Top Results for 'rust vs go'")
	require.Contains(t, reply, "1. Rust vs Go (https://a.example)")
	require.Contains(t, reply, "2. Go vs Rust benchmarks (https://b.example)")
	require.Contains(t, reply, "3. Choosing a language (https://c.example)")
}

func TestWebSearchNoResults(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	env.svc.Dispatch(ctx, text(bot.LabelWebSearch))
	env.svc.Dispatch(ctx, text("rust vs go"))

	require.NotEmpty(t, env.out.last())
	require.Contains(t, env.out.last(), "No results found")
}

func TestWebSearchBlankQueryCancels(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	env.svc.Dispatch(ctx, text(bot.LabelWebSearch))
	env.svc.Dispatch(ctx, text("   "))

	require.Contains(t, env.out.last(), "Search cancelled")
}

func TestEmptyPDFSkipsClassification(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	env.svc.Dispatch(ctx, &bot.Incoming{
		ChatID:   chatID,
		Document: &bot.Document{FileID: "f1", MimeType: "application/pdf", FileName: "x.pdf"},
	})

	require.Contains(t, env.out.last(), "No text found in PDF")
	require.Empty(t, env.ai.prompts)
	// The placeholder (first sent message) is removed on this path too.
	require.Equal(t, []int{1}, env.out.deleted)
}

func TestNonPDFDocumentRejected(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	env.svc.Dispatch(ctx, &bot.Incoming{
		ChatID:   chatID,
		Document: &bot.Document{FileID: "f1", MimeType: "image/png", FileName: "x.png"},
	})

	require.Contains(t, env.out.last(), "Please send a PDF file")
	require.Empty(t, env.out.deleted)
}

func TestImageFailureStillRemovesPlaceholder(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	env.ai.imageErr = errors.New("inference unavailable")
	env.svc.Dispatch(ctx, &bot.Incoming{ChatID: chatID, PhotoFileID: "photo1"})

	require.Equal(t, []int{1}, env.out.deleted)
	require.Contains(t, env.out.last(), "Error processing your request")
}

func TestSentimentClassifiesBySubstring(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	env.ai.reply = "Slightly Positive and hopeful"
	env.svc.Dispatch(ctx, text("today went really well"))

	require.Contains(t, env.out.last(), "Positive vibes detected!")
	require.Len(t, env.sentiments.records, 1)
	require.Equal(t, "slightly positive and hopeful", env.sentiments.records[0].Sentiment)
}

func TestSentimentFaultIsSwallowed(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	env.ai.replyErr = errors.New("inference unavailable")
	env.svc.Dispatch(ctx, text("hello there"))

	require.Empty(t, env.out.sent)
	require.Empty(t, env.sentiments.records)
}

func TestCommandTextIsIgnored(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	env.svc.Dispatch(ctx, text("/unknown"))

	require.Empty(t, env.out.sent)
	require.Empty(t, env.ai.prompts)
}

func TestSentimentReportEmpty(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	env.svc.Dispatch(ctx, text(bot.LabelSentimentReport))

	require.Contains(t, env.out.last(), "Start chatting to generate insights!")
}

func TestSentimentReportCounts(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	env.sentiments.records = []bot.SentimentRecord{
		{ChatID: chatID, Sentiment: "positive"},
		{ChatID: chatID, Sentiment: "positive"},
		{ChatID: chatID, Sentiment: "negative"},
	}

	env.svc.Dispatch(ctx, text(bot.LabelSentimentReport))
	report := env.out.last()

	require.Contains(t, report, "Last 3 messages")
	require.Contains(t, report, "✅ Positive: 2 (67%)")
	require.Contains(t, report, "🔄 Neutral: 0 (0%)")
	require.Contains(t, report, "❌ Negative: 1 (33%)")
	require.Contains(t, report, "Mostly Positive")
}

func TestProfileDisplayFallbacks(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	env.profiles.profiles[chatID] = &bot.Profile{ChatID: chatID, FirstName: "Ada"}
	env.svc.Dispatch(ctx, text(bot.LabelProfile))

	reply := env.out.last()
	require.Contains(t, reply, "Name: Ada")
	require.Contains(t, reply, "@N/A")
	require.Contains(t, reply, "Phone: Not provided")
}

func TestProfileNotFound(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	env.svc.Dispatch(ctx, text(bot.LabelProfile))

	require.Contains(t, env.out.last(), "Profile not found")
}

func TestStopSignalsShutdown(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	select {
	case <-env.svc.Done():
		t.Fatal("done closed before stop")
	default:
	}

	env.svc.Dispatch(ctx, text(bot.LabelStop))

	select {
	case <-env.svc.Done():
	default:
		t.Fatal("done not closed after stop")
	}
	require.True(t, strings.Contains(env.out.last(), "Session ended"))

	// A second stop must not panic on the already-closed channel.
	env.svc.Dispatch(ctx, text(bot.LabelStop))
}

func TestMenuWinsOverSentimentForLabels(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	env.svc.Dispatch(ctx, text(bot.LabelImageAnalysis))

	require.Contains(t, env.out.last(), "send an image for analysis")
	require.Empty(t, env.ai.prompts)
	require.Empty(t, env.sentiments.records)
}
