package telegram_bot

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/telebot.v3"

	"golang-market-news-bot/internal/config"
	"golang-market-news-bot/internal/models"
	"golang-market-news-bot/internal/services/access"
	"golang-market-news-bot/internal/services/classifier"
	"golang-market-news-bot/internal/services/subscription"
	"golang-market-news-bot/pkg/ratelimit"
)

const (
	adminID    int64 = 1001
	strangerID int64 = 2002
)

type sentMessage struct {
	what interface{}
	opts []interface{}
}

// fakeContext implements the parts of telebot.Context the handlers use.
type fakeContext struct {
	telebot.Context
	sender   *telebot.User
	chat     *telebot.Chat
	text     string
	args     []string
	callback *telebot.Callback

	mu       sync.Mutex
	sent     []sentMessage
	notified []telebot.ChatAction
}

func (f *fakeContext) Sender() *telebot.User       { return f.sender }
func (f *fakeContext) Chat() *telebot.Chat         { return f.chat }
func (f *fakeContext) Text() string                { return f.text }
func (f *fakeContext) Args() []string              { return f.args }
func (f *fakeContext) Callback() *telebot.Callback { return f.callback }

func (f *fakeContext) Send(what interface{}, opts ...interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{what: what, opts: opts})
	return nil
}

func (f *fakeContext) Notify(action telebot.ChatAction) error {
	f.notified = append(f.notified, action)
	return nil
}

func (f *fakeContext) Respond(...*telebot.CallbackResponse) error { return nil }

func (f *fakeContext) texts() []string {
	out := make([]string, 0, len(f.sent))
	for _, m := range f.sent {
		out = append(out, m.what.(string))
	}
	return out
}

func newContext(userID int64, text string, args ...string) *fakeContext {
	return &fakeContext{
		sender: &telebot.User{ID: userID, FirstName: "Asha"},
		chat:   &telebot.Chat{ID: userID},
		text:   text,
		args:   args,
	}
}

type newsCall struct {
	method string
	arg    string
}

type fakeNews struct {
	digest *models.NewsDigest
	err    error
	calls  []newsCall
}

func (f *fakeNews) record(method, arg string) (*models.NewsDigest, error) {
	f.calls = append(f.calls, newsCall{method: method, arg: arg})
	return f.digest, f.err
}

func (f *fakeNews) GetMarketNews(_ context.Context, query string) (*models.NewsDigest, error) {
	return f.record("market", query)
}

func (f *fakeNews) GetCountryNews(_ context.Context, country string) (*models.NewsDigest, error) {
	return f.record("country", country)
}

func (f *fakeNews) GetTopicNews(_ context.Context, topic string) (*models.NewsDigest, error) {
	return f.record("topic", topic)
}

func (f *fakeNews) GetTechnicalAnalysis(context.Context) (*models.NewsDigest, error) {
	return f.record("technical", "")
}

func (f *fakeNews) Search(context.Context, models.NewsFilter) ([]models.NewsItem, error) {
	return nil, f.err
}

type fakeBot struct {
	to   []string
	what []interface{}
}

func (f *fakeBot) Send(to telebot.Recipient, what interface{}, _ ...interface{}) (*telebot.Message, error) {
	f.to = append(f.to, to.Recipient())
	f.what = append(f.what, what)
	return &telebot.Message{}, nil
}

func sampleDigest() *models.NewsDigest {
	return &models.NewsDigest{
		Title: "📰 Market News - INDIA",
		Items: []models.NewsItem{{
			Title:  "Sensex climbs 500 points",
			URL:    "https://example.com/a?x=1&y=2",
			Source: "Mint",
		}},
		Analysis:    &models.NewsAnalysis{Summary: "Current market focus is on Sensex.", Insights: "Sensex gained 1%."},
		GeneratedAt: time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC),
	}
}

func newTestService(t *testing.T, newsService *fakeNews, bot *fakeBot) *TelegramBotService {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg := &config.TelegramConfig{
		BotToken:                  "test-token",
		HandlerTimeout:            time.Second,
		MaxGlobalRequestPerSecond: 1000,
		MaxUserRequestPerSecond:   1000,
		MaxChatRequestPerSecond:   1000,
	}
	if bot == nil {
		bot = &fakeBot{}
	}

	svc := NewTelegramBotService(
		context.Background(),
		cfg,
		&config.ScheduleConfig{Timezone: "Asia/Kolkata", DailyUpdateTime: "09:00"},
		logger,
		nil,
		ratelimit.NewTelegramRateLimiter(cfg, logger, bot),
		classifier.New(nil),
		access.NewAccessService(&config.AccessConfig{AdminUserID: adminID}, logger),
		newsService,
		subscription.NewMemoryStore(),
	)
	svc.pick = func(int) int { return 0 }
	svc.now = func() time.Time { return time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC) }
	return svc
}

func run(svc *TelegramBotService, h func(context.Context, telebot.Context) error, c telebot.Context) error {
	return svc.WithContext(h)(c)
}

func TestStrangerGetsOneWarningThenSilence(t *testing.T) {
	n := &fakeNews{digest: sampleDigest()}
	svc := newTestService(t, n, nil)

	first := newContext(strangerID, "/news", "gold")
	require.NoError(t, run(svc, svc.handleNews, first))
	assert.Equal(t, []string{access.WarningMessage}, first.texts())

	second := newContext(strangerID, "/news")
	require.NoError(t, run(svc, svc.handleNews, second))
	assert.Empty(t, second.sent)

	assert.Empty(t, n.calls)
}

func TestNewsCommandAllProvidersFail(t *testing.T) {
	n := &fakeNews{digest: &models.NewsDigest{Title: "📰 Market News - GLOBAL"}}
	svc := newTestService(t, n, nil)

	c := newContext(adminID, "/news")
	require.NoError(t, run(svc, svc.handleNews, c))

	assert.Equal(t, []string{messageNoNewsCommand}, c.texts())
	assert.Equal(t, []telebot.ChatAction{telebot.Typing}, c.notified)
	assert.Equal(t, []newsCall{{method: "market", arg: ""}}, n.calls)
}

func TestNewsCommandWithQuery(t *testing.T) {
	n := &fakeNews{digest: sampleDigest()}
	svc := newTestService(t, n, nil)

	c := newContext(adminID, "/news crude oil", "crude", "oil")
	require.NoError(t, run(svc, svc.handleNews, c))

	require.Len(t, c.sent, 1)
	assert.Equal(t, []newsCall{{method: "market", arg: "crude oil"}}, n.calls)
	body := c.sent[0].what.(string)
	assert.Contains(t, body, "<b>📰 Market News - INDIA</b>")
	assert.Contains(t, body, `<a href="https://example.com/a?x=1&amp;y=2">Sensex climbs 500 points</a>`)
	require.Len(t, c.sent[0].opts, 1)
	assert.Equal(t, telebot.ModeHTML, c.sent[0].opts[0].(*telebot.SendOptions).ParseMode)
}

func TestNewsErrorNeverSurfacesRaw(t *testing.T) {
	n := &fakeNews{err: errors.New("dial tcp: connection refused")}
	svc := newTestService(t, n, nil)

	c := newContext(adminID, "/technical")
	require.NoError(t, run(svc, svc.handleTechnical, c))
	assert.Equal(t, []string{messageProcessingError}, c.texts())
}

func TestHandleTextRouting(t *testing.T) {
	tests := []struct {
		name string
		text string
		want newsCall
	}{
		{name: "hinglish india", text: "Sensex kitna hai abhi?", want: newsCall{method: "country", arg: models.CountryIndia}},
		{name: "topic", text: "what is the latest bitcoin price news", want: newsCall{method: "topic", arg: models.TopicCrypto}},
		{name: "country beats technical", text: "nifty chart support and resistance", want: newsCall{method: "country", arg: models.CountryIndia}},
		{name: "technical without country", text: "stock chart resistance levels?", want: newsCall{method: "technical"}},
		{name: "general", text: "share market kaisa hai", want: newsCall{method: "market", arg: "share market kaisa hai"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &fakeNews{digest: sampleDigest()}
			svc := newTestService(t, n, nil)

			c := newContext(adminID, tt.text)
			require.NoError(t, run(svc, svc.handleText, c))
			require.Len(t, n.calls, 1)
			assert.Equal(t, tt.want, n.calls[0])
			assert.Len(t, c.sent, 1)
		})
	}
}

func TestHandleTextNoResults(t *testing.T) {
	n := &fakeNews{digest: &models.NewsDigest{}}
	svc := newTestService(t, n, nil)
	svc.pick = func(int) int { return 1 }

	c := newContext(adminID, "gold price kya hai?")
	require.NoError(t, run(svc, svc.handleText, c))
	assert.Equal(t, []string{"Sorry, 'gold price kya hai?' ke baare mein koi recent updates nahi hain. Koi aur topic try karein?"}, c.texts())
}

func TestGreetingIsNotGated(t *testing.T) {
	svc := newTestService(t, &fakeNews{}, nil)

	c := newContext(strangerID, "namaste")
	require.NoError(t, run(svc, svc.handleText, c))
	assert.Equal(t, []string{"Namaste Asha! Market ke baare mein kya jaanna chahte ho? Use /help for available commands."}, c.texts())
}

func TestUnrelatedTextIgnored(t *testing.T) {
	n := &fakeNews{}
	svc := newTestService(t, n, nil)

	for _, text := range []string{"the weather is lovely", "/unknown", "   "} {
		c := newContext(adminID, text)
		require.NoError(t, run(svc, svc.handleText, c))
		assert.Empty(t, c.sent, text)
	}
	assert.Empty(t, n.calls)
}

func TestStartSubscribesAndShowsMenu(t *testing.T) {
	svc := newTestService(t, &fakeNews{}, nil)

	c := newContext(adminID, "/start")
	require.NoError(t, run(svc, svc.handleStart, c))

	require.Len(t, c.sent, 1)
	assert.True(t, strings.HasPrefix(c.sent[0].what.(string), "Hello Asha! I'm your Market Intelligence Assistant."))
	markup, ok := c.sent[0].opts[0].(*telebot.ReplyMarkup)
	require.True(t, ok)
	require.Len(t, markup.InlineKeyboard, 3)
	assert.Len(t, markup.InlineKeyboard[0], 2)
	assert.True(t, svc.subs.Contains(adminID))
}

func TestSubscribeAndUnsubscribe(t *testing.T) {
	svc := newTestService(t, &fakeNews{}, nil)

	c := newContext(adminID, "/subscribe")
	require.NoError(t, run(svc, svc.handleSubscribe, c))
	require.NoError(t, run(svc, svc.handleSubscribe, c))
	require.NoError(t, run(svc, svc.handleUnsubscribe, c))
	require.NoError(t, run(svc, svc.handleUnsubscribe, c))

	texts := c.texts()
	require.Len(t, texts, 4)
	assert.True(t, strings.HasPrefix(texts[0], "You are now subscribed to daily market insights at 09:00 Asia/Kolkata."))
	assert.Equal(t, "You are already subscribed to daily market insights at 09:00 Asia/Kolkata.", texts[1])
	assert.Equal(t, messageUnsubscribed, texts[2])
	assert.Equal(t, messageNotSub, texts[3])
}

func TestTopicNewsCommand(t *testing.T) {
	n := &fakeNews{digest: sampleDigest()}
	svc := newTestService(t, n, nil)

	empty := newContext(adminID, "/topicnews")
	require.NoError(t, run(svc, svc.handleTopicNews, empty))
	assert.Equal(t, []string{messageTopicUsage}, empty.texts())

	c := newContext(adminID, "/topicnews wall street", "wall", "street")
	require.NoError(t, run(svc, svc.handleTopicNews, c))
	assert.Equal(t, []newsCall{{method: "topic", arg: "wall street"}}, n.calls)
}

func TestFixedNewsCommands(t *testing.T) {
	n := &fakeNews{digest: sampleDigest()}
	svc := newTestService(t, n, nil)

	handlers := []func(context.Context, telebot.Context) error{
		svc.countryCommand(models.CountryIndia),
		svc.countryCommand(models.CountryUS),
		svc.countryCommand(models.CountryGlobal),
		svc.topicCommand(models.TopicCommodities),
		svc.topicCommand(models.TopicBreaking),
	}
	for _, h := range handlers {
		require.NoError(t, run(svc, h, newContext(adminID, "/cmd")))
	}

	assert.Equal(t, []newsCall{
		{method: "country", arg: models.CountryIndia},
		{method: "country", arg: models.CountryUS},
		{method: "country", arg: models.CountryGlobal},
		{method: "topic", arg: models.TopicCommodities},
		{method: "topic", arg: models.TopicBreaking},
	}, n.calls)
}

func TestMenuButtons(t *testing.T) {
	tests := []struct {
		btn  telebot.Btn
		want newsCall
	}{
		{btn: btnNewsIndia, want: newsCall{method: "country", arg: models.CountryIndia}},
		{btn: btnNewsUS, want: newsCall{method: "country", arg: models.CountryUS}},
		{btn: btnNewsGlobal, want: newsCall{method: "country", arg: models.CountryGlobal}},
		{btn: btnNewsCommodities, want: newsCall{method: "topic", arg: models.TopicCommodities}},
		{btn: btnNewsBreaking, want: newsCall{method: "topic", arg: models.TopicBreaking}},
		{btn: btnNewsAll, want: newsCall{method: "market"}},
	}
	for _, tt := range tests {
		t.Run(tt.btn.Unique, func(t *testing.T) {
			n := &fakeNews{digest: sampleDigest()}
			svc := newTestService(t, n, nil)

			c := newContext(adminID, "")
			c.callback = &telebot.Callback{Unique: tt.btn.Unique}
			require.NoError(t, run(svc, svc.handleBtnNews, c))
			assert.Equal(t, []newsCall{tt.want}, n.calls)
		})
	}
}

func TestSendDigest(t *testing.T) {
	bot := &fakeBot{}
	svc := newTestService(t, &fakeNews{}, bot)

	require.NoError(t, svc.SendDigest(context.Background(), 555, "📅 DAILY MARKET UPDATE - Monday, 04 March 2024 📅", sampleDigest()))
	require.Len(t, bot.what, 1)
	assert.Equal(t, []string{"555"}, bot.to)
	assert.True(t, strings.HasPrefix(bot.what[0].(string), "<b>📅 DAILY MARKET UPDATE - Monday, 04 March 2024 📅</b>\n\n<b>📰 Market News - INDIA</b>"))
}
