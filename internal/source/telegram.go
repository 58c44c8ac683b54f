// Package source implements the Telegram side of the relay. The bot must be
// a member of every source channel; channel posts then arrive as updates,
// which gives both the channel enumeration and a bounded recent history
// without any deep pagination.
package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"strings"
	"time"

	"photorelay/internal/domain"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const updateFetchLimit = 100 // Bot API cap per getUpdates call

// Telegram implements domain.Source over the Telegram Bot API.
type Telegram struct {
	token  string
	bot    *tgbotapi.BotAPI
	http   *http.Client
	logger *slog.Logger

	// Populated lazily by one bounded update fetch per run.
	loaded bool
	titles map[int64]string        // chat ID -> display title
	posts  map[int64][]domain.Item // chat ID -> recent channel posts
}

type TelegramConfig struct {
	Token  string
	Logger *slog.Logger
}

func NewTelegram(cfg TelegramConfig) *Telegram {
	return &Telegram{
		token:  cfg.Token,
		http:   downloadClient(60 * time.Second),
		logger: cfg.Logger,
		titles: make(map[int64]string),
		posts:  make(map[int64][]domain.Item),
	}
}

// Authenticate verifies the bot token against getMe. Fatal on failure: no
// channel work is possible without a live session.
func (t *Telegram) Authenticate(ctx context.Context) error {
	bot, err := tgbotapi.NewBotAPI(t.token)
	if err != nil {
		return fmt.Errorf("telegram auth: %w", err)
	}
	t.bot = bot
	t.logger.Info("telegram session ready", "username", bot.Self.UserName, "id", bot.Self.ID)
	return nil
}

// Resolve matches a mapping name against the display titles of channels seen
// in the recent update window, case-insensitively and by substring.
func (t *Telegram) Resolve(_ context.Context, name string) (domain.ChannelHandle, error) {
	if err := t.loadUpdates(); err != nil {
		return domain.ChannelHandle{}, err
	}

	needle := strings.ToLower(name)
	for id, title := range t.titles {
		if strings.Contains(strings.ToLower(title), needle) {
			return domain.ChannelHandle{ID: id, Title: title}, nil
		}
	}
	return domain.ChannelHandle{}, fmt.Errorf("no channel matching %q in recent updates", name)
}

// RecentHistory returns up to limit of the newest posts seen for a channel.
func (t *Telegram) RecentHistory(_ context.Context, ch domain.ChannelHandle, limit int) ([]domain.Item, error) {
	if err := t.loadUpdates(); err != nil {
		return nil, err
	}

	items := t.posts[ch.ID]
	if limit > 0 && len(items) > limit {
		items = items[len(items)-limit:]
	}
	return slices.Clone(items), nil
}

// Download resolves the file path for a photo reference and fetches the
// bytes from Telegram's file endpoint.
func (t *Telegram) Download(ctx context.Context, payloadRef string) ([]byte, error) {
	url, err := t.bot.GetFileDirectURL(payloadRef)
	if err != nil {
		return nil, fmt.Errorf("resolve file %s: %w", payloadRef, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("download request: %w", err)
	}
	resp, err := t.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", payloadRef, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s: unexpected status %s", payloadRef, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// loadUpdates performs the single bounded getUpdates fetch for the run and
// indexes channel posts by chat.
func (t *Telegram) loadUpdates() error {
	if t.loaded {
		return nil
	}
	if t.bot == nil {
		return fmt.Errorf("telegram: not authenticated")
	}

	u := tgbotapi.NewUpdate(0)
	u.Limit = updateFetchLimit
	u.AllowedUpdates = []string{"channel_post"}

	updates, err := t.bot.GetUpdates(u)
	if err != nil {
		return fmt.Errorf("get updates: %w", err)
	}

	for _, up := range updates {
		msg := up.ChannelPost
		if msg == nil || msg.Chat == nil {
			continue
		}
		t.titles[msg.Chat.ID] = msg.Chat.Title
		t.posts[msg.Chat.ID] = append(t.posts[msg.Chat.ID], toItem(msg))
	}
	t.loaded = true

	t.logger.Info("scanned recent updates", "updates", len(updates), "channels", len(t.titles))
	return nil
}

func toItem(msg *tgbotapi.Message) domain.Item {
	item := domain.Item{
		ID:        msg.MessageID,
		CreatedAt: time.Unix(int64(msg.Date), 0).UTC(),
		Kind:      domain.MediaOther,
		Caption:   msg.Caption,
	}
	if len(msg.Photo) > 0 {
		// Sizes are ordered smallest first; relay the largest rendition.
		item.Kind = domain.MediaPhoto
		item.PayloadRef = msg.Photo[len(msg.Photo)-1].FileID
	}
	return item
}

// downloadClient returns an HTTP client with connection pooling tuned for a
// short sequential run.
func downloadClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
