package notify

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"photorelay/internal/domain"

	"github.com/bwmarrin/discordgo"
)

// Discord delivers to a Discord webhook: the caption as the message content
// and the image as a single file attachment. Success is a clean webhook
// execute; any API or transport error fails the delivery.
type Discord struct {
	webhookID    string
	webhookToken string
	session      *discordgo.Session
	logger       *slog.Logger
}

var webhookURLPattern = regexp.MustCompile(`/webhooks/(\d+)/([A-Za-z0-9_-]+)`)

// ParseWebhookURL extracts the webhook ID and token from a Discord webhook
// URI. The endpoint is otherwise treated as opaque.
func ParseWebhookURL(url string) (id, token string, err error) {
	m := webhookURLPattern.FindStringSubmatch(url)
	if m == nil {
		return "", "", fmt.Errorf("not a discord webhook URL: %q", url)
	}
	return m[1], m[2], nil
}

func NewDiscord(webhookURL string, logger *slog.Logger) (*Discord, error) {
	id, token, err := ParseWebhookURL(webhookURL)
	if err != nil {
		return nil, err
	}

	// Webhook execution needs no bot credential.
	session, err := discordgo.New("")
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}

	return &Discord{
		webhookID:    id,
		webhookToken: token,
		session:      session,
		logger:       logger,
	}, nil
}

func (d *Discord) Name() string { return "discord" }

func (d *Discord) Send(ctx context.Context, delivery domain.Delivery) error {
	params := &discordgo.WebhookParams{
		Content: delivery.Content,
		Files: []*discordgo.File{{
			Name:        delivery.FileName,
			ContentType: "image/jpeg",
			Reader:      bytes.NewReader(delivery.Data),
		}},
	}

	_, err := d.session.WebhookExecute(d.webhookID, d.webhookToken, true, params, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("discord webhook execute: %w", err)
	}
	d.logger.Debug("discord webhook delivered", "file", delivery.FileName, "content_len", len(delivery.Content))
	return nil
}
