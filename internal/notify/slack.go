package notify

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"photorelay/internal/domain"

	"github.com/slack-go/slack"
)

// Slack delivers to a Slack channel via file upload, with the caption as the
// initial comment. Requires a bot token with files:write scope.
type Slack struct {
	client  *slack.Client
	channel string
	logger  *slog.Logger
}

func NewSlack(botToken, channelID string, logger *slog.Logger) *Slack {
	return &Slack{
		client:  slack.New(botToken),
		channel: channelID,
		logger:  logger,
	}
}

func (s *Slack) Name() string { return "slack" }

func (s *Slack) Send(ctx context.Context, delivery domain.Delivery) error {
	_, err := s.client.UploadFileV2Context(ctx, slack.UploadFileV2Parameters{
		Channel:        s.channel,
		Filename:       delivery.FileName,
		FileSize:       len(delivery.Data),
		Reader:         bytes.NewReader(delivery.Data),
		InitialComment: delivery.Content,
	})
	if err != nil {
		return fmt.Errorf("slack upload to %s: %w", s.channel, err)
	}
	s.logger.Debug("slack file delivered", "channel", s.channel, "file", delivery.FileName)
	return nil
}
