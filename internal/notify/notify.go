// Package notify builds destination adapters for configured mappings.
package notify

import (
	"fmt"
	"log/slog"

	"photorelay/internal/config"
	"photorelay/internal/domain"
)

// Compile-time interface checks.
var (
	_ domain.Notifier = (*Discord)(nil)
	_ domain.Notifier = (*Slack)(nil)
)

// ForMapping constructs the destination for one mapping. A mapping with no
// destination returns (nil, nil): disabled, not an error. A Slack mapping
// without a bot token is likewise disabled, with a log line so the operator
// can tell why nothing is being posted.
func ForMapping(m config.Mapping, slackToken string, logger *slog.Logger) (domain.Notifier, error) {
	switch {
	case m.DiscordWebhook != "":
		n, err := NewDiscord(m.DiscordWebhook, logger)
		if err != nil {
			return nil, fmt.Errorf("mapping %s: %w", m.Name, err)
		}
		return n, nil
	case m.SlackChannel != "":
		if slackToken == "" {
			logger.Warn("slack mapping disabled: no bot token configured", "mapping", m.Name)
			return nil, nil
		}
		return NewSlack(slackToken, m.SlackChannel, logger), nil
	default:
		return nil, nil
	}
}
