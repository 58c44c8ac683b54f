package config

// Defaults returns a config with sane defaults. The Telegram token and the
// example webhook are env placeholders resolved by Load, so a freshly
// initialized config works as soon as the variables are exported.
func Defaults() *Config {
	return &Config{
		LogLevel: "info",
		Telegram: TelegramConfig{
			Token:        "${TELEGRAM_BOT_TOKEN}",
			HistoryLimit: 100,
		},
		Slack: SlackConfig{
			BotToken: "${SLACK_BOT_TOKEN:-}",
		},
		Filter: FilterConfig{
			Timezone:   "Europe/London",
			WindowDays: 1,
		},
		Pacing: PacingConfig{
			IntervalSeconds: 2,
			Burst:           1,
		},
		Ledger: LedgerConfig{
			Backend:       "file",
			Path:          "processed_cache.json",
			RetentionDays: 3,
		},
		Mappings: []Mapping{
			{Name: "FOOTBALL ON TV", DiscordWebhook: "${FOOTBALL_ON_TV_WEBHOOK:-}"},
			{Name: "US SPORT ON TV", DiscordWebhook: "${US_SPORT_ON_TV_WEBHOOK:-}"},
		},
	}
}
