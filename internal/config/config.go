// Package config loads moviepost settings from a .env file and the environment.
//
// Values are read in order of increasing precedence: .env file, process environment,
// then command-line flags (applied by the cli package on top of the loaded Config).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Bot modes
const (
	ModeReply   = "reply"
	ModePublish = "publish"
)

const (
	DefaultHTTPAddr   = ":8080"
	DefaultMongoDB    = "moviepost"
	DefaultDataDir    = "~/.local/share/moviepost"
	DefaultBotWorkers = 4
)

// Twitter holds optional cross-posting credentials.
type Twitter struct {
	APIKey       string
	APISecret    string
	AccessToken  string
	AccessSecret string
}

// Enabled reports whether all four Twitter credentials are present.
func (t Twitter) Enabled() bool {
	return t.APIKey != "" && t.APISecret != "" && t.AccessToken != "" && t.AccessSecret != ""
}

// Config is the resolved program configuration.
type Config struct {
	TelegramToken string
	BotMode       string
	BotAdmins     []int64
	BotWorkers    int
	WebhookURL    string
	WebhookSecret string

	BlogID              string
	BloggerAPIKey       string
	BloggerClientID     string
	BloggerClientSecret string
	BloggerRefreshToken string
	BloggerDraft        bool

	TMDbAPIKey string
	OMDbAPIKey string

	MongoURI string
	MongoDB  string
	DataDir  string

	HTTPAddr      string
	AdminUser     string
	AdminPassword string

	Twitter Twitter

	LogLevel string
}

// MissingError lists required settings that are not set.
type MissingError struct {
	Keys []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", strings.Join(e.Keys, ", "))
}

// Load reads the given .env files (a missing file is not an error) and then
// builds a Config from the environment.
func Load(envFiles ...string) (*Config, error) {
	for _, file := range envFiles {
		if file == "" {
			continue
		}
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", file, err)
		}
	}
	return FromLookup(os.Getenv)
}

// FromLookup builds a Config using getenv for every key.
func FromLookup(getenv func(string) string) (*Config, error) {
	get := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	cfg := &Config{
		TelegramToken: get("TELEGRAM_BOT_TOKEN", get("BOT_TOKEN", "")),
		BotMode:       strings.ToLower(get("BOT_MODE", ModeReply)),
		WebhookURL:    get("WEBHOOK_URL", ""),
		WebhookSecret: get("WEBHOOK_SECRET", ""),

		BlogID:              get("BLOG_ID", ""),
		BloggerAPIKey:       get("BLOGGER_API_KEY", ""),
		BloggerClientID:     get("BLOGGER_CLIENT_ID", ""),
		BloggerClientSecret: get("BLOGGER_CLIENT_SECRET", ""),
		BloggerRefreshToken: get("BLOGGER_REFRESH_TOKEN", ""),

		TMDbAPIKey: get("TMDB_API_KEY", ""),
		OMDbAPIKey: get("OMDB_API_KEY", ""),

		MongoURI: get("MONGO_URI", get("MONGODB_URI", "")),
		MongoDB:  get("MONGO_DB", DefaultMongoDB),
		DataDir:  get("DATA_DIR", DefaultDataDir),

		HTTPAddr:      get("HTTP_ADDR", DefaultHTTPAddr),
		AdminUser:     get("ADMIN_USER", ""),
		AdminPassword: get("ADMIN_PASSWORD", ""),

		Twitter: Twitter{
			APIKey:       get("TWITTER_API_KEY", ""),
			APISecret:    get("TWITTER_API_SECRET", ""),
			AccessToken:  get("TWITTER_ACCESS_TOKEN", ""),
			AccessSecret: get("TWITTER_ACCESS_SECRET", ""),
		},

		LogLevel: get("LOG_LEVEL", "info"),
	}

	if port := get("PORT", ""); port != "" && getenv("HTTP_ADDR") == "" {
		cfg.HTTPAddr = ":" + port
	}

	workers, err := strconv.Atoi(get("BOT_WORKERS", strconv.Itoa(DefaultBotWorkers)))
	if err != nil || workers < 1 {
		return nil, fmt.Errorf("invalid BOT_WORKERS %q", getenv("BOT_WORKERS"))
	}
	cfg.BotWorkers = workers

	draft, err := parseBool(get("BLOGGER_DRAFT", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid BLOGGER_DRAFT: %w", err)
	}
	cfg.BloggerDraft = draft

	admins, err := ParseAdmins(get("BOT_ADMINS", ""))
	if err != nil {
		return nil, err
	}
	cfg.BotAdmins = admins

	if cfg.BotMode != ModeReply && cfg.BotMode != ModePublish {
		return nil, fmt.Errorf("invalid BOT_MODE %q (must be %q or %q)", cfg.BotMode, ModeReply, ModePublish)
	}

	return cfg, nil
}

// ParseAdmins parses a comma or space separated list of Telegram user IDs.
func ParseAdmins(raw string) ([]int64, error) {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == ';'
	})
	admins := make([]int64, 0, len(fields))
	for _, f := range fields {
		id, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid admin ID %q in BOT_ADMINS", f)
		}
		admins = append(admins, id)
	}
	return admins, nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off", "":
		return false, nil
	}
	return false, fmt.Errorf("not a boolean: %q", s)
}

// BloggerOAuth reports whether OAuth refresh-token credentials are configured.
func (c *Config) BloggerOAuth() bool {
	return c.BloggerClientID != "" && c.BloggerClientSecret != "" && c.BloggerRefreshToken != ""
}

// BloggerConfigured reports whether publishing to Blogger is possible.
func (c *Config) BloggerConfigured() bool {
	return c.BlogID != "" && (c.BloggerAPIKey != "" || c.BloggerOAuth())
}

// ValidateBot checks the settings needed to run the Telegram bot.
func (c *Config) ValidateBot() error {
	var missing []string
	if c.TelegramToken == "" {
		missing = append(missing, "TELEGRAM_BOT_TOKEN")
	}
	if c.BotMode == ModePublish && !c.BloggerConfigured() {
		missing = append(missing, c.bloggerMissing()...)
	}
	return missingErr(missing)
}

// ValidatePublish checks the settings needed to publish to Blogger.
func (c *Config) ValidatePublish() error {
	if c.BloggerConfigured() {
		return nil
	}
	return missingErr(c.bloggerMissing())
}

// ValidateWeb checks the settings needed to run the web app.
func (c *Config) ValidateWeb() error {
	var missing []string
	if c.HTTPAddr == "" {
		missing = append(missing, "HTTP_ADDR")
	}
	if (c.AdminUser == "") != (c.AdminPassword == "") {
		missing = append(missing, "ADMIN_USER and ADMIN_PASSWORD (set both or neither)")
	}
	return missingErr(missing)
}

func (c *Config) bloggerMissing() []string {
	var missing []string
	if c.BlogID == "" {
		missing = append(missing, "BLOG_ID")
	}
	if c.BloggerAPIKey == "" && !c.BloggerOAuth() {
		missing = append(missing, "BLOGGER_API_KEY (or BLOGGER_CLIENT_ID/BLOGGER_CLIENT_SECRET/BLOGGER_REFRESH_TOKEN)")
	}
	return missing
}

func missingErr(keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	return &MissingError{Keys: keys}
}
