package internal

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Config struct {
	InboxDir  string
	OutboxDir string
	MusicDir  string
	LogDir    string
	WorkDir   string

	// Optional recursive document watch; events are forwarded to the
	// external index service, never processed here.
	KnowledgeBaseDir string
	ReindexURL       string

	DebounceWindow time.Duration
	ComposeTimeout time.Duration

	// Worker binary for isolated composition. Resolved next to the main
	// executable when left empty.
	ComposeBin string

	CaptionServiceURL   string
	CaptionServiceModel string
	CaptionTimeout      time.Duration
	GeminiAPIKey        string

	TelegramToken  string
	TelegramChatID int64

	S3Endpoint  string
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3Prefix    string
}

func LoadConfig() (Config, error) {
	root := firstNonEmpty(os.Getenv("STORY_ROOT_DIR"), "data")

	cfg := Config{
		InboxDir:  firstNonEmpty(os.Getenv("STORY_INBOX_DIR"), filepath.Join(root, "inbox")),
		OutboxDir: firstNonEmpty(os.Getenv("STORY_OUTBOX_DIR"), filepath.Join(root, "outbox")),
		MusicDir:  firstNonEmpty(os.Getenv("STORY_MUSIC_DIR"), filepath.Join(root, "music")),
		LogDir:    firstNonEmpty(os.Getenv("STORY_LOG_DIR"), "logs"),
		WorkDir:   firstNonEmpty(os.Getenv("STORY_WORK_DIR"), os.TempDir()),

		KnowledgeBaseDir: os.Getenv("STORY_KB_DIR"),
		ReindexURL:       os.Getenv("STORY_REINDEX_URL"),

		DebounceWindow: 2500 * time.Millisecond,
		ComposeTimeout: 300 * time.Second,
		ComposeBin:     os.Getenv("STORY_COMPOSE_BIN"),

		CaptionServiceURL:   firstNonEmpty(os.Getenv("STORY_CAPTION_URL"), "http://localhost:11434"),
		CaptionServiceModel: firstNonEmpty(os.Getenv("STORY_CAPTION_MODEL"), "llava-llama3"),
		CaptionTimeout:      60 * time.Second,
		GeminiAPIKey:        firstNonEmpty(os.Getenv("GOOGLE_API_KEY"), os.Getenv("GEMINI_API_KEY")),

		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),

		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3Region:    os.Getenv("S3_REGION"),
		S3Bucket:    os.Getenv("S3_BUCKET"),
		S3AccessKey: firstNonEmpty(os.Getenv("S3_ACCESS_KEY"), os.Getenv("S3_ACCESS_KEY_ID")),
		S3SecretKey: firstNonEmpty(os.Getenv("S3_SECRET_ACCESS_KEY"), os.Getenv("S3_SECRET_ACCESS_KEY_ID")),
		S3Prefix:    firstNonEmpty(os.Getenv("S3_PREFIX"), "stories/"),
	}

	if v := os.Getenv("STORY_DEBOUNCE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.DebounceWindow = d
		}
	}

	if v := os.Getenv("STORY_COMPOSE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.ComposeTimeout = d
		}
	}

	if v := os.Getenv("STORY_CAPTION_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.CaptionTimeout = d
		}
	}

	if v := os.Getenv("POSTS_CHATID"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n != 0 {
			cfg.TelegramChatID = n
		}
	}

	if cfg.InboxDir == cfg.OutboxDir {
		return cfg, errors.New("inbox and outbox directories must differ")
	}
	return cfg, nil
}

// MirrorEnabled reports whether the S3 artifact mirror is fully configured.
func (c Config) MirrorEnabled() bool {
	return c.S3Endpoint != "" && c.S3Region != "" && c.S3Bucket != "" &&
		c.S3AccessKey != "" && c.S3SecretKey != ""
}

// NotifyEnabled reports whether Telegram notifications are configured.
func (c Config) NotifyEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != 0
}

func firstNonEmpty(v ...string) string {
	for _, s := range v {
		if s != "" {
			return s
		}
	}
	return ""
}
