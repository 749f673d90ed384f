package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Vault
		Import
		Watch
		Global
		Database
		Tasks
	}

	HTTP struct {
		Port int32
		Host string
	}
	Vault struct {
		Dir string // Root directory for markdown notes and attachments
	}
	Import struct {
		MaxTableRows    int
		MaxTableColumns int
		ClozeStyle      string // "curly" or "highlight"
		ChoiceQuestion  string
		ChoiceOptions   string
		ChoiceAnswer    string
		TargetDeck      string // Force all imports into one deck when set
		ReuseDecks      bool
		MaxUploadBytes  int64
	}
	Watch struct {
		Enabled  bool
		Dir      string
		Schedule string // Cron format: "*/5 * * * *" = every 5 minutes
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8288)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("vault_dir", DefaultVaultDir)

	// Import defaults
	v.SetDefault("import_max_table_rows", 20)
	v.SetDefault("import_max_table_columns", 8)
	v.SetDefault("import_cloze_style", "curly")
	v.SetDefault("import_choice_question", "Question")
	v.SetDefault("import_choice_options", "Options")
	v.SetDefault("import_choice_answer", "Answer")
	v.SetDefault("import_target_deck", "")
	v.SetDefault("import_reuse_decks", true)
	v.SetDefault("import_max_upload_bytes", 256<<20)

	// Watch folder defaults
	v.SetDefault("watch_enabled", false)
	v.SetDefault("watch_dir", "./watch")
	v.SetDefault("watch_schedule", "*/5 * * * *") // Every 5 minutes

	// Import queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 1)
	v.SetDefault("task_release_after", "30m")
	v.SetDefault("task_cleanup_interval", "1h")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Vault: Vault{
			Dir: v.GetString("VAULT_DIR"),
		},
		Import: Import{
			MaxTableRows:    v.GetInt("IMPORT_MAX_TABLE_ROWS"),
			MaxTableColumns: v.GetInt("IMPORT_MAX_TABLE_COLUMNS"),
			ClozeStyle:      v.GetString("IMPORT_CLOZE_STYLE"),
			ChoiceQuestion:  v.GetString("IMPORT_CHOICE_QUESTION"),
			ChoiceOptions:   v.GetString("IMPORT_CHOICE_OPTIONS"),
			ChoiceAnswer:    v.GetString("IMPORT_CHOICE_ANSWER"),
			TargetDeck:      v.GetString("IMPORT_TARGET_DECK"),
			ReuseDecks:      v.GetBool("IMPORT_REUSE_DECKS"),
			MaxUploadBytes:  v.GetInt64("IMPORT_MAX_UPLOAD_BYTES"),
		},
		Watch: Watch{
			Enabled:  v.GetBool("WATCH_ENABLED"),
			Dir:      v.GetString("WATCH_DIR"),
			Schedule: v.GetString("WATCH_SCHEDULE"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
	}
}
