package main

import (
	"time"

	"github.com/sonnes/lekhak/provider/gemini"
	"github.com/sonnes/lekhak/service"
	"github.com/urfave/cli/v3"
)

// config is the runtime configuration shared by all commands. Every field is
// backed by a flag that can also be set from the environment.
type config struct {
	Port int

	SessionDir       string
	DefaultSession   string
	LayoutFile       string
	LogoPath         string
	CoverPage        bool
	CompressPDF      bool
	Redact           string
	ClearAfterUpload bool

	Provider        string
	GeminiAPIKey    string
	Model           string
	Prompt          string
	ProjectID       string
	Location        string
	ProviderTimeout time.Duration

	TTS             bool
	LanguageCode    string
	VoiceName       string
	SSMLGender      string
	AudioEncoding   string
	CredentialsFile string

	Blob          string
	Bucket        string
	DriveFolderID string
	BlobDir       string
	BlobBaseURL   string

	History       string
	RedisAddr     string
	RedisPassword string
	SQLitePath    string

	AMQPURL      string
	AMQPExchange string
}

func configFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "port", Usage: "HTTP port", Value: 3000, Sources: cli.EnvVars("PORT")},

		&cli.StringFlag{Name: "session-dir", Usage: "Directory holding session PDFs", Value: "session", Sources: cli.EnvVars("SESSION_DIR")},
		&cli.StringFlag{Name: "default-session", Usage: "Session used when a request names none", Value: service.DefaultSession, Sources: cli.EnvVars("DEFAULT_SESSION")},
		&cli.StringFlag{Name: "layout", Usage: "YAML file overriding the page layout", Sources: cli.EnvVars("LAYOUT_FILE")},
		&cli.StringFlag{Name: "logo", Usage: "PNG or JPEG drawn on every page", Sources: cli.EnvVars("LOGO_PATH")},
		&cli.BoolFlag{Name: "cover", Usage: "Start new transcripts with a cover page", Sources: cli.EnvVars("COVER_PAGE")},
		&cli.BoolFlag{Name: "compress", Usage: "Compress PDF page streams", Sources: cli.EnvVars("PDF_COMPRESS")},
		&cli.StringFlag{Name: "redact", Usage: "Redaction rules: secrets, pii, or none", Value: "none", Sources: cli.EnvVars("REDACT")},
		&cli.BoolFlag{Name: "clear-after-upload", Usage: "Reset a session once it is uploaded", Value: true, Sources: cli.EnvVars("CLEAR_AFTER_UPLOAD")},

		&cli.StringFlag{Name: "provider", Usage: "Generation backend: gemini or vertex", Value: gemini.BackendGemini, Sources: cli.EnvVars("PROVIDER")},
		&cli.StringFlag{Name: "gemini-api-key", Usage: "Gemini API key", Sources: cli.EnvVars("GEMINI_API_KEY")},
		&cli.StringFlag{Name: "model", Usage: "Generation model", Value: gemini.DefaultModel, Sources: cli.EnvVars("MODEL")},
		&cli.StringFlag{Name: "prompt", Usage: "Text prepended to every user message", Sources: cli.EnvVars("PROMPT")},
		&cli.StringFlag{Name: "project", Usage: "Google Cloud project (Vertex AI)", Sources: cli.EnvVars("PROJECT_ID")},
		&cli.StringFlag{Name: "location", Usage: "Google Cloud location (Vertex AI)", Value: "us-central1", Sources: cli.EnvVars("LOCATION")},
		&cli.DurationFlag{Name: "provider-timeout", Usage: "Deadline for each provider call", Value: 30 * time.Second, Sources: cli.EnvVars("PROVIDER_TIMEOUT")},

		&cli.BoolFlag{Name: "tts", Usage: "Synthesize speech for answers", Value: true, Sources: cli.EnvVars("TTS")},
		&cli.StringFlag{Name: "language-code", Usage: "Speech language", Value: "en-US", Sources: cli.EnvVars("LANGUAGE_CODE")},
		&cli.StringFlag{Name: "voice", Usage: "Speech voice name", Sources: cli.EnvVars("MODEL_NAME")},
		&cli.StringFlag{Name: "ssml-gender", Usage: "Speech voice gender", Sources: cli.EnvVars("SSML_GENDER")},
		&cli.StringFlag{Name: "audio-encoding", Usage: "Speech audio encoding", Value: "MP3", Sources: cli.EnvVars("AUDIO_ENCODING")},
		&cli.StringFlag{Name: "credentials", Usage: "Service account key file", Sources: cli.EnvVars("GOOGLE_APPLICATION_CREDENTIALS")},

		&cli.StringFlag{Name: "blob", Usage: "Archive backend: gcs, drive, local, or empty to disable", Sources: cli.EnvVars("BLOB")},
		&cli.StringFlag{Name: "bucket", Usage: "Cloud Storage bucket", Sources: cli.EnvVars("BUCKET_NAME")},
		&cli.StringFlag{Name: "drive-folder", Usage: "Drive folder id", Sources: cli.EnvVars("DRIVE_FOLDER_ID")},
		&cli.StringFlag{Name: "blob-dir", Usage: "Directory for the local archive", Value: "archive", Sources: cli.EnvVars("BLOB_DIR")},
		&cli.StringFlag{Name: "blob-base-url", Usage: "URL prefix of the local archive", Sources: cli.EnvVars("BLOB_BASE_URL")},

		&cli.StringFlag{Name: "history", Usage: "History backend: memory, redis, sqlite", Value: "memory", Sources: cli.EnvVars("HISTORY")},
		&cli.StringFlag{Name: "redis-addr", Usage: "Redis address", Value: "localhost:6379", Sources: cli.EnvVars("REDIS_ADDR")},
		&cli.StringFlag{Name: "redis-password", Usage: "Redis password", Sources: cli.EnvVars("REDIS_PASSWORD")},
		&cli.StringFlag{Name: "sqlite", Usage: "SQLite history database", Value: "history.db", Sources: cli.EnvVars("SQLITE_PATH")},

		&cli.StringFlag{Name: "amqp-url", Usage: "RabbitMQ URL for transcript events", Sources: cli.EnvVars("AMQP_URL")},
		&cli.StringFlag{Name: "amqp-exchange", Usage: "RabbitMQ exchange", Value: "transcript", Sources: cli.EnvVars("AMQP_EXCHANGE")},
	}
}

func loadConfig(cmd *cli.Command) config {
	return config{
		Port: int(cmd.Int("port")),

		SessionDir:       cmd.String("session-dir"),
		DefaultSession:   cmd.String("default-session"),
		LayoutFile:       cmd.String("layout"),
		LogoPath:         cmd.String("logo"),
		CoverPage:        cmd.Bool("cover"),
		CompressPDF:      cmd.Bool("compress"),
		Redact:           cmd.String("redact"),
		ClearAfterUpload: cmd.Bool("clear-after-upload"),

		Provider:        cmd.String("provider"),
		GeminiAPIKey:    cmd.String("gemini-api-key"),
		Model:           cmd.String("model"),
		Prompt:          cmd.String("prompt"),
		ProjectID:       cmd.String("project"),
		Location:        cmd.String("location"),
		ProviderTimeout: cmd.Duration("provider-timeout"),

		TTS:             cmd.Bool("tts"),
		LanguageCode:    cmd.String("language-code"),
		VoiceName:       cmd.String("voice"),
		SSMLGender:      cmd.String("ssml-gender"),
		AudioEncoding:   cmd.String("audio-encoding"),
		CredentialsFile: cmd.String("credentials"),

		Blob:          cmd.String("blob"),
		Bucket:        cmd.String("bucket"),
		DriveFolderID: cmd.String("drive-folder"),
		BlobDir:       cmd.String("blob-dir"),
		BlobBaseURL:   cmd.String("blob-base-url"),

		History:       cmd.String("history"),
		RedisAddr:     cmd.String("redis-addr"),
		RedisPassword: cmd.String("redis-password"),
		SQLitePath:    cmd.String("sqlite"),

		AMQPURL:      cmd.String("amqp-url"),
		AMQPExchange: cmd.String("amqp-exchange"),
	}
}
