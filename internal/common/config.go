package common

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Scraper   ScraperConfig
	OCR       OCRConfig
	Database  DatabaseConfig
	Cursor    CursorConfig
	Server    ServerConfig
	Notify    NotifyConfig
	Scheduler SchedulerConfig
	LogLevel  string
}

// ScraperConfig holds enforcement-page scraping settings.
type ScraperConfig struct {
	TargetURL           string
	UserAgent           string
	RequestTimeout      time.Duration
	DownloadTimeout     time.Duration
	MaxPDFSizeMB        int
	MonitoringStartDate string // YYYY-MM-DD; entries before this are ignored
}

// OCRConfig holds text-extraction and OCR settings.
type OCRConfig struct {
	Pdftotext     string // binary name or absolute path
	Pdftoppm      string
	Tesseract     string
	TesseractLang string
	DPI           int // rasterization DPI for scanned PDFs
	PSM           int // tesseract page segmentation mode
	MaxPages      int // 0 = no limit
	MinTextLen    int // non-whitespace chars below which OCR kicks in
}

// DatabaseConfig holds the Postgres record store settings.
type DatabaseConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// CursorConfig holds the local SQLite state settings.
type CursorConfig struct {
	Path string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr string
}

// NotifyConfig holds email notification settings.
type NotifyConfig struct {
	Enabled  bool
	SMTPAddr string
	From     string
	To       string // fallback recipient when a facility has no contact
}

// SchedulerConfig holds the daily check times (local, HH:MM).
type SchedulerConfig struct {
	CheckTimes []string
}

// LoadConfig reads configuration from an optional .env file and the
// environment, with defaults for every knob.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	// The .env file is optional; production configures purely through
	// the environment.
	_ = v.ReadInConfig()

	v.SetDefault("TARGET_URL", "https://www.nj.gov/health/healthfacilities/surveys-insp/enforcement_actions.shtml")
	v.SetDefault("USER_AGENT", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("PDF_DOWNLOAD_TIMEOUT", "60s")
	v.SetDefault("MAX_PDF_SIZE_MB", 50)
	v.SetDefault("MONITORING_START_DATE", "2025-09-15")

	v.SetDefault("PDFTOTEXT_BIN", "pdftotext")
	v.SetDefault("PDFTOPPM_BIN", "pdftoppm")
	v.SetDefault("TESSERACT_BIN", "tesseract")
	v.SetDefault("TESSERACT_LANG", "eng")
	v.SetDefault("OCR_DPI", 144) // 2.0x the 72dpi PDF baseline
	v.SetDefault("OCR_PSM", 6)   // uniform block of text
	v.SetDefault("OCR_MAX_PAGES", 0)
	v.SetDefault("MIN_TEXT_LENGTH_FOR_OCR", 50)

	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 1)
	v.SetDefault("DB_MAX_CONN_LIFETIME", "30m")
	v.SetDefault("DB_MAX_CONN_IDLE_TIME", "5m")
	v.SetDefault("DB_DIAL_TIMEOUT", "3s")

	v.SetDefault("CURSOR_DB_PATH", "monitor_state.db")
	v.SetDefault("HTTP_ADDR", ":8080")

	v.SetDefault("NOTIFY_ENABLED", false)
	v.SetDefault("SMTP_ADDR", "localhost:25")
	v.SetDefault("SENDER_EMAIL", "")
	v.SetDefault("RECIPIENT_EMAIL", "")

	v.SetDefault("DAILY_CHECK_TIMES", "09:00,14:00")
	v.SetDefault("LOG_LEVEL", "INFO")

	cfg := &Config{
		Scraper: ScraperConfig{
			TargetURL:           v.GetString("TARGET_URL"),
			UserAgent:           v.GetString("USER_AGENT"),
			RequestTimeout:      v.GetDuration("REQUEST_TIMEOUT"),
			DownloadTimeout:     v.GetDuration("PDF_DOWNLOAD_TIMEOUT"),
			MaxPDFSizeMB:        v.GetInt("MAX_PDF_SIZE_MB"),
			MonitoringStartDate: v.GetString("MONITORING_START_DATE"),
		},
		OCR: OCRConfig{
			Pdftotext:     v.GetString("PDFTOTEXT_BIN"),
			Pdftoppm:      v.GetString("PDFTOPPM_BIN"),
			Tesseract:     v.GetString("TESSERACT_BIN"),
			TesseractLang: v.GetString("TESSERACT_LANG"),
			DPI:           v.GetInt("OCR_DPI"),
			PSM:           v.GetInt("OCR_PSM"),
			MaxPages:      v.GetInt("OCR_MAX_PAGES"),
			MinTextLen:    v.GetInt("MIN_TEXT_LENGTH_FOR_OCR"),
		},
		Database: DatabaseConfig{
			DSN:             v.GetString("DB_URL"),
			MaxConns:        v.GetInt32("DB_MAX_CONNS"),
			MinConns:        v.GetInt32("DB_MIN_CONNS"),
			MaxConnLifetime: v.GetDuration("DB_MAX_CONN_LIFETIME"),
			MaxConnIdleTime: v.GetDuration("DB_MAX_CONN_IDLE_TIME"),
			DialTimeout:     v.GetDuration("DB_DIAL_TIMEOUT"),
		},
		Cursor: CursorConfig{
			Path: v.GetString("CURSOR_DB_PATH"),
		},
		Server: ServerConfig{
			Addr: v.GetString("HTTP_ADDR"),
		},
		Notify: NotifyConfig{
			Enabled:  v.GetBool("NOTIFY_ENABLED"),
			SMTPAddr: v.GetString("SMTP_ADDR"),
			From:     v.GetString("SENDER_EMAIL"),
			To:       v.GetString("RECIPIENT_EMAIL"),
		},
		Scheduler: SchedulerConfig{
			CheckTimes: splitCSV(v.GetString("DAILY_CHECK_TIMES")),
		},
		LogLevel: v.GetString("LOG_LEVEL"),
	}
	return cfg, nil
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.Server.Addr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.Notify.Enabled && c.Notify.From == "" {
		return NewAppError("CONFIG_ERROR", "SENDER_EMAIL is required when NOTIFY_ENABLED", ErrInvalidInput)
	}
	for _, t := range c.Scheduler.CheckTimes {
		if _, err := time.Parse("15:04", t); err != nil {
			return NewAppError("CONFIG_ERROR", "DAILY_CHECK_TIMES entries must be HH:MM", ErrInvalidInput)
		}
	}
	return nil
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
