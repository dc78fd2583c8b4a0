package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	defaultTemplateName    = "rfq_mall.xlsx"
	defaultTranslationName = "database_RFQ.xlsx"
	defaultOutputName      = "komplett_rfqdokument.xlsx"
)

type Config struct {
	BaseDir         string
	TemplatePath    string
	TranslationPath string
	ClausesPath     string
	OutputDir       string
	OutputName      string
	DBPath          string

	ListenAddr  string
	MaxUploadMB int

	InboxDir         string
	WatchIntervalSec int
	MailProvider     string
	MailLabel        string
	MailFetchMax     int

	GmailClientID     string
	GmailClientSecret string
	GmailRedirectURI  string
	GmailRefreshToken string
	GmailRateLimitRPS int

	IMAPHost     string
	IMAPPort     int
	IMAPSecure   bool
	IMAPUser     string
	IMAPPassword string
	IMAPMarkSeen bool

	ManualFill  string
	YesWord     string
	NoWord      string
	PagesBefore int
	PagesAfter  int

	LogLevel string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	root, err := appDir()
	if err != nil {
		return Config{}, err
	}
	base := getEnv("RFQ_BASE_DIR", filepath.Join(root, "backend_data"))

	cfg := Config{
		BaseDir:         base,
		TemplatePath:    getEnv("RFQ_TEMPLATE_PATH", filepath.Join(base, defaultTemplateName)),
		TranslationPath: getEnv("RFQ_TRANSLATION_PATH", filepath.Join(base, defaultTranslationName)),
		ClausesPath:     getEnv("RFQ_CLAUSES_PATH", ""),
		OutputDir:       getEnv("RFQ_OUTPUT_DIR", filepath.Join(root, "output")),
		OutputName:      getEnv("RFQ_OUTPUT_NAME", defaultOutputName),
		DBPath:          getEnv("DB_PATH", filepath.Join(root, "data", "runs.db")),

		ListenAddr:  getEnv("RFQ_LISTEN_ADDR", ":8080"),
		MaxUploadMB: getEnvInt("RFQ_MAX_UPLOAD_MB", 20),

		InboxDir:         getEnv("RFQ_INBOX_DIR", filepath.Join(root, "data", "inbox")),
		WatchIntervalSec: getEnvInt("RFQ_WATCH_INTERVAL_SEC", 30),
		MailProvider:     getEnv("MAIL_LISTENER_PROVIDER", ""),
		MailLabel:        getEnv("MAIL_LISTENER_LABEL", "INBOX"),
		MailFetchMax:     getEnvInt("MAIL_LISTENER_FETCH_MAX", 20),

		GmailClientID:     getEnv("GMAIL_CLIENT_ID", ""),
		GmailClientSecret: getEnv("GMAIL_CLIENT_SECRET", ""),
		GmailRedirectURI:  getEnv("GMAIL_REDIRECT_URI", "https://developers.google.com/oauthplayground"),
		GmailRefreshToken: getEnv("GMAIL_REFRESH_TOKEN", ""),
		GmailRateLimitRPS: getEnvInt("GMAIL_RATE_LIMIT_RPS", 5),

		IMAPHost:     getEnv("IMAP_HOST", ""),
		IMAPPort:     getEnvInt("IMAP_PORT", 993),
		IMAPSecure:   getEnvBool("IMAP_SECURE", true),
		IMAPUser:     getEnv("IMAP_USER", ""),
		IMAPPassword: getEnv("IMAP_PASSWORD", ""),
		IMAPMarkSeen: getEnvBool("IMAP_MARK_SEEN", false),

		ManualFill:  getEnv("RFQ_MANUAL_FILL", "fyll i manuellt"),
		YesWord:     getEnv("RFQ_YES_WORD", "Ja"),
		NoWord:      getEnv("RFQ_NO_WORD", "Nej"),
		PagesBefore: getEnvInt("RFQ_PAGES_BEFORE", 7),
		PagesAfter:  getEnvInt("RFQ_PAGES_AFTER", 18),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg, nil
}

// OutputPath is where generated documents go unless a caller says otherwise.
func (c Config) OutputPath() string {
	return filepath.Join(c.OutputDir, c.OutputName)
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

// appDir is the directory holding the running executable. `go run` builds
// into a temp dir, so the working directory is used when that is the case.
func appDir() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	exe, err := os.Executable()
	if err != nil {
		return cwd, nil
	}
	dir := filepath.Dir(exe)
	if strings.HasPrefix(dir, os.TempDir()) {
		return cwd, nil
	}
	return dir, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}
