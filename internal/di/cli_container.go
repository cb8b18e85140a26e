package di

import (
	"flag"
	"strings"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/mail-ledger/internal/config"
	"github.com/mikey/mail-ledger/internal/logging"
)

// CLIFlags contains all command line flags for the CLI application
type CLIFlags struct {
	// Mailbox flags
	Host     string
	Port     string
	Username string
	Password string
	Mailbox  string
	NoTLS    bool

	// Classifier flags
	Provider string

	// Storage flags
	StorageType string
	LedgerPath  string
	StatsPath   string
	SQLitePath  string
	MySQLDSN    string

	// Spam handling flags
	KeepSpam   bool
	ArchiveDir string
	Whitelist  string

	// Processing flags
	Limit   int
	Workers int

	// Output flags
	ShowStats  bool
	ResetStats bool
	Verbose    bool
	JSONLog    bool
	ConfigFile string
}

// ParseFlags parses command line flags and returns a CLIFlags struct
func ParseFlags() *CLIFlags {
	flags := &CLIFlags{}

	// Mailbox flags
	flag.StringVar(&flags.Host, "host", "", "IMAP server hostname")
	flag.StringVar(&flags.Port, "port", "993", "IMAP server port")
	flag.StringVar(&flags.Username, "username", "", "IMAP account username")
	flag.StringVar(&flags.Password, "password", "", "IMAP account password")
	flag.StringVar(&flags.Mailbox, "mailbox", "INBOX", "Mailbox to process")
	flag.BoolVar(&flags.NoTLS, "no-tls", false, "Use STARTTLS instead of implicit TLS")

	// Classifier flags
	flag.StringVar(&flags.Provider, "provider", "keyword", "Classifier provider (keyword, openai, bedrock, gemini)")

	// Storage flags
	flag.StringVar(&flags.StorageType, "storage", "csv", "Storage backend (csv, sqlite, mysql, memory)")
	flag.StringVar(&flags.LedgerPath, "ledger", "email_contacts.csv", "Path to the contact ledger CSV file")
	flag.StringVar(&flags.StatsPath, "stats", "email_stats.json", "Path to the statistics JSON file")
	flag.StringVar(&flags.SQLitePath, "sqlite", "mail_ledger.db", "Path to the SQLite database file")
	flag.StringVar(&flags.MySQLDSN, "mysql-dsn", "", "MySQL DSN for the mysql storage backend")

	// Spam handling flags
	flag.BoolVar(&flags.KeepSpam, "keep-spam", false, "Archive advertisements without deleting them from the server")
	flag.StringVar(&flags.ArchiveDir, "archive-dir", "", "Directory for archived advertisements (default: ~/MailLedger/spam)")
	flag.StringVar(&flags.Whitelist, "whitelist", "", "Comma-separated list of whitelisted sender domains")

	// Processing flags
	flag.IntVar(&flags.Limit, "limit", 10, "Maximum number of messages to process (0 = all)")
	flag.IntVar(&flags.Workers, "workers", 0, "Number of worker goroutines (0 = CPU count - 1)")

	// Output flags
	flag.BoolVar(&flags.ShowStats, "show-stats", false, "Print stored statistics and exit without processing")
	flag.BoolVar(&flags.ResetStats, "reset-stats", false, "Reset stored statistics before processing")
	flag.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	flag.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	flag.StringVar(&flags.ConfigFile, "config", "", "Path to config file (overrides command line flags)")

	flag.Parse()
	return flags
}

// BuildCLIContainer creates and configures a dependency injection container
// for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		if flags.ConfigFile != "" {
			cfg, err := config.New()
			if err != nil {
				return nil, err
			}
			logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
			return cfg, nil
		}

		// Create config from command line flags
		return createConfigFromFlags(flags), nil
	}); err != nil {
		return nil, err
	}

	return registerComponents(container)
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags(flags *CLIFlags) *config.Config {
	v := config.NewEmptyViper()

	// Set mailbox configuration
	v.Set("mailbox.host", flags.Host)
	v.Set("mailbox.port", flags.Port)
	v.Set("mailbox.username", flags.Username)
	v.Set("mailbox.password", flags.Password)
	v.Set("mailbox.name", flags.Mailbox)
	v.Set("mailbox.tls", !flags.NoTLS)

	// Set classifier provider
	v.Set("classifier.provider", flags.Provider)

	// Set storage configuration
	v.Set("storage.type", flags.StorageType)
	v.Set("storage.ledger_path", flags.LedgerPath)
	v.Set("storage.stats_path", flags.StatsPath)
	v.Set("storage.sqlite_path", flags.SQLitePath)
	if flags.MySQLDSN != "" {
		v.Set("storage.mysql_dsn", flags.MySQLDSN)
	}

	// Set spam handling configuration
	v.Set("spam.delete_remote", !flags.KeepSpam)
	v.Set("spam.archive_dir", flags.ArchiveDir)
	if flags.Whitelist != "" {
		domains := strings.Split(flags.Whitelist, ",")
		for i, domain := range domains {
			domains[i] = strings.TrimSpace(domain)
		}
		v.Set("spam.whitelisted_domains", domains)
	}

	// Set processing configuration
	v.Set("processing.limit", flags.Limit)
	v.Set("processing.workers", flags.Workers)

	return config.NewFromViper(v)
}
