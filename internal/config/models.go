package config

// MailboxConfig represents the remote mailbox connection settings
type MailboxConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Name     string
	TLS      bool
}

// ClassifierConfig selects the classification provider
type ClassifierConfig struct {
	Provider string
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// SpamConfig represents spam archival and deletion settings
type SpamConfig struct {
	DeleteRemote       bool
	ArchiveDir         string
	WhitelistedDomains []string
}

// StorageConfig represents ledger and statistics persistence settings
type StorageConfig struct {
	Type       string
	LedgerPath string
	StatsPath  string
	SQLitePath string
	MySQLDSN   string
	MaxRetries int
}

// ProcessingConfig represents batch processing settings
type ProcessingConfig struct {
	Limit   int
	Workers int
}

// GetMailbox returns the mailbox configuration
func (c *Config) GetMailbox() MailboxConfig {
	return MailboxConfig{
		Host:     c.GetString("mailbox.host"),
		Port:     c.GetString("mailbox.port"),
		Username: c.GetString("mailbox.username"),
		Password: c.GetString("mailbox.password"),
		Name:     c.GetString("mailbox.name"),
		TLS:      c.GetBool("mailbox.tls"),
	}
}

// GetClassifier returns the classifier configuration
func (c *Config) GetClassifier() ClassifierConfig {
	return ClassifierConfig{
		Provider: c.GetString("classifier.provider"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
		MaxBodySize: c.GetInt("openai.max_body_size"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
		MaxBodySize: c.GetInt("bedrock.max_body_size"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
		MaxBodySize: c.GetInt("gemini.max_body_size"),
	}
}

// GetSpam returns the spam handling configuration
func (c *Config) GetSpam() SpamConfig {
	return SpamConfig{
		DeleteRemote:       c.GetBool("spam.delete_remote"),
		ArchiveDir:         c.GetString("spam.archive_dir"),
		WhitelistedDomains: c.GetStringSlice("spam.whitelisted_domains"),
	}
}

// GetStorage returns the storage configuration
func (c *Config) GetStorage() StorageConfig {
	return StorageConfig{
		Type:       c.GetString("storage.type"),
		LedgerPath: c.GetString("storage.ledger_path"),
		StatsPath:  c.GetString("storage.stats_path"),
		SQLitePath: c.GetString("storage.sqlite_path"),
		MySQLDSN:   c.GetString("storage.mysql_dsn"),
		MaxRetries: c.GetInt("storage.max_retries"),
	}
}

// GetProcessing returns the processing configuration
func (c *Config) GetProcessing() ProcessingConfig {
	return ProcessingConfig{
		Limit:   c.GetInt("processing.limit"),
		Workers: c.GetInt("processing.workers"),
	}
}
