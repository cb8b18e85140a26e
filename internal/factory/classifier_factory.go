package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/mail-ledger/internal/adapters/bedrock"
	"github.com/mikey/mail-ledger/internal/adapters/gemini"
	"github.com/mikey/mail-ledger/internal/adapters/openai"
	"github.com/mikey/mail-ledger/internal/classifier"
	"github.com/mikey/mail-ledger/internal/config"
	"github.com/mikey/mail-ledger/internal/core"
	"github.com/mikey/mail-ledger/internal/utils"
)

// ClassifierFactory creates the configured advertisement classifier
type ClassifierFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewClassifierFactory creates a new classifier factory
func NewClassifierFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *ClassifierFactory {
	return &ClassifierFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateClassifier creates a classifier based on the configuration. Every
// external provider is wrapped so the keyword heuristic takes over when the
// provider is unavailable.
func (f *ClassifierFactory) CreateClassifier() (core.Classifier, error) {
	keyword := classifier.NewKeywordClassifier()

	provider := f.cfg.GetClassifier().Provider
	switch provider {
	case "", "keyword":
		return keyword, nil
	case "openai":
		client, err := openai.NewFactory(f.cfg, f.logger, f.textProcessor).CreateClient()
		if err != nil {
			return nil, err
		}
		return classifier.NewFallbackClassifier(client, keyword, f.logger), nil
	case "bedrock":
		client, err := bedrock.NewFactory(f.cfg, f.logger, f.textProcessor).CreateClient()
		if err != nil {
			return nil, err
		}
		return classifier.NewFallbackClassifier(client, keyword, f.logger), nil
	case "gemini":
		client, err := gemini.NewFactory(f.cfg, f.logger, f.textProcessor).CreateClient()
		if err != nil {
			return nil, err
		}
		return classifier.NewFallbackClassifier(client, keyword, f.logger), nil
	default:
		return nil, fmt.Errorf("unsupported classifier provider: %s", provider)
	}
}
