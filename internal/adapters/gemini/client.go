package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/mikey/mail-ledger/internal/core"
	"github.com/mikey/mail-ledger/internal/utils"
)

// Client is a Google Gemini implementation of the Classifier interface
type Client struct {
	client        *genai.Client
	model         *genai.GenerativeModel
	modelName     string
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
	promptFormat  string
}

// adResponse is the structured verdict requested from the model
type adResponse struct {
	IsAdvertisement bool     `json:"is_advertisement"`
	Indicators      []string `json:"indicators"`
}

// NewClient creates a new Gemini classification client
func NewClient(
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) (*Client, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.SetTopP(topP)
	model.SetMaxOutputTokens(int32(maxTokens))

	return &Client{
		client:        client,
		model:         model,
		modelName:     modelName,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
		promptFormat: `You are an advertisement detection system. Analyze the following email text and determine whether it is promotional.
Respond with a JSON object containing:
- is_advertisement: boolean (true if the text is promotional)
- indicators: array of strings (the promotional phrases you found)

Email text:
%s

Respond only with the JSON object and nothing else.`,
	}, nil
}

// Close closes the underlying Gemini client
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// Classify asks the model for an advertisement verdict
func (c *Client) Classify(ctx context.Context, text string) (*core.ClassificationResult, error) {
	prompt := fmt.Sprintf(c.promptFormat, c.textProcessor.ProcessText(text, c.maxBodySize))

	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, &core.ClassificationError{Provider: "gemini", Err: err}
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, &core.ClassificationError{Provider: "gemini", Err: fmt.Errorf("empty response")}
	}

	responseText := fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0])
	verdict, err := parseVerdict(responseText)
	if err != nil {
		return nil, &core.ClassificationError{Provider: "gemini", Err: err}
	}
	return &core.ClassificationResult{
		IsAdvertisement:   verdict.IsAdvertisement,
		MatchedIndicators: verdict.Indicators,
	}, nil
}

// parseVerdict parses the model's JSON reply, tolerating surrounding prose
func parseVerdict(responseText string) (*adResponse, error) {
	var verdict adResponse
	if err := json.Unmarshal([]byte(responseText), &verdict); err == nil {
		return &verdict, nil
	}

	start := strings.IndexByte(responseText, '{')
	end := strings.LastIndexByte(responseText, '}')
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in model response")
	}
	if err := json.Unmarshal([]byte(responseText[start:end+1]), &verdict); err != nil {
		return nil, fmt.Errorf("failed to parse model response as JSON: %w", err)
	}
	return &verdict, nil
}
