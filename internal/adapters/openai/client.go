package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/mikey/mail-ledger/internal/core"
	"github.com/mikey/mail-ledger/internal/utils"
)

// Client is an OpenAI-backed implementation of the Classifier interface
type Client struct {
	client        *openai.Client
	modelName     string
	maxTokens     int
	temperature   float32
	topP          float32
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

// NewClient creates a new OpenAI classification client
func NewClient(
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *Client {
	return &Client{
		client:        openai.NewClient(apiKey),
		modelName:     modelName,
		maxTokens:     maxTokens,
		temperature:   temperature,
		topP:          topP,
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
	}
}

// Classify asks the model for an advertisement verdict. Any failure is
// reported as a ClassificationError so callers can fall back to the keyword
// heuristic.
func (c *Client) Classify(ctx context.Context, text string) (*core.ClassificationResult, error) {
	prompt := fmt.Sprintf(c.promptFormat, c.textProcessor.ProcessText(text, c.maxBodySize))

	req := openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are an advertisement detection system. Respond only with JSON.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		TopP:        c.topP,
	}
	req.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, &core.ClassificationError{Provider: "openai", Err: err}
	}
	if len(resp.Choices) == 0 {
		return nil, &core.ClassificationError{Provider: "openai", Err: fmt.Errorf("empty response")}
	}

	verdict, err := parseVerdict(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, &core.ClassificationError{Provider: "openai", Err: err}
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
