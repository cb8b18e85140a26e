package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"go.uber.org/zap"

	"github.com/mikey/mail-ledger/internal/core"
	"github.com/mikey/mail-ledger/internal/utils"
)

// Client is an Amazon Bedrock implementation of the Classifier interface
type Client struct {
	client        *bedrockruntime.Client
	modelID       string
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

// NewClient creates a new Bedrock classification client
func NewClient(
	client *bedrockruntime.Client,
	modelID string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *Client {
	return &Client{
		client:        client,
		modelID:       modelID,
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

// Classify asks the model for an advertisement verdict
func (c *Client) Classify(ctx context.Context, text string) (*core.ClassificationResult, error) {
	prompt := fmt.Sprintf(c.promptFormat, c.textProcessor.ProcessText(text, c.maxBodySize))

	var payload []byte
	var err error
	if c.isAnthropicModel() {
		payload, err = json.Marshal(map[string]interface{}{
			"prompt":               prompt,
			"max_tokens_to_sample": c.maxTokens,
			"temperature":          c.temperature,
			"top_p":                c.topP,
		})
	} else {
		payload, err = json.Marshal(map[string]interface{}{
			"prompt":      prompt,
			"max_tokens":  c.maxTokens,
			"temperature": c.temperature,
			"top_p":       c.topP,
		})
	}
	if err != nil {
		return nil, &core.ClassificationError{Provider: "bedrock", Err: fmt.Errorf("failed to marshal request payload: %w", err)}
	}

	resp, err := c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     &c.modelID,
		Body:        payload,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return nil, &core.ClassificationError{Provider: "bedrock", Err: err}
	}

	responseText, err := c.responseText(resp.Body)
	if err != nil {
		return nil, &core.ClassificationError{Provider: "bedrock", Err: err}
	}

	verdict, err := parseVerdict(responseText)
	if err != nil {
		return nil, &core.ClassificationError{Provider: "bedrock", Err: err}
	}
	return &core.ClassificationResult{
		IsAdvertisement:   verdict.IsAdvertisement,
		MatchedIndicators: verdict.Indicators,
	}, nil
}

// responseText extracts the generated text for the model family in use
func (c *Client) responseText(body []byte) (string, error) {
	if c.isAnthropicModel() {
		var claudeResp struct {
			Completion string `json:"completion"`
		}
		if err := json.Unmarshal(body, &claudeResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Claude response: %w", err)
		}
		return claudeResp.Completion, nil
	}

	var genericResp struct {
		Output   string `json:"output"`
		Text     string `json:"text"`
		Response string `json:"response"`
	}
	if err := json.Unmarshal(body, &genericResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal model response: %w", err)
	}
	switch {
	case genericResp.Output != "":
		return genericResp.Output, nil
	case genericResp.Text != "":
		return genericResp.Text, nil
	case genericResp.Response != "":
		return genericResp.Response, nil
	}
	return string(body), nil
}

func (c *Client) isAnthropicModel() bool {
	return strings.HasPrefix(c.modelID, "anthropic.claude")
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
