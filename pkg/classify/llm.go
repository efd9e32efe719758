package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/openrouter"
	"github.com/cloudwego/eino/schema"
	"github.com/go-errors/errors"

	llmconfig "github.com/auditkit/logmine/pkg/config"
)

// Config holds configuration for the LLM-backed classifier.
type Config struct {
	APIKey     string
	Model      string
	HTTPClient *http.Client
}

// LLMClassifier categorizes log lines with an OpenRouter chat model.
type LLMClassifier struct {
	config Config
}

// NewLLMClassifier creates a classifier that resolves its model from the
// explicit config, the MODEL_NAME environment variable, or the default.
func NewLLMClassifier(config Config) *LLMClassifier {
	config.Model = llmconfig.ResolveModel(config.Model)
	return &LLMClassifier{config: config}
}

var _ Classifier = (*LLMClassifier)(nil)

const classifyPrompt = `You are a log analysis expert. Classify the log line below into a category
(one of: authentication, network, database, timeout, resource, application, error, unknown),
an optional sub_category, a confidence in [0,1], and any extracted fields (key-value pairs
such as user, host, code).

Output ONLY a JSON object with no markdown formatting, like:
{"category": "authentication", "sub_category": "login_failure", "confidence": 0.9, "fields": {"user": "alice"}}

Log line:
%s
`

// Classify sends the line to the chat model and parses its JSON verdict.
func (c *LLMClassifier) Classify(ctx context.Context, text string) (Classification, error) {
	resp, err := c.generate(ctx, fmt.Sprintf(classifyPrompt, text))
	if err != nil {
		return Classification{}, errors.Errorf("call LLM: %w", err)
	}

	result, err := parseClassification(resp)
	if err != nil {
		return Classification{}, errors.Errorf("parse LLM response: %w", err)
	}
	return result, nil
}

// GetConfidence asks the model for a single confidence score that the
// line belongs to the expected category.
func (c *LLMClassifier) GetConfidence(ctx context.Context, text, expectedCategory string) (float64, error) {
	prompt := fmt.Sprintf(
		"On a scale from 0 to 1, how confident are you that the log line below belongs to the category %q?\n"+
			"Output ONLY a JSON object with no markdown formatting, like:\n"+
			"{\"confidence\": 0.85}\n\nLog line:\n%s\n", expectedCategory, text)

	resp, err := c.generate(ctx, prompt)
	if err != nil {
		return 0, errors.Errorf("call LLM: %w", err)
	}

	score, err := parseConfidence(resp)
	if err != nil {
		return 0, errors.Errorf("parse LLM response: %w", err)
	}
	return score, nil
}

func (c *LLMClassifier) generate(ctx context.Context, prompt string) (string, error) {
	chatModel, err := openrouter.NewChatModel(ctx, &openrouter.Config{
		APIKey:     c.config.APIKey,
		Model:      c.config.Model,
		HTTPClient: c.config.HTTPClient,
		ResponseFormat: &openrouter.ChatCompletionResponseFormat{
			Type: openrouter.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", errors.Errorf("create chat model: %w", err)
	}

	resp, err := chatModel.Generate(ctx, []*schema.Message{
		{Role: schema.User, Content: prompt},
	})
	if err != nil {
		return "", errors.Errorf("generate: %w", err)
	}
	return resp.Content, nil
}

func parseClassification(content string) (Classification, error) {
	content = stripCodeFences(content)

	var result Classification
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return Classification{}, errors.Errorf("JSON decode (content=%q): %w", content[:min(len(content), 200)], err)
	}
	if result.Category == "" {
		result.Category = "unknown"
	}
	result.Confidence = min(max(result.Confidence, 0), 1)
	return result, nil
}

// parseConfidence decodes the JSON confidence verdict. Some models ignore
// the response format and return a bare number, so that shape is accepted
// as well.
func parseConfidence(content string) (float64, error) {
	content = strings.TrimSpace(stripCodeFences(content))

	if score, err := strconv.ParseFloat(content, 64); err == nil {
		return min(max(score, 0), 1), nil
	}

	var result struct {
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return 0, errors.Errorf("JSON decode (content=%q): %w", content[:min(len(content), 200)], err)
	}
	return min(max(result.Confidence, 0), 1), nil
}

// stripCodeFences removes a surrounding markdown code fence if the model
// added one despite the JSON response format.
func stripCodeFences(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	lines := strings.Split(content, "\n")
	if len(lines) >= 2 {
		lines = lines[1:]
		if len(lines) > 0 && strings.HasPrefix(lines[len(lines)-1], "```") {
			lines = lines[:len(lines)-1]
		}
	}
	return strings.Join(lines, "\n")
}
