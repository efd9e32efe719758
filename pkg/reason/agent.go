package reason

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/cloudwego/eino-ext/adk/backend/local"
	"github.com/cloudwego/eino-ext/components/model/openrouter"
	"github.com/cloudwego/eino/adk"
	fsmw "github.com/cloudwego/eino/adk/middlewares/filesystem"
	"github.com/cloudwego/eino/schema"
	"github.com/go-errors/errors"
)

func agentInstruction(workDir string) string {
	return fmt.Sprintf(`You are a log analysis expert helping developers troubleshoot issues.

Your workspace contains pre-processed log data at %[1]s:
- %[1]s/raw.log — the original log records
- %[1]s/summary.txt — templates discovered by automated mining, with occurrence counts and samples
- %[1]s/errors.txt — error and warning templates plus lines whose classification failed

Start by reading %[1]s/summary.txt and %[1]s/errors.txt to understand the log shape.
Then use grep and read_file on %[1]s/raw.log to investigate specific templates in detail.
You can also use the execute tool to run shell commands (e.g., awk, sort, wc) for deeper analysis.

Provide:
1. Key findings from the logs
2. Anomalies or error patterns detected
3. Root cause analysis (if a problem description is provided)
4. Suggested next steps for debugging

End with a line "Confidence: <0..1>" giving your confidence in the analysis.
Be concise and actionable. Focus on what matters.`, workDir)
}

// runAgent runs the agentic investigation over the workspace: an adk
// agent with filesystem tooling, iterating up to MaxIterations.
func (a *Analyzer) runAgent(ctx context.Context, workDir, question string) (string, error) {
	if err := preflightCheck(a.cfg.APIKey); err != nil {
		return "", err
	}

	chatModel, err := openrouter.NewChatModel(ctx, &openrouter.Config{
		APIKey:     a.cfg.APIKey,
		Model:      a.cfg.Model,
		HTTPClient: &http.Client{Transport: &fixupRoundTripper{base: http.DefaultTransport}},
	})
	if err != nil {
		return "", errors.Errorf("create chat model: %w", err)
	}

	backend, err := local.NewBackend(ctx, &local.Config{})
	if err != nil {
		return "", errors.Errorf("create local backend: %w", err)
	}
	fsMiddleware, err := fsmw.NewMiddleware(ctx, &fsmw.Config{
		Backend: backend,
	})
	if err != nil {
		return "", errors.Errorf("create filesystem middleware: %w", err)
	}

	agent, err := adk.NewChatModelAgent(ctx, &adk.ChatModelAgentConfig{
		Name:          "log-analyzer",
		Description:   "Analyzes log files to find root causes",
		Instruction:   agentInstruction(workDir),
		Model:         chatModel,
		Middlewares:   []adk.AgentMiddleware{fsMiddleware},
		MaxIterations: a.cfg.MaxIterations,
	})
	if err != nil {
		return "", errors.Errorf("create agent: %w", err)
	}

	userMessage := "Analyze the log files in the workspace."
	if question != "" {
		userMessage = fmt.Sprintf("Analyze the log files in the workspace. The user's question: %s", question)
	}

	runner := adk.NewRunner(ctx, adk.RunnerConfig{
		Agent: agent,
	})
	iter := runner.Query(ctx, userMessage)

	var result strings.Builder
	for {
		event, ok := iter.Next()
		if !ok {
			break
		}
		if event.Err != nil {
			return "", errors.Errorf("agent error: %w", event.Err)
		}
		msg, _, err := adk.GetMessage(event)
		if err != nil {
			continue
		}
		if msg != nil && msg.Role == "assistant" && msg.Content != "" {
			result.WriteString(msg.Content)
		}
	}
	if result.Len() == 0 {
		return "", errors.New("agent produced no output")
	}
	return result.String(), nil
}

// runSingleShot skips the agent loop and asks the model once, inlining
// the workspace summaries into the prompt.
func (a *Analyzer) runSingleShot(ctx context.Context, workDir, question string) (string, error) {
	summary, err := os.ReadFile(filepath.Join(workDir, "summary.txt"))
	if err != nil {
		return "", errors.Errorf("read summary: %w", err)
	}
	errorsTxt, err := os.ReadFile(filepath.Join(workDir, "errors.txt"))
	if err != nil {
		return "", errors.Errorf("read errors: %w", err)
	}

	chatModel, err := openrouter.NewChatModel(ctx, &openrouter.Config{
		APIKey: a.cfg.APIKey,
		Model:  a.cfg.Model,
	})
	if err != nil {
		return "", errors.Errorf("create chat model: %w", err)
	}

	prompt := fmt.Sprintf(`Analyze the log mining output below. Provide numbered key findings,
anomalies, root cause analysis if a question is given, and next steps.
End with a line "Confidence: <0..1>".

## Template summary
%s

## Errors
%s
`, summary, errorsTxt)
	if question != "" {
		prompt += fmt.Sprintf("\n## User question\n%s\n", question)
	}

	resp, err := chatModel.Generate(ctx, []*schema.Message{
		{Role: schema.System, Content: "You are a log analysis expert. Be concise and actionable."},
		{Role: schema.User, Content: prompt},
	})
	if err != nil {
		return "", errors.Errorf("generate: %w", err)
	}
	return resp.Content, nil
}

// fixupRoundTripper patches outgoing API requests: eino omits "content"
// on tool messages with empty results, which some providers reject.
type fixupRoundTripper struct {
	base http.RoundTripper
}

func (rt *fixupRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Body != nil && req.Method == http.MethodPost {
		bodyBytes, _ := io.ReadAll(req.Body)
		bodyBytes = fixToolMessages(bodyBytes)
		req.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		req.ContentLength = int64(len(bodyBytes))
	}
	return rt.base.RoundTrip(req)
}

func fixToolMessages(body []byte) []byte {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return body
	}
	messagesRaw, ok := payload["messages"]
	if !ok {
		return body
	}
	var messages []map[string]any
	if err := json.Unmarshal(messagesRaw, &messages); err != nil {
		return body
	}

	changed := false
	for _, msg := range messages {
		if msg["role"] == "tool" {
			if _, hasContent := msg["content"]; !hasContent {
				msg["content"] = ""
				changed = true
			}
		}
	}
	if !changed {
		return body
	}

	fixedMessages, err := json.Marshal(messages)
	if err != nil {
		return body
	}
	payload["messages"] = fixedMessages
	result, err := json.Marshal(payload)
	if err != nil {
		return body
	}
	return result
}

// preflightCheck does a quick API call to verify the key works before
// committing to a long agent run.
func preflightCheck(apiKey string) error {
	req, err := http.NewRequest(http.MethodGet, "https://openrouter.ai/api/v1/models", nil)
	if err != nil {
		return errors.Errorf("preflight: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return errors.Errorf("preflight: cannot reach OpenRouter: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return errors.Errorf("API error (HTTP %d) from OpenRouter: %s", resp.StatusCode, string(body))
	}
	return nil
}
