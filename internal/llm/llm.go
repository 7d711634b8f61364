package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"provenance_toolbox/internal/parser"
)

// Client wraps an OpenAI-compatible chat endpoint used to turn a verdict
// into a human-readable explanation.
type Client struct {
	api   openai.Client
	model string
}

func NewClient(apiKey, baseURL string) Client {
	api := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
	)
	return Client{api: api, model: "deepseek-chat"}
}

// ExplainReport asks the model for a short plain-language summary of the
// provenance findings for one image.
func (c Client) ExplainReport(ctx context.Context, report parser.Report) (string, error) {
	payload, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}

	chatCompletion, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("You summarize image provenance scan results. " +
				"Given a JSON report of metadata entries, C2PA signature hits, and a verdict, " +
				"explain in two or three sentences whether the image appears AI-generated and why."),
			openai.UserMessage(string(payload)),
		},
		Model: c.model,
	})
	if err != nil {
		return "", err
	}
	if len(chatCompletion.Choices) == 0 {
		return "", fmt.Errorf("no completion returned")
	}
	return chatCompletion.Choices[0].Message.Content, nil
}
