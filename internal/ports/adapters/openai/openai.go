package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/forPelevin/storyreel/internal/domain/story"
	"github.com/forPelevin/storyreel/internal/ports/adapters/endpoint"
)

var Endpoint = endpoint.Rule{
	Name:         "OPENAI_BASE_URL",
	Default:      "https://api.openai.com/v1",
	DefaultHosts: []string{"api.openai.com"},
}

const requestTimeout = 90 * time.Second

type Adapter struct {
	client openai.Client
	model  openai.ChatModel
}

func New(apiKey, model, baseURL string) *Adapter {
	if model == "" {
		model = openai.ChatModelGPT4oMini
	}
	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(endpoint.Normalize(baseURL, Endpoint.Default)+"/"),
		option.WithRequestTimeout(requestTimeout),
		option.WithMaxRetries(1),
	)
	return &Adapter{client: client, model: model}
}

func (a *Adapter) WriteStory(ctx context.Context, prompt string) (string, error) {
	resp, err := a.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model:               a.model,
		MaxCompletionTokens: openai.Int(280),
		Temperature:         openai.Float(0.75),
		TopP:                openai.Float(0.9),
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: no choices in response")
	}
	out := story.Unwrap(resp.Choices[0].Message.Content)
	if out == "" {
		return "", errors.New("openai: empty content")
	}
	return out, nil
}
