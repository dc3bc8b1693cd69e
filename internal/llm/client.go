// Package llm wraps the embedding/completion service behind small
// interfaces so callers and tests never touch the SDK directly.
package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kitchenwise/recipechat/internal/config"
)

// Message is one chat turn handed to the completion service.
type Message struct {
	Role    string
	Content string
}

// Chat message roles.
const (
	RoleSystem = openai.ChatMessageRoleSystem
	RoleUser   = openai.ChatMessageRoleUser
)

// Embedder turns text into a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Completer produces a completion for a conversation.
type Completer interface {
	Complete(ctx context.Context, messages []Message, temperature float32) (string, error)
}

// Client implements Embedder and Completer against the OpenAI API.
type Client struct {
	api        *openai.Client
	embedModel string
	chatModel  string
}

var (
	_ Embedder  = (*Client)(nil)
	_ Completer = (*Client)(nil)
)

// NewClient builds a client from configuration. Model identifiers are
// configuration, not contract.
func NewClient(cfg config.OpenAIConfig) *Client {
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	return &Client{
		api:        openai.NewClientWithConfig(apiCfg),
		embedModel: cfg.EmbedModel,
		chatModel:  cfg.ChatModel,
	}
}

// Embed requests one embedding for the given text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: []string{text},
		Model: openai.EmbeddingModel(c.embedModel),
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embedding response carried no data")
	}
	return resp.Data[0].Embedding, nil
}

// Complete runs one chat completion and returns the first choice's content.
func (c *Client) Complete(ctx context.Context, messages []Message, temperature float32) (string, error) {
	chatMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		chatMessages[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.chatModel,
		Messages:    chatMessages,
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion carried no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
