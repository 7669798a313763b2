// Package llm wraps the hosted language model behind the narrow
// interfaces the rest of the system consumes: a completion client for
// the reasoning loop and a summarizer for memory compaction.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/finsight/finsight-backend/internal/agent"
	"github.com/finsight/finsight-backend/internal/config"
)

// summarySystemPrompt steers the compaction model.
const summarySystemPrompt = "You are a financial conversation summary bot. " +
	"Keep the summary short (2-3 sentences) keeping only core information, " +
	"financial metrics and main topics."

// Client talks to an OpenAI-compatible chat-completion API (Groq in
// production).
type Client struct {
	api          *openai.Client
	model        string
	summaryModel string
}

// NewClient creates a client from config.
func NewClient(cfg config.GroqConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("model API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}

	return &Client{
		api:          openai.NewClientWithConfig(clientConfig),
		model:        cfg.Model,
		summaryModel: cfg.SummaryModel,
	}, nil
}

// Complete sends the running conversation and returns the completion
// text. Transport and quota failures surface as errors; the reasoning
// loop converts them into its sentinel turn.
func (c *Client) Complete(ctx context.Context, messages []agent.Message) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: convertMessages(messages),
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("model completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("model returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// Summarize condenses a rendered conversation into a short digest.
// Satisfies memory.Summarizer.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	if text == "" {
		return "", nil
	}

	req := openai.ChatCompletionRequest{
		Model:     c.summaryModel,
		MaxTokens: 200,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: summarySystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("Briefly summarize the following conversation:\n\n%s", text)},
		},
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("summarization failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("summarizer returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func convertMessages(messages []agent.Message) []openai.ChatCompletionMessage {
	converted := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		converted[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}
	return converted
}
