// Package chatclient wraps an OpenAI-shaped chat completions endpoint
// behind the small contract QueryEngine needs: send a message list, get one
// message back. Retries are deliberately not implemented here — spec §4.9
// treats a single failed chat call as fatal to that ask, with QueryEngine
// responsible for turning it into a graceful degraded answer.
package chatclient

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"codelore/internal/apperr"
)

// Role mirrors the closed set openai-go's chat message union accepts.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry in the conversation sent to Complete.
type Message struct {
	Role    Role
	Content string
}

// DefaultModel is used unless Config overrides it.
const DefaultModel = "gpt-4o-mini"

// Client is the ChatClient implementation.
type Client struct {
	oa    openai.Client
	model string
}

// New builds a Client from the same credentials embedclient.New accepts —
// the two clients typically point at the same OpenAI-shaped account.
func New(apiKey, baseURL, model string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("chatclient: %w: no API key configured", apperr.ErrInvalidArgument)
	}
	if model == "" {
		model = DefaultModel
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &Client{oa: openai.NewClient(opts...), model: model}, nil
}

// Complete sends messages and returns the assistant's reply.
func (c *Client) Complete(ctx context.Context, messages []Message) (Message, error) {
	if len(messages) == 0 {
		return Message{}, fmt.Errorf("chatclient: %w: no messages", apperr.ErrInvalidArgument)
	}

	params := openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)),
	}
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			params.Messages = append(params.Messages, openai.SystemMessage(m.Content))
		default:
			params.Messages = append(params.Messages, openai.UserMessage(m.Content))
		}
	}

	resp, err := c.oa.Chat.Completions.New(ctx, params)
	if err != nil {
		return Message{}, fmt.Errorf("chatclient: %w: %v", apperr.ErrInternal, err)
	}
	if len(resp.Choices) == 0 {
		return Message{}, fmt.Errorf("chatclient: %w: no choices returned", apperr.ErrInternal)
	}
	return Message{Role: RoleAssistant, Content: resp.Choices[0].Message.Content}, nil
}
