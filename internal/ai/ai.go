// Package ai answers questions about scripture through an OpenAI-compatible
// chat completion endpoint.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/iliyamo/zenpod/internal/config"
)

// ErrEmptyAnswer is returned when the provider replies without content.
var ErrEmptyAnswer = errors.New("ai provider returned no answer")

const systemPrompt = `你是一位精通大藏经的佛学导师，法号「慧明」。
用户正在学习大藏经中的经文。请用简明易懂、充满慈悲的语言解释经文含义。
回答风格：
- 先简述此段核心要义（1-2句）
- 再展开解释字词、典故、修行意义
- 最后以一句禅语或修行建议收尾
- 语言温暖亲切，不要过于学术
- 回答控制在300字以内`

// Placeholder answers returned when no API key is configured.
const (
	PlaceholderExplain = "Please set AI_API_KEY to enable AI explanation."
	PlaceholderAsk     = "Please set AI_API_KEY to enable AI Q&A."
)

// Client talks to the configured provider.  The zero API key disables
// provider calls and every answer is a placeholder.
type Client struct {
	api       openai.Client
	enabled   bool
	model     string
	maxTokens int64
}

// NewClient builds a Client from cfg.
func NewClient(cfg config.AIConfig) *Client {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/")+"/"))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 600
	}
	return &Client{
		api:       openai.NewClient(opts...),
		enabled:   cfg.APIKey != "",
		model:     cfg.Model,
		maxTokens: maxTokens,
	}
}

// Enabled reports whether provider calls are made.
func (c *Client) Enabled() bool { return c.enabled }

// Explain explains a passage; source optionally names where it is from.
func (c *Client) Explain(ctx context.Context, text, source string) (string, error) {
	if !c.enabled {
		return PlaceholderExplain, nil
	}
	prompt := fmt.Sprintf("请解释以下经文：\n\n「%s」", text)
	if source != "" {
		prompt += fmt.Sprintf("\n\n经文出处：%s", source)
	}
	return c.complete(ctx, prompt)
}

// Ask answers a free-form question, optionally about a passage.
func (c *Client) Ask(ctx context.Context, question, scriptureText string) (string, error) {
	if !c.enabled {
		return PlaceholderAsk, nil
	}
	prompt := "问题：" + question
	if scriptureText != "" {
		prompt = fmt.Sprintf("相关经文：「%s」\n\n%s", scriptureText, prompt)
	}
	return c.complete(ctx, prompt)
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:     openai.ChatModel(c.model),
		MaxTokens: openai.Int(c.maxTokens),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyAnswer
	}
	return resp.Choices[0].Message.Content, nil
}
