package assistant

import (
	"context"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"policy-assistant/internal/model"
)

const DefaultOpenAIBaseURL = "https://api.openai.com/v1"

type RequestMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatCompletionRequest struct {
	Model       string           `json:"model"`
	Messages    []RequestMessage `json:"messages"`
	Temperature *float64         `json:"temperature,omitempty"`
}

type ChatChoice struct {
	Index        uint32         `json:"index"`
	Message      RequestMessage `json:"message"`
	FinishReason string         `json:"finish_reason"`
}

type ChatCompletionResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []ChatChoice `json:"choices"`
}

// OpenAI speaks the chat/completions dialect shared by OpenAI-compatible gateways.
type OpenAI struct {
	client  *fasthttp.Client
	baseURL string
	apiKey  string
	timeout time.Duration
}

func NewOpenAI(opts Options) *OpenAI {
	base := opts.BaseURL
	if base == "" {
		base = DefaultOpenAIBaseURL
	}
	return &OpenAI{
		client:  opts.Client,
		baseURL: strings.TrimRight(base, "/"),
		apiKey:  opts.APIKey,
		timeout: opts.Timeout,
	}
}

func (o *OpenAI) Reply(ctx context.Context, req Request) (string, error) {
	temperature := req.Temperature
	body := ChatCompletionRequest{
		Model:       req.Model,
		Messages:    openAIMessages(req),
		Temperature: &temperature,
	}

	var out ChatCompletionResponse
	err := postJSON(ctx, o.client, o.timeout, o.baseURL+"/chat/completions", func(h *fasthttp.RequestHeader) {
		h.Set("Authorization", "Bearer "+o.apiKey)
	}, body, &out)
	if err != nil {
		return "", err
	}

	if len(out.Choices) == 0 {
		return "", nil
	}
	return out.Choices[0].Message.Content, nil
}

func openAIMessages(req Request) []RequestMessage {
	msgs := make([]RequestMessage, 0, len(req.History)+2)
	if req.SystemInstruction != "" {
		msgs = append(msgs, RequestMessage{Role: "system", Content: req.SystemInstruction})
	}
	for _, t := range req.History {
		role := "user"
		if t.Role == model.RoleModel {
			role = "assistant"
		}
		msgs = append(msgs, RequestMessage{Role: role, Content: t.Text})
	}
	return append(msgs, RequestMessage{Role: "user", Content: req.Message})
}
