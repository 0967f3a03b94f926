// Package assistant talks to the remote language model that answers chat turns.
package assistant

import (
	"context"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"

	"policy-assistant/internal/model"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Turn is one prior message of the conversation.
type Turn struct {
	Role model.Role
	Text string
}

type Request struct {
	Model             string
	SystemInstruction string
	Temperature       float64
	History           []Turn
	Message           string
}

// Assistant returns the model's reply text. An empty string is a valid reply.
type Assistant interface {
	Reply(ctx context.Context, req Request) (string, error)
}

type Options struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// Client is shared across calls; a default one is built when nil.
	Client *fasthttp.Client
}

// New returns the client for provider.
func New(provider string, opts Options) (Assistant, error) {
	if opts.Client == nil {
		opts.Client = &fasthttp.Client{
			Name:                "policy-assistant",
			MaxConnsPerHost:     16,
			MaxIdleConnDuration: 90 * time.Second,
		}
	}

	switch provider {
	case ProviderGemini, "":
		return NewGemini(opts), nil
	case ProviderOpenAI:
		return NewOpenAI(opts), nil
	default:
		return nil, fmt.Errorf("unsupported assistant provider: %s", provider)
	}
}

// StatusError is a non-200 answer from the remote API.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s", e.Status, e.Body)
}
