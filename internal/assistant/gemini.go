package assistant

import (
	"context"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"policy-assistant/internal/model"
)

const DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature float64 `json:"temperature"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	Contents          []geminiContent        `json:"contents"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
}

type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

// Gemini calls the generateContent endpoint of the Gemini REST API.
type Gemini struct {
	client  *fasthttp.Client
	baseURL string
	apiKey  string
	timeout time.Duration
}

func NewGemini(opts Options) *Gemini {
	base := opts.BaseURL
	if base == "" {
		base = DefaultGeminiBaseURL
	}
	return &Gemini{
		client:  opts.Client,
		baseURL: strings.TrimRight(base, "/"),
		apiKey:  opts.APIKey,
		timeout: opts.Timeout,
	}
}

func (g *Gemini) Reply(ctx context.Context, req Request) (string, error) {
	body := geminiRequest{
		Contents:         geminiContents(req.History, req.Message),
		GenerationConfig: geminiGenerationConfig{Temperature: req.Temperature},
	}
	if req.SystemInstruction != "" {
		body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.SystemInstruction}}}
	}

	url := g.baseURL + "/models/" + req.Model + ":generateContent"
	var out geminiResponse
	err := postJSON(ctx, g.client, g.timeout, url, func(h *fasthttp.RequestHeader) {
		h.Set("x-goog-api-key", g.apiKey)
	}, body, &out)
	if err != nil {
		return "", err
	}

	if len(out.Candidates) == 0 {
		return "", nil
	}
	var text strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}
	return text.String(), nil
}

// geminiContents drops leading model turns: a conversation must open with a user turn.
func geminiContents(history []Turn, message string) []geminiContent {
	contents := make([]geminiContent, 0, len(history)+1)
	for _, t := range history {
		if len(contents) == 0 && t.Role != model.RoleUser {
			continue
		}
		contents = append(contents, geminiContent{Role: string(t.Role), Parts: []geminiPart{{Text: t.Text}}})
	}
	return append(contents, geminiContent{Role: string(model.RoleUser), Parts: []geminiPart{{Text: message}}})
}
