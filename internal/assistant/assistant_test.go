package assistant

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"policy-assistant/internal/model"
)

type captured struct {
	path   string
	header map[string]string
	body   []byte
}

// startServer serves handler over an in-memory listener and returns a client dialing it.
func startServer(t *testing.T, status int, reply string) (*fasthttp.Client, chan captured) {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	seen := make(chan captured, 1)

	srv := &fasthttp.Server{Handler: func(ctx *fasthttp.RequestCtx) {
		c := captured{
			path: string(ctx.Path()),
			header: map[string]string{
				"x-goog-api-key": string(ctx.Request.Header.Peek("x-goog-api-key")),
				"Authorization":  string(ctx.Request.Header.Peek("Authorization")),
			},
			body: append([]byte(nil), ctx.PostBody()...),
		}
		seen <- c
		ctx.SetStatusCode(status)
		ctx.SetContentType("application/json")
		ctx.SetBodyString(reply)
	}}
	go srv.Serve(ln) //nolint:errcheck
	t.Cleanup(func() { ln.Close() })

	client := &fasthttp.Client{Dial: func(string) (net.Conn, error) { return ln.Dial() }}
	return client, seen
}

func sampleRequest() Request {
	return Request{
		Model:             "gemini-3-pro-preview",
		SystemInstruction: "Sen bir sigorta asistanısın.",
		Temperature:       0.5,
		History: []Turn{
			{Role: model.RoleModel, Text: "Merhaba!"},
			{Role: model.RoleUser, Text: "34ABC123 poliçem var mı?"},
			{Role: model.RoleModel, Text: "Evet, Trafik Sigortası."},
		},
		Message: "Poliçem ne zaman bitiyor?",
	}
}

func TestGeminiReply(t *testing.T) {
	client, seen := startServer(t, fasthttp.StatusOK,
		`{"candidates":[{"content":{"role":"model","parts":[{"text":"**12 gün** "},{"text":"kaldı."}]}}]}`)
	g := NewGemini(Options{BaseURL: "http://gemini.test/v1beta/", APIKey: "secret", Client: client})

	got, err := g.Reply(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "**12 gün** kaldı." {
		t.Fatalf("unexpected reply %q", got)
	}

	req := <-seen
	if req.path != "/v1beta/models/gemini-3-pro-preview:generateContent" {
		t.Fatalf("unexpected path %s", req.path)
	}
	if req.header["x-goog-api-key"] != "secret" {
		t.Fatalf("api key header not sent")
	}

	var body geminiRequest
	if err := json.Unmarshal(req.body, &body); err != nil {
		t.Fatalf("bad request body: %v", err)
	}
	if body.SystemInstruction == nil || body.SystemInstruction.Parts[0].Text != "Sen bir sigorta asistanısın." {
		t.Fatalf("system instruction missing: %s", req.body)
	}
	if body.GenerationConfig.Temperature != 0.5 {
		t.Fatalf("expected temperature 0.5, got %v", body.GenerationConfig.Temperature)
	}
	// Leading model turn dropped, new message last
	if len(body.Contents) != 3 {
		t.Fatalf("expected 3 contents, got %d", len(body.Contents))
	}
	if body.Contents[0].Role != "user" || body.Contents[2].Parts[0].Text != "Poliçem ne zaman bitiyor?" {
		t.Fatalf("unexpected contents: %+v", body.Contents)
	}
}

func TestGeminiNoCandidatesIsEmptyReply(t *testing.T) {
	client, _ := startServer(t, fasthttp.StatusOK, `{"candidates":[]}`)
	g := NewGemini(Options{BaseURL: "http://gemini.test", Client: client})

	got, err := g.Reply(context.Background(), sampleRequest())
	if err != nil || got != "" {
		t.Fatalf("expected empty reply, got %q err %v", got, err)
	}
}

func TestGeminiStatusError(t *testing.T) {
	client, _ := startServer(t, fasthttp.StatusForbidden, `{"error":{"message":"API key not valid"}}`)
	g := NewGemini(Options{BaseURL: "http://gemini.test", APIKey: "bad", Client: client})

	_, err := g.Reply(context.Background(), sampleRequest())
	var se *StatusError
	if !errors.As(err, &se) || se.Status != fasthttp.StatusForbidden {
		t.Fatalf("expected 403 StatusError, got %v", err)
	}
	if !strings.Contains(se.Body, "API key not valid") {
		t.Fatalf("unexpected error body %q", se.Body)
	}
}

func TestReplyHonorsCancelledContext(t *testing.T) {
	client, _ := startServer(t, fasthttp.StatusOK, `{}`)
	g := NewGemini(Options{BaseURL: "http://gemini.test", Client: client, Timeout: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := g.Reply(ctx, sampleRequest()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestOpenAIReply(t *testing.T) {
	client, seen := startServer(t, fasthttp.StatusOK,
		`{"id":"c1","choices":[{"index":0,"message":{"role":"assistant","content":"Poliçeniz 25.10.2026 tarihinde bitiyor."}}]}`)
	o := NewOpenAI(Options{BaseURL: "http://llm.test/v1", APIKey: "sk-test", Client: client})

	got, err := o.Reply(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Poliçeniz 25.10.2026 tarihinde bitiyor." {
		t.Fatalf("unexpected reply %q", got)
	}

	req := <-seen
	if req.path != "/v1/chat/completions" {
		t.Fatalf("unexpected path %s", req.path)
	}
	if req.header["Authorization"] != "Bearer sk-test" {
		t.Fatalf("unexpected auth header %q", req.header["Authorization"])
	}

	var body ChatCompletionRequest
	if err := json.Unmarshal(req.body, &body); err != nil {
		t.Fatalf("bad request body: %v", err)
	}
	wantRoles := []string{"system", "assistant", "user", "assistant", "user"}
	if len(body.Messages) != len(wantRoles) {
		t.Fatalf("expected %d messages, got %d", len(wantRoles), len(body.Messages))
	}
	for i, role := range wantRoles {
		if body.Messages[i].Role != role {
			t.Fatalf("message %d: expected role %s, got %s", i, role, body.Messages[i].Role)
		}
	}
}

func TestNewSelectsProvider(t *testing.T) {
	for provider, want := range map[string]string{"": "*assistant.Gemini", "gemini": "*assistant.Gemini", "openai": "*assistant.OpenAI"} {
		a, err := New(provider, Options{})
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", provider, err)
		}
		switch a.(type) {
		case *Gemini:
			if want != "*assistant.Gemini" {
				t.Fatalf("%q: got Gemini", provider)
			}
		case *OpenAI:
			if want != "*assistant.OpenAI" {
				t.Fatalf("%q: got OpenAI", provider)
			}
		}
	}
	if _, err := New("bard", Options{}); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}
