package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"policy-assistant/internal/assistant"
	"policy-assistant/internal/model"
)

type fakeAssistant struct {
	mu      sync.Mutex
	calls   []assistant.Request
	reply   string
	err     error
	release chan struct{}
	entered chan struct{}
}

func (f *fakeAssistant) Reply(ctx context.Context, req assistant.Request) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	return f.reply, f.err
}

func (f *fakeAssistant) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type staticPolicies []model.Policy

func (p staticPolicies) List() []model.Policy { return p }

var policies = staticPolicies{{
	ID:          "1",
	PlateNumber: "34ABC123",
	HolderName:  "Ahmet Yılmaz",
	Type:        model.PolicyTypeTraffic,
	StartDate:   "2025-10-27",
	EndDate:     "2026-10-27",
	Premium:     4500,
}}

var testConfig = Config{Provider: "gemini", Model: "gemini-3-pro-preview", Temperature: 0.5, APIKey: "key"}

func newTestSession(a assistant.Assistant, cfg Config) *Session {
	clock := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	return NewSession(a, policies, cfg, WithClock(func() time.Time { return clock }))
}

func TestNewSessionStartsWithWelcome(t *testing.T) {
	s := newTestSession(&fakeAssistant{}, testConfig)

	msgs := s.Transcript()
	if len(msgs) != 1 || msgs[0].ID != WelcomeID || msgs[0].Role != model.RoleModel {
		t.Fatalf("unexpected initial transcript: %+v", msgs)
	}
	if s.State() != StateIdle {
		t.Fatalf("expected IDLE, got %s", s.State())
	}
}

func TestSubmitExpiryQuestion(t *testing.T) {
	fake := &fakeAssistant{reply: "34ABC123 plakalı Trafik Sigortanızın bitmesine **12 gün** kaldı."}
	s := newTestSession(fake, testConfig)

	reply, err := s.Submit(context.Background(), "Poliçem ne zaman bitiyor?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(reply.Text, "12 gün") || reply.IsError {
		t.Fatalf("unexpected reply: %+v", reply)
	}

	msgs := s.Transcript()
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	if msgs[1].Role != model.RoleUser || msgs[1].Text != "Poliçem ne zaman bitiyor?" {
		t.Fatalf("unexpected user message: %+v", msgs[1])
	}
	if msgs[2].Role != model.RoleModel || msgs[2].ID == msgs[1].ID {
		t.Fatalf("unexpected model message: %+v", msgs[2])
	}
	if s.State() != StateIdle {
		t.Fatalf("expected IDLE, got %s", s.State())
	}

	req := fake.calls[0]
	if req.Model != "gemini-3-pro-preview" || req.Temperature != 0.5 {
		t.Fatalf("unexpected request settings: %+v", req)
	}
	if req.Message != "Poliçem ne zaman bitiyor?" {
		t.Fatalf("unexpected message %q", req.Message)
	}
	// History is what came before the new message
	if len(req.History) != 1 || req.History[0].Text != WelcomeText {
		t.Fatalf("unexpected history: %+v", req.History)
	}
	if !strings.Contains(req.SystemInstruction, "34ABC123") || !strings.Contains(req.SystemInstruction, "15.10.2026") {
		t.Fatal("system instruction does not carry the policies and date")
	}
}

func TestSubmitWithoutAPIKeyMakesNoCall(t *testing.T) {
	fake := &fakeAssistant{reply: "never"}
	cfg := testConfig
	cfg.APIKey = ""
	s := newTestSession(fake, cfg)

	reply, err := s.Submit(context.Background(), "Merhaba")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.Text != UnavailableText {
		t.Fatalf("expected unavailable text, got %q", reply.Text)
	}
	if fake.callCount() != 0 {
		t.Fatalf("expected no remote calls, got %d", fake.callCount())
	}
	if len(s.Transcript()) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(s.Transcript()))
	}
}

func TestSubmitRemoteFailure(t *testing.T) {
	s := newTestSession(&fakeAssistant{err: errors.New("connection reset")}, testConfig)

	reply, err := s.Submit(context.Background(), "Kasko teklifi istiyorum")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.Text != FallbackText || !reply.IsError {
		t.Fatalf("expected error fallback, got %+v", reply)
	}
	if strings.Contains(reply.Text, "connection reset") {
		t.Fatal("remote error leaked into the transcript")
	}
	if s.State() != StateIdle {
		t.Fatalf("expected IDLE, got %s", s.State())
	}
}

func TestSubmitEmptyReply(t *testing.T) {
	s := newTestSession(&fakeAssistant{}, testConfig)

	reply, _ := s.Submit(context.Background(), "DASK nedir?")
	if reply.Text != EmptyReplyText || reply.IsError {
		t.Fatalf("unexpected reply: %+v", reply)
	}
}

func TestSubmitRejectsBlankText(t *testing.T) {
	fake := &fakeAssistant{}
	s := newTestSession(fake, testConfig)

	for _, text := range []string{"", "   ", "\n\t"} {
		if _, err := s.Submit(context.Background(), text); !errors.Is(err, ErrEmptyMessage) {
			t.Fatalf("%q: expected ErrEmptyMessage, got %v", text, err)
		}
	}
	if len(s.Transcript()) != 1 || fake.callCount() != 0 {
		t.Fatal("blank submissions must not change the session")
	}
}

func TestSubmitWhileAwaitingIsBusy(t *testing.T) {
	fake := &fakeAssistant{
		reply:   "tamam",
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	s := newTestSession(fake, testConfig)

	done := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background(), "ilk soru")
		done <- err
	}()
	<-fake.entered

	if s.State() != StateAwaitingResponse {
		t.Fatalf("expected AWAITING_RESPONSE, got %s", s.State())
	}
	if _, err := s.Submit(context.Background(), "ikinci soru"); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if got := len(s.Transcript()); got != 2 {
		t.Fatalf("expected 2 messages while waiting, got %d", got)
	}

	close(fake.release)
	if err := <-done; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(s.Transcript()); got != 3 || s.State() != StateIdle {
		t.Fatalf("expected 3 messages and IDLE, got %d and %s", got, s.State())
	}
}

func TestMessageIDsAreUnique(t *testing.T) {
	s := newTestSession(&fakeAssistant{reply: "ok"}, testConfig)
	for i := 0; i < 5; i++ {
		if _, err := s.Submit(context.Background(), "soru"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	seen := make(map[string]bool)
	for _, m := range s.Transcript() {
		if seen[m.ID] {
			t.Fatalf("duplicate message id %s", m.ID)
		}
		seen[m.ID] = true
	}
}
