// Package chat runs the single conversation between the user and the assistant.
// A session accepts one message at a time and always answers with exactly one
// model message, whatever happens remotely.
package chat

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"policy-assistant/internal/assistant"
	"policy-assistant/internal/logger"
	"policy-assistant/internal/metrics"
	"policy-assistant/internal/model"
	"policy-assistant/internal/prompt"
)

type State string

const (
	StateIdle             State = "IDLE"
	StateAwaitingResponse State = "AWAITING_RESPONSE"
)

var (
	ErrEmptyMessage = errors.New("chat: message is empty")
	ErrBusy         = errors.New("chat: a reply is already pending")
)

const (
	WelcomeID   = "welcome"
	WelcomeText = "Merhaba! Ben Sigorta Asistanınız. Poliçeleriniz, kalan süreleriniz hakkında bilgi alabilir veya yeni teklifler için bana danışabilirsiniz. Size nasıl yardımcı olabilirim?"

	UnavailableText = "API Anahtarı bulunamadı. Lütfen sistem yöneticisiyle iletişime geçin."
	FallbackText    = "Bağlantıda bir sorun oluştu. Lütfen biraz sonra tekrar deneyiniz."
	EmptyReplyText  = "Üzgünüm, şu an yanıt oluşturulamadı."
)

// Turn outcomes as recorded in metrics.
const (
	OutcomeReplied     = "replied"
	OutcomeEmpty       = "empty"
	OutcomeUnavailable = "unavailable"
	OutcomeFailed      = "failed"
)

// PolicySource supplies the collection embedded in every system instruction.
type PolicySource interface {
	List() []model.Policy
}

type Config struct {
	Provider    string
	Model       string
	Temperature float64
	// APIKey empty means the assistant is not configured; no remote call is made.
	APIKey string
}

type Session struct {
	mu       sync.Mutex
	state    State
	messages []model.ChatMessage
	lastID   int64

	assistant assistant.Assistant
	policies  PolicySource
	cfg       Config

	log     *logger.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	now     func() time.Time
}

type Option func(*Session)

func WithLogger(l *logger.Logger) Option    { return func(s *Session) { s.log = l } }
func WithMetrics(m *metrics.Metrics) Option { return func(s *Session) { s.metrics = m } }
func WithTracer(t trace.Tracer) Option      { return func(s *Session) { s.tracer = t } }
func WithClock(now func() time.Time) Option { return func(s *Session) { s.now = now } }

// NewSession starts an idle conversation holding only the welcome message.
func NewSession(a assistant.Assistant, policies PolicySource, cfg Config, opts ...Option) *Session {
	s := &Session{
		state:     StateIdle,
		assistant: a,
		policies:  policies,
		cfg:       cfg,
		log:       logger.Nop(),
		tracer:    otel.Tracer("policy-assistant/chat"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.NewMetrics()
	}

	s.messages = []model.ChatMessage{{
		ID:        WelcomeID,
		Role:      model.RoleModel,
		Text:      WelcomeText,
		Timestamp: s.now(),
	}}
	return s
}

// Submit appends text as a user message, asks the assistant and appends its
// answer. The returned message is the model message that closed the turn.
func (s *Session) Submit(ctx context.Context, text string) (model.ChatMessage, error) {
	if strings.TrimSpace(text) == "" {
		return model.ChatMessage{}, ErrEmptyMessage
	}

	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return model.ChatMessage{}, ErrBusy
	}
	history := make([]assistant.Turn, len(s.messages))
	for i, m := range s.messages {
		history[i] = assistant.Turn{Role: m.Role, Text: m.Text}
	}
	now := s.now()
	s.messages = append(s.messages, model.ChatMessage{
		ID:        s.nextID(now),
		Role:      model.RoleUser,
		Text:      text,
		Timestamp: now,
	})
	s.state = StateAwaitingResponse
	s.mu.Unlock()

	reply, outcome := s.ask(ctx, text, history)

	s.mu.Lock()
	now = s.now()
	reply.ID = s.nextID(now)
	reply.Role = model.RoleModel
	reply.Timestamp = now
	s.messages = append(s.messages, reply)
	s.state = StateIdle
	s.mu.Unlock()

	s.metrics.RecordChatTurn(outcome)
	s.log.Debug().Str("outcome", outcome).Str("message_id", reply.ID).Msg("chat turn completed")
	return reply, nil
}

func (s *Session) ask(ctx context.Context, text string, history []assistant.Turn) (model.ChatMessage, string) {
	if s.cfg.APIKey == "" {
		return model.ChatMessage{Text: UnavailableText}, OutcomeUnavailable
	}

	instruction, err := prompt.BuildSystemInstruction(s.policies.List(), s.now())
	if err != nil {
		s.log.Error().Err(err).Msg("building system instruction failed")
		return model.ChatMessage{Text: FallbackText, IsError: true}, OutcomeFailed
	}

	ctx, span := s.tracer.Start(ctx, "assistant.reply", trace.WithAttributes(
		attribute.String("assistant.provider", s.cfg.Provider),
		attribute.String("assistant.model", s.cfg.Model),
		attribute.Int("chat.history_length", len(history)),
	))
	defer span.End()

	start := time.Now()
	answer, err := s.assistant.Reply(ctx, assistant.Request{
		Model:             s.cfg.Model,
		SystemInstruction: instruction,
		Temperature:       s.cfg.Temperature,
		History:           history,
		Message:           text,
	})
	s.metrics.RecordAssistantCall(s.cfg.Provider, time.Since(start))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "assistant call failed")
		s.log.Error().Err(err).Str("provider", s.cfg.Provider).Msg("assistant call failed")
		return model.ChatMessage{Text: FallbackText, IsError: true}, OutcomeFailed
	}
	if answer == "" {
		return model.ChatMessage{Text: EmptyReplyText}, OutcomeEmpty
	}
	return model.ChatMessage{Text: answer}, OutcomeReplied
}

// Transcript returns a copy of all messages in order.
func (s *Session) Transcript() []model.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.ChatMessage(nil), s.messages...)
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// nextID derives an id from the clock, bumped when two messages share a millisecond.
func (s *Session) nextID(now time.Time) string {
	id := now.UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return strconv.FormatInt(id, 10)
}
