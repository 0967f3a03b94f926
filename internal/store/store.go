// Package store is the single-writer owner of the policy collection. Every
// committed mutation rewrites the whole collection into one durable slot.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"policy-assistant/internal/engine"
	"policy-assistant/internal/jsonpatch"
	"policy-assistant/internal/logger"
	"policy-assistant/internal/metrics"
	"policy-assistant/internal/model"
	"policy-assistant/internal/mutations"
	"policy-assistant/internal/notify"
	"policy-assistant/internal/storage"
)

// SlotKey is the storage slot holding the serialized collection.
const SlotKey = "policies"

const (
	CodePersistFailed = "PERSIST_FAILED"
	// CodeUnencodable rejects a change whose resulting collection cannot be serialized.
	CodeUnencodable = "UNENCODABLE_STATE"
)

type Store struct {
	mu       sync.RWMutex
	policies []model.Policy

	slot    storage.Slot
	key     string
	log     *logger.Logger
	metrics *metrics.Metrics
	events  notify.Publisher
	now     func() time.Time
	newID   func() string
}

type Option func(*Store)

func WithKey(key string) Option                 { return func(s *Store) { s.key = key } }
func WithLogger(l *logger.Logger) Option        { return func(s *Store) { s.log = l } }
func WithMetrics(m *metrics.Metrics) Option     { return func(s *Store) { s.metrics = m } }
func WithPublisher(p notify.Publisher) Option   { return func(s *Store) { s.events = p } }
func WithClock(now func() time.Time) Option     { return func(s *Store) { s.now = now } }
func WithIDGenerator(next func() string) Option { return func(s *Store) { s.newID = next } }

// New returns a store holding the seed set until Load is called.
func New(slot storage.Slot, opts ...Option) *Store {
	s := &Store{
		policies: Seed(),
		slot:     slot,
		key:      SlotKey,
		log:      logger.Nop(),
		events:   notify.Nop{},
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.NewMetrics()
	}
	return s
}

// Load replaces the collection with the stored one. Absent or corrupt data falls
// back to the seed set, which is then written back; a failed read keeps the seed
// in memory only so a transient outage never overwrites real data.
// It reports whether the seed set is in use.
func (s *Store) Load(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.slot.Load(ctx, s.key)
	switch {
	case err == nil:
		policies, decodeErr := Decode(data)
		if decodeErr == nil {
			s.policies = policies
			s.updateGauges()
			s.log.Info().Int("policy_count", len(policies)).Msg("policies loaded")
			return false
		}
		s.log.Warn().Err(decodeErr).Msg("stored policies are corrupt, using seed set")
	case errors.Is(err, storage.ErrNotFound):
		s.log.Info().Msg("no stored policies, using seed set")
	default:
		s.policies = Seed()
		s.updateGauges()
		s.log.Warn().Err(err).Msg("reading stored policies failed, using seed set in memory")
		return true
	}

	s.policies = Seed()
	if err := s.persistLocked(ctx); err != nil {
		s.log.Error().Err(err).Msg("writing seed set failed")
	}
	return true
}

// List returns a copy of the collection in order.
func (s *Store) List() []model.Policy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Policy(nil), s.policies...)
}

func (s *Store) Get(id string) (model.Policy, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.policies {
		if p.ID == id {
			return p, true
		}
	}
	return model.Policy{}, false
}

func (s *Store) TotalPremium() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return totalPremium(s.policies)
}

func (s *Store) Add(ctx context.Context, p model.Policy) (*model.Result, error) {
	return s.Apply(ctx, model.Mutation{MutationDefinitionName: model.MutationAddPolicy, Policy: &p})
}

func (s *Store) Update(ctx context.Context, p model.Policy) (*model.Result, error) {
	return s.Apply(ctx, model.Mutation{MutationDefinitionName: model.MutationUpdatePolicy, Policy: &p})
}

func (s *Store) Delete(ctx context.Context, id string) (*model.Result, error) {
	return s.Apply(ctx, model.Mutation{MutationDefinitionName: model.MutationDeletePolicy, PolicyID: id})
}

// Apply validates and applies one mutation. Rejections come back as a Result with
// CRITICAL messages; the error is only set when the durable write failed, in which
// case the change is kept in memory and flagged with PERSIST_FAILED.
func (s *Store) Apply(ctx context.Context, mut model.Mutation) (*model.Result, error) {
	start := time.Now()
	name := mut.MutationDefinitionName

	handler, ok := mutations.Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown mutation: %s", name)
	}

	s.mu.Lock()
	state := mutations.NewState(s.policies, s.now(), s.newID)

	msgs := handler.Validate(state, &mut)
	if !model.HasCritical(msgs) {
		msgs = append(msgs, handler.Apply(state, &mut)...)
	}

	// Encoding is checked before commit: a collection that cannot be written must
	// never become the live one.
	var data []byte
	if !model.HasCritical(msgs) {
		var err error
		if data, err = Encode(state.Policies); err != nil {
			s.log.Warn().Err(err).Str("operation", name).Msg("rejecting unencodable change")
			msgs = append(msgs, unencodable(err))
		}
	}
	if model.HasCritical(msgs) {
		count := len(s.policies)
		s.mu.Unlock()

		result := &model.Result{Outcome: rejection(msgs), Messages: numbered(msgs)}
		s.metrics.RecordStoreOperation(name, result.Outcome)
		s.log.LogStoreOperation(name, result.Outcome, time.Since(start), count, nil)
		return result, nil
	}

	s.policies = state.Policies
	persistErr := s.saveLocked(ctx, data)
	count := len(s.policies)
	s.mu.Unlock()

	if persistErr != nil {
		msgs = append(msgs, model.Message{
			Level:   model.LevelWarning,
			Code:    CodePersistFailed,
			Message: "The change is active but could not be saved",
		})
	}

	result := &model.Result{
		Outcome:  model.OutcomeOK,
		Policy:   affected(state, &mut),
		Messages: numbered(msgs),
	}
	s.publish(ctx, state)

	s.metrics.RecordStoreOperation(name, result.Outcome)
	s.log.LogStoreOperation(name, result.Outcome, time.Since(start), count, persistErr)
	return result, persistErr
}

// ApplyBatch runs mutations in order, commits the state after the last successful
// one and persists once.
func (s *Store) ApplyBatch(ctx context.Context, muts []model.Mutation) (*model.BatchResponse, error) {
	s.mu.Lock()
	state := mutations.NewState(s.policies, s.now(), s.newID)
	resp := engine.Process(state, muts)

	var persistErr error
	if resp.BatchResult.AppliedCount > 0 {
		data, err := Encode(state.Policies)
		if err != nil {
			s.log.Warn().Err(err).Str("batch_id", resp.BatchMetadata.BatchID).Msg("rejecting unencodable batch")
			m := unencodable(err)
			m.ID = len(resp.BatchResult.Messages)
			resp.BatchResult.Messages = append(resp.BatchResult.Messages, m)
			resp.BatchMetadata.BatchOutcome = model.BatchFailure
			resp.BatchResult.AppliedCount = 0
			resp.BatchResult.PolicyCount = len(s.policies)
			state.Changes = nil
		} else {
			s.policies = state.Policies
			persistErr = s.saveLocked(ctx, data)
		}
	}
	s.mu.Unlock()

	if persistErr != nil {
		resp.BatchResult.Messages = append(resp.BatchResult.Messages, model.Message{
			ID:      len(resp.BatchResult.Messages),
			Level:   model.LevelWarning,
			Code:    CodePersistFailed,
			Message: "The batch is active but could not be saved",
		})
	}
	s.publish(ctx, state)

	s.metrics.RecordStoreOperation("batch", resp.BatchMetadata.BatchOutcome)
	s.log.Info().
		Str("batch_id", resp.BatchMetadata.BatchID).
		Str("outcome", resp.BatchMetadata.BatchOutcome).
		Int("applied", resp.BatchResult.AppliedCount).
		Msg("batch processed")
	return resp, persistErr
}

// Persist writes the current collection to durable storage.
func (s *Store) Persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked(ctx)
}

func (s *Store) persistLocked(ctx context.Context) error {
	data, err := Encode(s.policies)
	if err != nil {
		s.updateGauges()
		s.metrics.PersistFailuresTotal.Inc()
		return &StorageError{Op: "encode", Key: s.key, Err: err}
	}
	return s.saveLocked(ctx, data)
}

// saveLocked writes an already encoded collection.
func (s *Store) saveLocked(ctx context.Context, data []byte) error {
	s.updateGauges()

	if err := s.slot.Save(ctx, s.key, data); err != nil {
		s.metrics.PersistFailuresTotal.Inc()
		return &StorageError{Op: "save", Key: s.key, Err: err}
	}
	return nil
}

func (s *Store) updateGauges() {
	s.metrics.UpdatePortfolio(len(s.policies), totalPremium(s.policies))
}

func (s *Store) publish(ctx context.Context, state *mutations.State) {
	at := s.now()
	for _, c := range state.Changes {
		event := notify.Event{Type: c.Type, At: at}
		switch {
		case c.After != nil:
			event.PolicyID, event.Policy = c.After.ID, c.After
		case c.Before != nil:
			event.PolicyID, event.Policy = c.Before.ID, c.Before
		}
		if c.Before != nil && c.After != nil {
			patch, err := jsonpatch.Between(c.Before, c.After)
			if err != nil {
				s.log.Warn().Err(err).Str("policy_id", event.PolicyID).Msg("computing change patch failed")
			}
			event.Patch = patch
		}

		if err := s.events.Publish(ctx, event); err != nil {
			s.log.Error().Err(err).Str("event", event.Type).Str("policy_id", event.PolicyID).Msg("publishing policy event failed")
		}
	}
}

func affected(state *mutations.State, mut *model.Mutation) *model.Policy {
	if len(state.Changes) > 0 {
		c := state.Changes[0]
		if c.After != nil {
			return c.After
		}
		return c.Before
	}
	// Unchanged update: report the stored policy
	if mut.Policy != nil {
		for i := range state.Policies {
			if state.Policies[i].ID == mut.Policy.ID {
				p := state.Policies[i]
				return &p
			}
		}
	}
	return nil
}

func unencodable(err error) model.Message {
	return model.Message{
		Level:   model.LevelCritical,
		Code:    CodeUnencodable,
		Message: "The resulting policies cannot be stored: " + err.Error(),
	}
}

func rejection(msgs []model.Message) string {
	for _, m := range msgs {
		if m.Code == mutations.CodePolicyNotFound {
			return model.OutcomeNotFound
		}
	}
	return model.OutcomeRejected
}

func numbered(msgs []model.Message) []model.Message {
	out := make([]model.Message, len(msgs))
	for i, m := range msgs {
		m.ID = i
		out[i] = m
	}
	return out
}

func totalPremium(policies []model.Policy) float64 {
	var sum float64
	for _, p := range policies {
		sum += p.Premium
	}
	return sum
}
