package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"policy-assistant/internal/model"
	"policy-assistant/internal/mutations"
)

// Process runs mutations in order against state and stops at the first CRITICAL
// message. On return state holds the policies as of the last successfully applied
// mutation; a mutation that fails during Apply is rolled back.
func Process(state *mutations.State, muts []model.Mutation) *model.BatchResponse {
	start := time.Now()

	var allMessages []model.Message
	var processed []model.ProcessedMutation
	outcome := model.BatchSuccess
	applied := 0

	for _, mut := range muts {
		handler, ok := mutations.Get(mut.MutationDefinitionName)
		if !ok {
			msg := model.Message{
				ID:      len(allMessages),
				Level:   model.LevelCritical,
				Code:    "UNKNOWN_MUTATION",
				Message: fmt.Sprintf("Unknown mutation: %s", mut.MutationDefinitionName),
			}
			allMessages = append(allMessages, msg)
			processed = append(processed, model.ProcessedMutation{
				Mutation:       mut,
				MessageIndexes: []int{msg.ID},
			})
			outcome = model.BatchFailure
			break
		}

		var msgIndexes []int
		record := func(msgs []model.Message) bool {
			critical := false
			for _, m := range msgs {
				m.ID = len(allMessages)
				allMessages = append(allMessages, m)
				msgIndexes = append(msgIndexes, m.ID)
				if m.Level == model.LevelCritical {
					critical = true
				}
			}
			return critical
		}

		if record(handler.Validate(state, &mut)) {
			outcome = model.BatchFailure
			processed = append(processed, model.ProcessedMutation{Mutation: mut, MessageIndexes: msgIndexes})
			break
		}

		snapshot := append([]model.Policy(nil), state.Policies...)
		changes := len(state.Changes)
		failed := record(handler.Apply(state, &mut))
		processed = append(processed, model.ProcessedMutation{Mutation: mut, MessageIndexes: msgIndexes})

		if failed {
			state.Policies = snapshot
			state.Changes = state.Changes[:changes]
			outcome = model.BatchFailure
			break
		}
		applied++
	}

	elapsed := time.Since(start)
	now := time.Now().UTC()

	if allMessages == nil {
		allMessages = []model.Message{}
	}

	return &model.BatchResponse{
		BatchMetadata: model.BatchMetadata{
			BatchID:          uuid.New().String(),
			BatchStartedAt:   now.Add(-elapsed).Format(time.RFC3339),
			BatchCompletedAt: now.Format(time.RFC3339),
			BatchDurationMs:  elapsed.Milliseconds(),
			BatchOutcome:     outcome,
		},
		BatchResult: model.BatchResult{
			Messages:     allMessages,
			Mutations:    processed,
			AppliedCount: applied,
			PolicyCount:  len(state.Policies),
		},
	}
}
