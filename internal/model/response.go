package model

type Result struct {
	Outcome  string    `json:"outcome"`
	Policy   *Policy   `json:"policy,omitempty"`
	Messages []Message `json:"messages"`
}

const (
	OutcomeOK       = "OK"
	OutcomeNotFound = "NOT_FOUND"
	OutcomeRejected = "REJECTED"
)

type BatchResponse struct {
	BatchMetadata BatchMetadata `json:"batch_metadata"`
	BatchResult   BatchResult   `json:"batch_result"`
}

type BatchMetadata struct {
	BatchID          string `json:"batch_id"`
	BatchStartedAt   string `json:"batch_started_at"`
	BatchCompletedAt string `json:"batch_completed_at"`
	BatchDurationMs  int64  `json:"batch_duration_ms"`
	BatchOutcome     string `json:"batch_outcome"`
}

type BatchResult struct {
	Messages     []Message           `json:"messages"`
	Mutations    []ProcessedMutation `json:"mutations"`
	AppliedCount int                 `json:"applied_count"`
	PolicyCount  int                 `json:"policy_count"`
}

type ProcessedMutation struct {
	Mutation       Mutation `json:"mutation"`
	MessageIndexes []int    `json:"message_indexes,omitempty"`
}

const (
	BatchSuccess = "SUCCESS"
	BatchFailure = "FAILURE"
)

type DashboardResponse struct {
	Policies     []PolicyView `json:"policies"`
	Count        int          `json:"count"`
	TotalPremium float64      `json:"total_premium"`
}

type TranscriptResponse struct {
	State    string        `json:"state"`
	Messages []ChatMessage `json:"messages"`
}

type ChatResponse struct {
	Reply ChatMessage `json:"reply"`
	State string      `json:"state"`
}

type ErrorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}
