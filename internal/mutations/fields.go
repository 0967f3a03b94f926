package mutations

import (
	"math"
	"strings"
	"time"

	"policy-assistant/internal/model"
	"policy-assistant/internal/urgency"
)

const (
	CodeMissingPolicy   = "MISSING_POLICY"
	CodePolicyNotFound  = "POLICY_NOT_FOUND"
	CodeDuplicateID     = "DUPLICATE_ID"
	CodeDuplicatePlate  = "DUPLICATE_PLATE"
	CodeEndBeforeStart  = "END_BEFORE_START"
	CodeInvalidDate     = "INVALID_DATE"
	CodeNoPolicies      = "NO_POLICIES"
	CodeNoMatches       = "NO_MATCHING_POLICIES"
	CodePremiumClamped  = "NEGATIVE_PREMIUM_CLAMPED"
	CodeInvalidPremium  = "INVALID_PREMIUM"
	CodeMissingPremium  = "MISSING_PREMIUM"
	CodeMissingHolder   = "MISSING_HOLDER_NAME"
	CodeMissingPlate    = "MISSING_PLATE_NUMBER"
	CodeInvalidType     = "INVALID_POLICY_TYPE"
	CodeInvalidStart    = "INVALID_START_DATE"
	CodeInvalidEnd      = "INVALID_END_DATE"
	CodeInvalidProperty = "INVALID_PROPERTIES"
)

// MaxPremium bounds every stored premium so sums and indexation stay finite.
const MaxPremium = 1e12

// normalize applies the admin form's entry rules: upper-case plate, trimmed text,
// Traffic as default type, today and today+1y as default dates.
func normalize(p model.Policy, now time.Time) model.Policy {
	p.PlateNumber = strings.ToUpper(strings.TrimSpace(p.PlateNumber))
	p.HolderName = strings.TrimSpace(p.HolderName)
	p.VehicleInfo = strings.TrimSpace(p.VehicleInfo)
	if p.Type == "" {
		p.Type = model.PolicyTypeTraffic
	}

	p.StartDate = urgency.NormalizeDate(strings.TrimSpace(p.StartDate))
	if p.StartDate == "" {
		p.StartDate = urgency.FormatDate(now)
	}
	p.EndDate = urgency.NormalizeDate(strings.TrimSpace(p.EndDate))
	if p.EndDate == "" {
		if start, ok := urgency.ParseDate(p.StartDate); ok {
			p.EndDate = urgency.FormatDate(start.AddDate(1, 0, 0))
		}
	}
	return p
}

// validateFields checks presence and format only. An end date before the start
// date is reported but not rejected.
func validateFields(p model.Policy) []model.Message {
	var msgs []model.Message

	if p.HolderName == "" {
		msgs = append(msgs, critical(CodeMissingHolder, "Holder name is empty or blank"))
	}
	if p.PlateNumber == "" {
		msgs = append(msgs, critical(CodeMissingPlate, "Plate number is empty or blank"))
	}
	switch {
	case math.IsNaN(p.Premium):
		msgs = append(msgs, critical(CodeInvalidPremium, "Premium must be a number"))
	case p.Premium > MaxPremium:
		msgs = append(msgs, critical(CodeInvalidPremium, "Premium must not exceed 1e12"))
	case p.Premium == 0:
		msgs = append(msgs, critical(CodeMissingPremium, "Premium is required"))
	case p.Premium < 0:
		msgs = append(msgs, critical(CodeInvalidPremium, "Premium must be non-negative"))
	}
	if !p.Type.Valid() {
		msgs = append(msgs, critical(CodeInvalidType, "Unknown policy type: "+string(p.Type)))
	}

	start, startOK := urgency.ParseDate(p.StartDate)
	if !startOK {
		msgs = append(msgs, critical(CodeInvalidStart, "Start date must be YYYY-MM-DD"))
	}
	end, endOK := urgency.ParseDate(p.EndDate)
	if !endOK {
		msgs = append(msgs, critical(CodeInvalidEnd, "End date must be YYYY-MM-DD"))
	}
	if startOK && endOK && end.Before(start) {
		msgs = append(msgs, warning(CodeEndBeforeStart, "End date "+p.EndDate+" is before start date "+p.StartDate))
	}

	return msgs
}

func validPremium(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= MaxPremium
}

func duplicatePlate(state *State, p model.Policy) []model.Message {
	for _, other := range state.Policies {
		if other.ID != p.ID && other.PlateNumber == p.PlateNumber {
			return []model.Message{warning(CodeDuplicatePlate, "Another policy already uses plate "+p.PlateNumber)}
		}
	}
	return nil
}

func critical(code, msg string) model.Message {
	return model.Message{Level: model.LevelCritical, Code: code, Message: msg}
}

func warning(code, msg string) model.Message {
	return model.Message{Level: model.LevelWarning, Code: code, Message: msg}
}
