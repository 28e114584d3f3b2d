package ticket

import "errors"

// IssueTicketDTO is the creation payload.
type IssueTicketDTO struct {
	TargetUserID int64  `json:"target_user_id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Severity     string `json:"severity"`
	IsAnonymous  bool   `json:"is_anonymous"`
}

func (dto IssueTicketDTO) Validate() error {
	if dto.TargetUserID <= 0 {
		return errors.New("target user is required")
	}
	if dto.Title == "" {
		return errors.New("title is required")
	}
	if len(dto.Title) > 200 {
		return errors.New("title must be less than 200 characters")
	}
	if !Severity(dto.Severity).Valid() {
		return errors.New("severity must be one of: low, medium, high, critical")
	}
	return nil
}

// RespondTicketDTO carries a respond action; contest_note is mandatory
// for contests only.
type RespondTicketDTO struct {
	Action      string `json:"action"`
	ContestNote string `json:"contest_note,omitempty"`
}

// TicketDecisionResponse is the respond payload: the new status plus the
// target's score when the action mutated it.
type TicketDecisionResponse struct {
	Status       string   `json:"status"`
	CurrentScore *float64 `json:"current_score,omitempty"`
}
