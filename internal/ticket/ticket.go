package ticket

import (
	"time"

	ticketDatamodel "github.com/hanifmaulana/orgops/internal/core/datamodel/ticket"
)

// Ticket statuses. open is the only state a target can act on freely;
// contested still accepts super-authority decisions.
const (
	StatusOpen      = "open"
	StatusResolved  = "resolved"
	StatusContested = "contested"
	StatusVoided    = "voided"
)

// Severity is an ordered classification whose numeric value is the
// conduct-score penalty applied on resolution. Immutable after creation.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severityPenalties = map[Severity]float64{
	SeverityLow:      1,
	SeverityMedium:   5,
	SeverityHigh:     10,
	SeverityCritical: 20,
}

func (s Severity) Valid() bool {
	_, ok := severityPenalties[s]
	return ok
}

// Penalty is the sole source of the conduct-score deduction.
func (s Severity) Penalty() float64 {
	return severityPenalties[s]
}

// Action is the closed set of respond operations. Parsing rejects
// anything else up front, so the switch over actions stays exhaustive.
type Action string

const (
	ActionAcknowledge Action = "acknowledge"
	ActionResolve     Action = "resolve"
	ActionContest     Action = "contest"
	ActionVoid        Action = "void"
)

func ParseAction(raw string) (Action, bool) {
	switch Action(raw) {
	case ActionAcknowledge, ActionResolve, ActionContest, ActionVoid:
		return Action(raw), true
	default:
		return "", false
	}
}

// Ticket is the workflow's view of a disciplinary report.
type Ticket struct {
	ID          int64      `json:"id"`
	IssuerID    *int64     `json:"issuer_id,omitempty"`
	TargetID    int64      `json:"target_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Severity    Severity   `json:"severity"`
	Status      string     `json:"status"`
	IsAnonymous bool       `json:"is_anonymous"`
	ContestNote *string    `json:"contest_note,omitempty"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (t *Ticket) IsTerminal() bool {
	return t.Status == StatusResolved || t.Status == StatusVoided
}

func (t *Ticket) Resolve() {
	now := time.Now()
	t.Status = StatusResolved
	t.ResolvedAt = &now
	t.UpdatedAt = now
}

func (t *Ticket) Contest(note string) {
	t.Status = StatusContested
	t.ContestNote = &note
	t.UpdatedAt = time.Now()
}

func (t *Ticket) Void() {
	now := time.Now()
	t.Status = StatusVoided
	t.ResolvedAt = &now
	t.UpdatedAt = now
}

func ToDataModel(t *Ticket) *ticketDatamodel.Ticket {
	return &ticketDatamodel.Ticket{
		ID:          t.ID,
		IssuerID:    t.IssuerID,
		TargetID:    t.TargetID,
		Title:       t.Title,
		Description: t.Description,
		Severity:    string(t.Severity),
		Status:      t.Status,
		IsAnonymous: t.IsAnonymous,
		ContestNote: t.ContestNote,
		ResolvedAt:  t.ResolvedAt,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func FromDataModel(m *ticketDatamodel.Ticket) *Ticket {
	return &Ticket{
		ID:          m.ID,
		IssuerID:    m.IssuerID,
		TargetID:    m.TargetID,
		Title:       m.Title,
		Description: m.Description,
		Severity:    Severity(m.Severity),
		Status:      m.Status,
		IsAnonymous: m.IsAnonymous,
		ContestNote: m.ContestNote,
		ResolvedAt:  m.ResolvedAt,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
