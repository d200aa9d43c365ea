package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-appointment-lifecycle/internal/appointment"
	"github.com/hackgods/clinic-appointment-lifecycle/internal/decision"
	"github.com/hackgods/clinic-appointment-lifecycle/internal/eventbus"
)

type RegisterPatientRequest struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	BirthDate string `json:"birth_date"` // YYYY-MM-DD
	Recurring bool   `json:"recurring"`
}

type PatientResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	BirthDate string    `json:"birth_date"`
	Recurring bool      `json:"recurring"`
}

type CreateAppointmentRequest struct {
	PatientID      string    `json:"patient_id"`
	Specialty      string    `json:"specialty"`
	ScheduledAt    time.Time `json:"scheduled_at"`
	UrgencySignals []string  `json:"urgency_signals,omitempty"`
}

type RescheduleRequest struct {
	ScheduledAt time.Time `json:"scheduled_at"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type OverridePriorityRequest struct {
	Priority      string `json:"priority"`
	Justification string `json:"justification"`
	ModifiedBy    string `json:"modified_by"`
}

type ProposeActionRequest struct {
	Action      string     `json:"action"`
	Priority    string     `json:"priority,omitempty"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	Confidence  float64    `json:"confidence"`
	Signals     []string   `json:"signals,omitempty"`
	Source      string     `json:"source,omitempty"`
}

type ResolveDecisionRequest struct {
	ResolvedBy string `json:"resolved_by"`
	Note       string `json:"note,omitempty"`
}

type StatusEntryResponse struct {
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

type PriorityEntryResponse struct {
	Priority      string    `json:"priority"`
	Origin        string    `json:"origin"`
	OccurredAt    time.Time `json:"occurred_at"`
	Justification string    `json:"justification,omitempty"`
	ModifiedBy    string    `json:"modified_by,omitempty"`
}

type AppointmentResponse struct {
	ID              uuid.UUID               `json:"id"`
	PatientID       uuid.UUID               `json:"patient_id"`
	Specialty       string                  `json:"specialty"`
	ScheduledAt     time.Time               `json:"scheduled_at"`
	CreatedAt       time.Time               `json:"created_at"`
	Status          string                  `json:"status"`
	Priority        string                  `json:"priority"`
	StatusHistory   []StatusEntryResponse   `json:"status_history"`
	PriorityHistory []PriorityEntryResponse `json:"priority_history"`
}

type DecisionResponse struct {
	ID            uuid.UUID        `json:"id"`
	AppointmentID uuid.UUID        `json:"appointment_id"`
	AutonomyLevel string           `json:"autonomy_level"`
	Reason        string           `json:"reason"`
	Context       decision.Context `json:"context"`
	Result        decision.Result  `json:"result"`
	CreatedAt     time.Time        `json:"created_at"`
	Status        string           `json:"status"`
	ResolvedAt    *time.Time       `json:"resolved_at,omitempty"`
	ResolvedBy    string           `json:"resolved_by,omitempty"`
	Note          string           `json:"note,omitempty"`
}

type ProposalResponse struct {
	AutonomyLevel string              `json:"autonomy_level"`
	Reason        string              `json:"reason"`
	Appointment   AppointmentResponse `json:"appointment"`
	Decision      *DecisionResponse   `json:"decision,omitempty"`
}

type EventRecordResponse struct {
	EventID    uuid.UUID `json:"event_id"`
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toPatientResponse(p *appointment.Patient) PatientResponse {
	return PatientResponse{
		ID:        p.ID(),
		Name:      p.Name(),
		Phone:     p.Phone(),
		BirthDate: p.BirthDate().Format(time.DateOnly),
		Recurring: p.IsRecurring(),
	}
}

func toAppointmentResponse(a *appointment.Appointment) AppointmentResponse {
	resp := AppointmentResponse{
		ID:          a.ID(),
		PatientID:   a.PatientID(),
		Specialty:   a.Specialty(),
		ScheduledAt: a.ScheduledAt(),
		CreatedAt:   a.CreatedAt(),
		Status:      a.Status().String(),
		Priority:    a.Priority().String(),
	}
	for _, e := range a.StatusHistory().Entries() {
		resp.StatusHistory = append(resp.StatusHistory, StatusEntryResponse{
			Status:     e.Status.String(),
			OccurredAt: e.OccurredAt,
		})
	}
	for _, e := range a.PriorityHistory().Entries() {
		resp.PriorityHistory = append(resp.PriorityHistory, PriorityEntryResponse{
			Priority:      e.Priority.String(),
			Origin:        string(e.Origin),
			OccurredAt:    e.OccurredAt,
			Justification: e.Justification,
			ModifiedBy:    e.ModifiedBy,
		})
	}
	return resp
}

func toAppointmentResponses(list []*appointment.Appointment) []AppointmentResponse {
	out := make([]AppointmentResponse, 0, len(list))
	for _, a := range list {
		out = append(out, toAppointmentResponse(a))
	}
	return out
}

func toDecisionResponse(d *decision.PendingDecision) DecisionResponse {
	return DecisionResponse{
		ID:            d.ID(),
		AppointmentID: d.AppointmentID(),
		AutonomyLevel: string(d.AutonomyLevel()),
		Reason:        d.Reason(),
		Context:       d.Context(),
		Result:        d.Result(),
		CreatedAt:     d.CreatedAt(),
		Status:        string(d.Status()),
		ResolvedAt:    d.ResolvedAt(),
		ResolvedBy:    d.ResolvedBy(),
		Note:          d.Note(),
	}
}

func toEventRecordResponses(records []eventbus.Record) []EventRecordResponse {
	out := make([]EventRecordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, EventRecordResponse{
			EventID:    r.EventID,
			EventType:  string(r.EventType),
			OccurredAt: r.OccurredAt,
			Payload:    r.Payload,
		})
	}
	return out
}
