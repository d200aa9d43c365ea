package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-appointment-lifecycle/internal/appointment"
	"github.com/hackgods/clinic-appointment-lifecycle/internal/decision"
	"github.com/hackgods/clinic-appointment-lifecycle/internal/eventbus"
	"github.com/hackgods/clinic-appointment-lifecycle/internal/usecase"
)

func registerPatientHandler(svc *usecase.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterPatientRequest
		if !decodeBody(w, r, &req) {
			return
		}

		var id uuid.UUID
		if req.ID != "" {
			parsed, err := uuid.Parse(req.ID)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_patient_id", "id must be a valid UUID")
				return
			}
			id = parsed
		}

		birthDate, err := time.Parse(time.DateOnly, req.BirthDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_birth_date", "birth_date must be YYYY-MM-DD")
			return
		}

		res := svc.RegisterPatient(r.Context(), usecase.RegisterPatientCommand{
			ID:        id,
			Name:      req.Name,
			Phone:     req.Phone,
			BirthDate: birthDate,
			Recurring: req.Recurring,
		})
		writeResult(w, res, http.StatusCreated, func(p *appointment.Patient) any { return toPatientResponse(p) })
	}
}

func createAppointmentHandler(svc *usecase.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAppointmentRequest
		if !decodeBody(w, r, &req) {
			return
		}

		patientID, err := uuid.Parse(req.PatientID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
			return
		}

		res := svc.RequestAppointment(r.Context(), usecase.RequestAppointmentCommand{
			PatientID:      patientID,
			Specialty:      req.Specialty,
			ScheduledAt:    req.ScheduledAt,
			UrgencySignals: req.UrgencySignals,
		})
		writeResult(w, res, http.StatusCreated, renderAppointment)
	}
}

func getAppointmentHandler(svc *usecase.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(w, r, "id")
		if !ok {
			return
		}
		writeResult(w, svc.GetAppointment(r.Context(), id), http.StatusOK, renderAppointment)
	}
}

func listAppointmentsHandler(svc *usecase.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var q appointment.ListQuery

		if raw := r.URL.Query().Get("patient_id"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
				return
			}
			q.PatientID = &id
		}
		if raw := r.URL.Query().Get("status"); raw != "" {
			status, err := appointment.ParseStatus(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_status", err.Error())
				return
			}
			q.Status = &status
		}
		var ok bool
		if q.Limit, ok = queryInt(w, r, "limit"); !ok {
			return
		}
		if q.Offset, ok = queryInt(w, r, "offset"); !ok {
			return
		}

		writeResult(w, svc.ListAppointments(r.Context(), q), http.StatusOK, func(list []*appointment.Appointment) any {
			return toAppointmentResponses(list)
		})
	}
}

// lifecycleHandler serves the body-less transitions (confirm, cancel, ...).
func lifecycleHandler(run func(*http.Request, usecase.AppointmentCommand) usecase.Result[*appointment.Appointment]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(w, r, "id")
		if !ok {
			return
		}
		writeResult(w, run(r, usecase.AppointmentCommand{AppointmentID: id}), http.StatusOK, renderAppointment)
	}
}

func rescheduleHandler(svc *usecase.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(w, r, "id")
		if !ok {
			return
		}
		var req RescheduleRequest
		if !decodeBody(w, r, &req) {
			return
		}
		res := svc.Reschedule(r.Context(), usecase.RescheduleCommand{AppointmentID: id, NewDateTime: req.ScheduledAt})
		writeResult(w, res, http.StatusOK, renderAppointment)
	}
}

func updateStatusHandler(svc *usecase.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(w, r, "id")
		if !ok {
			return
		}
		var req UpdateStatusRequest
		if !decodeBody(w, r, &req) {
			return
		}
		res := svc.UpdateStatus(r.Context(), usecase.UpdateStatusCommand{
			AppointmentID: id,
			Target:        appointment.Status(req.Status),
		})
		writeResult(w, res, http.StatusOK, renderAppointment)
	}
}

func overridePriorityHandler(svc *usecase.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(w, r, "id")
		if !ok {
			return
		}
		var req OverridePriorityRequest
		if !decodeBody(w, r, &req) {
			return
		}
		priority, err := appointment.ParsePriority(req.Priority)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_priority", err.Error())
			return
		}
		res := svc.OverridePriority(r.Context(), usecase.OverridePriorityCommand{
			AppointmentID: id,
			NewPriority:   priority,
			Justification: req.Justification,
			ModifiedBy:    req.ModifiedBy,
		})
		writeResult(w, res, http.StatusOK, renderAppointment)
	}
}

func proposeActionHandler(svc *usecase.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(w, r, "id")
		if !ok {
			return
		}
		var req ProposeActionRequest
		if !decodeBody(w, r, &req) {
			return
		}

		action, err := decision.ParseAction(req.Action)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_action", err.Error())
			return
		}

		cmd := usecase.ProposeActionCommand{
			AppointmentID:    id,
			Action:           action,
			ProposedDateTime: req.ScheduledAt,
			Confidence:       req.Confidence,
			Signals:          req.Signals,
			Source:           req.Source,
		}
		if req.Priority != "" {
			priority, err := appointment.ParsePriority(req.Priority)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_priority", err.Error())
				return
			}
			cmd.ProposedPriority = priority
		}

		writeResult(w, svc.ProposeAction(r.Context(), cmd), http.StatusOK, func(p usecase.Proposal) any {
			resp := ProposalResponse{
				AutonomyLevel: string(p.Level),
				Reason:        p.Reason,
				Appointment:   toAppointmentResponse(p.Appointment),
			}
			if p.Decision != nil {
				d := toDecisionResponse(p.Decision)
				resp.Decision = &d
			}
			return resp
		})
	}
}

func listDecisionsHandler(svc *usecase.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var f decision.Filter
		if raw := r.URL.Query().Get("appointment_id"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_appointment_id", "appointment_id must be a valid UUID")
				return
			}
			f.AppointmentID = &id
		}
		if raw := r.URL.Query().Get("status"); raw != "" {
			status, err := decision.ParseStatus(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_status", err.Error())
				return
			}
			f.Status = &status
		}
		writeResult(w, svc.ListPendingDecisions(r.Context(), f), http.StatusOK, func(list []*decision.PendingDecision) any {
			out := make([]DecisionResponse, 0, len(list))
			for _, d := range list {
				out = append(out, toDecisionResponse(d))
			}
			return out
		})
	}
}

func getDecisionHandler(svc *usecase.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(w, r, "id")
		if !ok {
			return
		}
		writeResult(w, svc.GetPendingDecision(r.Context(), id), http.StatusOK, renderDecision)
	}
}

func approveDecisionHandler(svc *usecase.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(w, r, "id")
		if !ok {
			return
		}
		var req ResolveDecisionRequest
		if !decodeBody(w, r, &req) {
			return
		}
		res := svc.ApproveDecision(r.Context(), usecase.ResolveDecisionCommand{DecisionID: id, ResolvedBy: req.ResolvedBy, Note: req.Note})
		writeResult(w, res, http.StatusOK, renderAppointment)
	}
}

func rejectDecisionHandler(svc *usecase.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(w, r, "id")
		if !ok {
			return
		}
		var req ResolveDecisionRequest
		if !decodeBody(w, r, &req) {
			return
		}
		res := svc.RejectDecision(r.Context(), usecase.ResolveDecisionCommand{DecisionID: id, ResolvedBy: req.ResolvedBy, Note: req.Note})
		writeResult(w, res, http.StatusOK, renderDecision)
	}
}

func auditTrailHandler(svc *usecase.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(w, r, "id")
		if !ok {
			return
		}
		writeResult(w, svc.AuditTrail(r.Context(), id), http.StatusOK, func(records []eventbus.Record) any {
			return toEventRecordResponses(records)
		})
	}
}

func renderAppointment(a *appointment.Appointment) any { return toAppointmentResponse(a) }
func renderDecision(d *decision.PendingDecision) any   { return toDecisionResponse(d) }
