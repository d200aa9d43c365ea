package usecase

import (
	"context"

	"github.com/hackgods/clinic-appointment-lifecycle/internal/appointment"
	"github.com/hackgods/clinic-appointment-lifecycle/internal/decision"
)

const (
	sweepSource     = "noshow-worker"
	sweepConfidence = 0.9
	sweepBatchSize  = 100
)

type SweepReport struct {
	Scanned   int `json:"scanned"`
	Proposed  int `json:"proposed"`
	Escalated int `json:"escalated"`
	Failed    int `json:"failed"`
}

// SweepMissedAppointments proposes a no-show for every confirmed
// appointment whose time plus the grace period has passed. The engine treats
// no-shows as irreversible, so each proposal waits for a human. Appointments
// that already have a pending no-show decision are skipped.
func (s *Service) SweepMissedAppointments(ctx context.Context) Result[SweepReport] {
	return execute(ctx, s, "sweep missed appointments", nil, func(ctx context.Context) (SweepReport, error) {
		var report SweepReport
		confirmed := appointment.StatusConfirmed
		cutoff := s.clock().Add(-s.noShowGrace)

		for offset := 0; ; offset += sweepBatchSize {
			batch, err := s.appointments.ListAppointments(ctx, appointment.ListQuery{
				Status: &confirmed,
				Limit:  sweepBatchSize,
				Offset: offset,
			})
			if err != nil {
				return report, err
			}

			for _, a := range batch {
				report.Scanned++
				if !a.ScheduledAt().Before(cutoff) {
					continue
				}
				pending, err := s.hasPendingNoShow(ctx, a)
				if err != nil {
					return report, err
				}
				if pending {
					continue
				}

				res := s.ProposeAction(ctx, ProposeActionCommand{
					AppointmentID: a.ID(),
					Action:        decision.ActionRegisterNoShow,
					Confidence:    sweepConfidence,
					Source:        sweepSource,
				})
				report.Proposed++
				switch {
				case !res.OK:
					report.Failed++
				case res.Value.Level == decision.RequiresApproval:
					report.Escalated++
				}
			}

			if len(batch) < sweepBatchSize {
				return report, nil
			}
		}
	})
}

func (s *Service) hasPendingNoShow(ctx context.Context, a *appointment.Appointment) (bool, error) {
	id := a.ID()
	status := decision.StatusPending
	open, err := s.decisions.ListPendingDecisions(ctx, decision.Filter{AppointmentID: &id, Status: &status})
	if err != nil {
		return false, err
	}
	for _, d := range open {
		if d.Result().Action == decision.ActionRegisterNoShow {
			return true, nil
		}
	}
	return false, nil
}
