package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hackgods/clinic-appointment-lifecycle/internal/app"
	"github.com/hackgods/clinic-appointment-lifecycle/internal/config"
	"github.com/hackgods/clinic-appointment-lifecycle/internal/usecase"
)

var specialties = []string{
	"Dermatology",
	"Cardiology",
	"General Practice",
	"Orthopedics",
	"Oncology",
	"Neurology",
	"Pediatrics",
	"Obstetrics",
	"Ophthalmology",
}

var signals = []string{
	"chest_pain",
	"high_fever",
	"post_surgery",
	"pregnancy",
	"persistent_pain",
	"follow_up",
}

func main() {
	patients := flag.Int("patients", 200, "patients to register")
	perPatient := flag.Int("appointments", 2, "appointments requested per patient")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load error", "error", err)
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)
	logger.Info("seed starting", "patients", *patients, "appointments_per_patient", *perPatient)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	a, err := app.Build(ctx, cfg, logger, prometheus.NewRegistry())
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	faker := gofakeit.New(0)
	var created, confirmed, failed int

	for i := 0; i < *patients; i++ {
		p := a.Service.RegisterPatient(ctx, usecase.RegisterPatientCommand{
			Name:      faker.Name(),
			Phone:     faker.Numerify("(###) ###-####"),
			BirthDate: faker.DateRange(time.Now().AddDate(-90, 0, 0), time.Now().AddDate(-1, 0, 0)),
			Recurring: faker.Bool(),
		})
		if !p.OK {
			logger.Warn("register patient failed", "kind", p.Kind, "error", p.Error)
			failed++
			continue
		}

		for j := 0; j < *perPatient; j++ {
			var urgency []string
			if faker.Number(0, 3) == 0 {
				urgency = append(urgency, signals[faker.Number(0, len(signals)-1)])
			}
			res := a.Service.RequestAppointment(ctx, usecase.RequestAppointmentCommand{
				PatientID:      p.Value.ID(),
				Specialty:      specialties[faker.Number(0, len(specialties)-1)],
				ScheduledAt:    time.Now().Add(time.Duration(faker.Number(2, 24*21)) * time.Hour),
				UrgencySignals: urgency,
			})
			if !res.OK {
				logger.Warn("request appointment failed", "kind", res.Kind, "error", res.Error)
				failed++
				continue
			}
			created++

			if faker.Bool() {
				c := a.Service.Confirm(ctx, usecase.AppointmentCommand{AppointmentID: res.Value.ID()})
				if c.OK {
					confirmed++
				}
			}
		}
	}

	logger.Info("seed complete", "appointments", created, "confirmed", confirmed, "failed", failed)
}
