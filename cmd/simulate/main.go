package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
)

// The simulator drives a running api-server with concurrent workers. Several
// workers deliberately act on the same appointment or decision so that
// conflicts and already-resolved answers show up in the report.
type SimConfig struct {
	APIBaseURL     string
	Duration       time.Duration
	Workers        int
	Patients       int
	RequestRatio   float64
	LifecycleRatio float64
	ProposeRatio   float64
	ResolveRatio   float64
}

type DataPool struct {
	mu           sync.RWMutex
	patients     []uuid.UUID
	appointments []uuid.UUID
	decisions    []uuid.UUID
}

func (dp *DataPool) add(list *[]uuid.UUID, id uuid.UUID) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	*list = append(*list, id)
}

func (dp *DataPool) pick(rng *rand.Rand, list *[]uuid.UUID) (uuid.UUID, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	if len(*list) == 0 {
		return uuid.Nil, false
	}
	return (*list)[rng.Intn(len(*list))], true
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Rejected  int64
	Error     int64
	mu        sync.Mutex
	latencies []time.Duration
}

func (om *OperationMetrics) Record(latency time.Duration, status int, err error) {
	atomic.AddInt64(&om.Total, 1)
	switch {
	case err != nil || status >= http.StatusInternalServerError:
		atomic.AddInt64(&om.Error, 1)
	case status == http.StatusConflict:
		atomic.AddInt64(&om.Conflict, 1)
	case status >= http.StatusBadRequest:
		atomic.AddInt64(&om.Rejected, 1)
	default:
		atomic.AddInt64(&om.Success, 1)
	}

	om.mu.Lock()
	om.latencies = append(om.latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Percentiles() (p50, p95, max time.Duration) {
	om.mu.Lock()
	latencies := append([]time.Duration(nil), om.latencies...)
	om.mu.Unlock()

	if len(latencies) == 0 {
		return 0, 0, 0
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	at := func(pct int) time.Duration {
		idx := len(latencies) * pct / 100
		if idx >= len(latencies) {
			idx = len(latencies) - 1
		}
		return latencies[idx]
	}
	return at(50), at(95), latencies[len(latencies)-1]
}

type Simulator struct {
	config SimConfig
	pool   *DataPool
	client *http.Client
	ops    map[string]*OperationMetrics
}

var opNames = []string{"request", "confirm", "cancel", "attend", "propose", "approve", "reject", "read"}

func main() {
	cfg := loadConfig()
	if cfg.Workers <= 0 || cfg.Duration <= 0 || cfg.Patients <= 0 {
		slog.Error("SIM_WORKERS, SIM_DURATION and SIM_PATIENTS must be positive")
		os.Exit(1)
	}
	slog.Info("simulator starting", "base_url", cfg.APIBaseURL, "duration", cfg.Duration, "workers", cfg.Workers)

	sim := &Simulator{
		config: cfg,
		pool:   &DataPool{},
		client: &http.Client{Timeout: 10 * time.Second},
		ops:    make(map[string]*OperationMetrics, len(opNames)),
	}
	for _, name := range opNames {
		sim.ops[name] = &OperationMetrics{}
	}

	if err := sim.registerPatients(context.Background()); err != nil {
		slog.Error("register patients", "error", err)
		os.Exit(1)
	}

	sim.Run()
	sim.PrintReport()
}

func loadConfig() SimConfig {
	cfg := SimConfig{
		APIBaseURL:     getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:       getDuration("SIM_DURATION", 30*time.Second),
		Workers:        getInt("SIM_WORKERS", 10),
		Patients:       getInt("SIM_PATIENTS", 50),
		RequestRatio:   getFloat("SIM_REQUEST_RATIO", 0.3),
		LifecycleRatio: getFloat("SIM_LIFECYCLE_RATIO", 0.3),
		ProposeRatio:   getFloat("SIM_PROPOSE_RATIO", 0.2),
		ResolveRatio:   getFloat("SIM_RESOLVE_RATIO", 0.2),
	}

	total := cfg.RequestRatio + cfg.LifecycleRatio + cfg.ProposeRatio + cfg.ResolveRatio
	if total > 0 {
		cfg.RequestRatio /= total
		cfg.LifecycleRatio /= total
		cfg.ProposeRatio /= total
		cfg.ResolveRatio /= total
	}
	return cfg
}

func (s *Simulator) registerPatients(ctx context.Context) error {
	faker := gofakeit.New(0)
	for i := 0; i < s.config.Patients; i++ {
		var out struct {
			ID uuid.UUID `json:"id"`
		}
		status, err := s.call(ctx, http.MethodPost, "/patients", map[string]any{
			"name":       faker.Name(),
			"phone":      faker.Numerify("##########"),
			"birth_date": faker.DateRange(time.Now().AddDate(-80, 0, 0), time.Now().AddDate(-1, 0, 0)).Format(time.DateOnly),
			"recurring":  faker.Bool(),
		}, &out)
		if err != nil {
			return err
		}
		if status != http.StatusCreated {
			return fmt.Errorf("unexpected status %d registering patient", status)
		}
		s.pool.add(&s.pool.patients, out.ID)
	}
	slog.Info("patients registered", "count", s.config.Patients)
	return nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}
	wg.Wait()
	slog.Info("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))
	c := s.config

	for ctx.Err() == nil {
		r := rng.Float64()
		switch {
		case r < c.RequestRatio:
			s.doRequest(ctx, rng)
		case r < c.RequestRatio+c.LifecycleRatio:
			s.doLifecycle(ctx, rng)
		case r < c.RequestRatio+c.LifecycleRatio+c.ProposeRatio:
			s.doPropose(ctx, rng)
		default:
			s.doResolve(ctx, rng)
		}
	}
}

func (s *Simulator) doRequest(ctx context.Context, rng *rand.Rand) {
	patientID, ok := s.pool.pick(rng, &s.pool.patients)
	if !ok {
		return
	}
	specialties := []string{"Cardiology", "Dermatology", "Pediatrics", "General Practice"}

	var out struct {
		ID uuid.UUID `json:"id"`
	}
	s.timed("request", func() (int, error) {
		return s.call(ctx, http.MethodPost, "/appointments", map[string]any{
			"patient_id":   patientID,
			"specialty":    specialties[rng.Intn(len(specialties))],
			"scheduled_at": time.Now().Add(time.Duration(1+rng.Intn(240)) * time.Hour),
		}, &out)
	})
	if out.ID != uuid.Nil {
		s.pool.add(&s.pool.appointments, out.ID)
	}
}

func (s *Simulator) doLifecycle(ctx context.Context, rng *rand.Rand) {
	id, ok := s.pool.pick(rng, &s.pool.appointments)
	if !ok {
		return
	}
	op := []string{"confirm", "confirm", "cancel", "attend", "read"}[rng.Intn(5)]
	path := map[string]string{"confirm": "/confirm", "cancel": "/cancel", "attend": "/attend"}[op]

	s.timed(op, func() (int, error) {
		if op == "read" {
			return s.call(ctx, http.MethodGet, "/appointments/"+id.String(), nil, nil)
		}
		return s.call(ctx, http.MethodPost, "/appointments/"+id.String()+path, nil, nil)
	})
}

func (s *Simulator) doPropose(ctx context.Context, rng *rand.Rand) {
	id, ok := s.pool.pick(rng, &s.pool.appointments)
	if !ok {
		return
	}
	actions := []string{"confirm", "cancel", "register_no_show", "assign_priority"}
	body := map[string]any{
		"action":     actions[rng.Intn(len(actions))],
		"confidence": rng.Float64(),
		"source":     "simulator",
	}
	if body["action"] == "assign_priority" {
		body["priority"] = strconv.Itoa(1 + rng.Intn(4))
	}

	var out struct {
		Decision *struct {
			ID uuid.UUID `json:"id"`
		} `json:"decision"`
	}
	s.timed("propose", func() (int, error) {
		return s.call(ctx, http.MethodPost, "/appointments/"+id.String()+"/proposals", body, &out)
	})
	if out.Decision != nil {
		s.pool.add(&s.pool.decisions, out.Decision.ID)
	}
}

// doResolve races approvals and rejections on the same decision; only the
// first one may succeed.
func (s *Simulator) doResolve(ctx context.Context, rng *rand.Rand) {
	id, ok := s.pool.pick(rng, &s.pool.decisions)
	if !ok {
		return
	}
	op := "approve"
	if rng.Intn(3) == 0 {
		op = "reject"
	}
	s.timed(op, func() (int, error) {
		return s.call(ctx, http.MethodPost, "/decisions/"+id.String()+"/"+op, map[string]any{
			"resolved_by": fmt.Sprintf("sim-reviewer-%d", rng.Intn(5)),
		}, nil)
	})
}

func (s *Simulator) timed(op string, fn func() (int, error)) {
	start := time.Now()
	status, err := fn()
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return
	}
	s.ops[op].Record(time.Since(start), status, err)
}

func (s *Simulator) call(ctx context.Context, method, path string, body, out any) (int, error) {
	var payload *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		payload = bytes.NewReader(raw)
	} else {
		payload = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.config.APIBaseURL+path, payload)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < http.StatusBadRequest {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, err
		}
	}
	return resp.StatusCode, nil
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s  Workers: %d\n\n", s.config.Duration, s.config.Workers)

	for _, name := range opNames {
		om := s.ops[name]
		total := atomic.LoadInt64(&om.Total)
		if total == 0 {
			continue
		}
		p50, p95, max := om.Percentiles()
		pct := func(n int64) float64 { return float64(n) / float64(total) * 100 }

		fmt.Printf("%s:\n", name)
		fmt.Printf("  Total: %d\n", total)
		fmt.Printf("  Success: %d (%.1f%%)\n", om.Success, pct(om.Success))
		fmt.Printf("  Conflict: %d (%.1f%%)\n", om.Conflict, pct(om.Conflict))
		fmt.Printf("  Rejected: %d (%.1f%%)\n", om.Rejected, pct(om.Rejected))
		fmt.Printf("  Errors: %d (%.1f%%)\n", om.Error, pct(om.Error))
		fmt.Printf("  Latency: p50=%s p95=%s max=%s\n\n",
			p50.Round(time.Millisecond), p95.Round(time.Millisecond), max.Round(time.Millisecond))
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
