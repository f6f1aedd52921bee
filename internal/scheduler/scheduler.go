package scheduler

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"

	"PortfolioRebalancer/internal/model"
	"PortfolioRebalancer/internal/notifier"
	"PortfolioRebalancer/internal/rebalance"
	"PortfolioRebalancer/internal/recorder"
)

// Scheduler runs rebalance checks on a cron schedule and on demand.
type Scheduler struct {
	Cron      *cron.Cron
	Portfolio *rebalance.Portfolio
	Fallbacks []model.FallbackSource
	Notifier  notifier.Sender
	Recorder  recorder.Recorder
	Currency  string
	Ctx       context.Context

	mu sync.Mutex // one check at a time
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, p *rebalance.Portfolio, fallbacks []model.FallbackSource, n notifier.Sender, rec recorder.Recorder, currency string) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Portfolio: p,
		Fallbacks: fallbacks,
		Notifier:  n,
		Recorder:  rec,
		Currency:  currency,
		Ctx:       ctx,
	}
}

// Register adds the periodic rebalance check.
func (s *Scheduler) Register(checkCron string) error {
	if _, err := s.Cron.AddFunc(checkCron, func() { s.run(recorder.TriggerScheduled) }); err != nil {
		return fmt.Errorf("register rebalance check: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for a running check to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunNow executes a rebalance check immediately and returns its plan.
func (s *Scheduler) RunNow() (*rebalance.Plan, error) {
	return s.run(recorder.TriggerManual)
}

func (s *Scheduler) run(trigger string) (*rebalance.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log.Printf("[INFO] running rebalance check (%s)", trigger)
	plan, err := s.Portfolio.Plan(s.Fallbacks)
	if err != nil {
		log.Printf("[ERROR] rebalance check: %v", err)
		s.trySend(notifier.FormatFailure(err))
		if rerr := s.Recorder.RecordFailure(&recorder.FailureEvent{Trigger: trigger, Err: err}); rerr != nil {
			log.Printf("[ERROR] record failure: %v", rerr)
		}
		return nil, err
	}

	for _, r := range plan.Failed() {
		log.Printf("[WARN] %s: %s", r.Ticker, r.Error)
	}
	log.Printf("[INFO] rebalance check done: value=%.2f buys=%d sells=%d errors=%d",
		plan.TotalValue, len(plan.Buys()), len(plan.Sells()), len(plan.Failed()))

	s.trySend(notifier.FormatPlan(plan, s.Currency))

	if err := s.Recorder.RecordRun(&recorder.RunSnapshot{Trigger: trigger, Plan: plan}); err != nil {
		log.Printf("[ERROR] record run: %v", err)
	}
	return plan, nil
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	if len(fields) > 1 && strings.EqualFold(fields[0], "/history") {
		records, err := s.Recorder.Records(fields[1])
		if err != nil {
			return notifier.FormatFailure(err)
		}
		return notifier.FormatRunRecords(fields[1], records, s.Currency)
	}

	switch strings.ToLower(fields[0]) {
	case "/rebalance":
		// run delivers the plan or the failure itself
		s.run(recorder.TriggerCommand)
		return ""
	case "/total":
		total, err := s.Portfolio.TotalValue()
		if err != nil {
			return notifier.FormatFailure(err)
		}
		return notifier.FormatTotal(total, s.Currency)
	case "/allocations":
		return notifier.FormatAllocations(s.Portfolio.Allocations)
	case "/history":
		runs, err := s.Recorder.RecentRuns(10)
		if err != nil {
			return notifier.FormatFailure(err)
		}
		return notifier.FormatHistory(runs, s.Currency)
	default:
		return helpText
	}
}

const helpText = "Available commands:\n• /rebalance\n• /total\n• /allocations\n• /history\n• /history &lt;run id&gt;"

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
