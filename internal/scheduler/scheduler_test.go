package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"PortfolioRebalancer/internal/model"
	"PortfolioRebalancer/internal/pricing"
	"PortfolioRebalancer/internal/rebalance"
	"PortfolioRebalancer/internal/recorder"
)

type captureSender struct {
	mu   sync.Mutex
	sent []string
}

func (c *captureSender) SendWithRetry(_ context.Context, text string, _ int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, text)
	return nil
}

type memRecorder struct {
	recorder.NoopRecorder
	runs     []*recorder.RunSnapshot
	failures []*recorder.FailureEvent
}

func (m *memRecorder) RecordRun(snap *recorder.RunSnapshot) error {
	m.runs = append(m.runs, snap)
	return nil
}

func (m *memRecorder) RecordFailure(evt *recorder.FailureEvent) error {
	m.failures = append(m.failures, evt)
	return nil
}

func (m *memRecorder) RecentRuns(int) ([]recorder.RunSummary, error) {
	return nil, errors.New("history unavailable")
}

func (m *memRecorder) Records(runID string) ([]model.ComputedRecord, error) {
	for _, r := range m.runs {
		if r.ID == runID {
			return r.Plan.Records, nil
		}
	}
	return nil, nil
}

func newTestScheduler(positions []model.Position) (*Scheduler, *captureSender, *memRecorder) {
	prices := &pricing.Mock{Prices: map[string]float64{"APPL": 100, "META": 50}}
	for i := range positions {
		positions[i].Price = prices
	}
	alloc := model.NewAllocationTarget(
		model.Allocation{Ticker: "APPL", Weight: 0.6},
		model.Allocation{Ticker: "META", Weight: 0.4},
	)
	p := rebalance.New(positions, alloc)
	sender := &captureSender{}
	rec := &memRecorder{}
	s := NewScheduler(context.Background(), p, pricing.Bind(alloc.Tickers(), prices), sender, rec, "USD")
	return s, sender, rec
}

func TestRunNow(t *testing.T) {
	s, sender, rec := newTestScheduler([]model.Position{{Ticker: "APPL", Quantity: 100}})

	plan, err := s.RunNow()
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(plan.Sells()) != 1 || len(plan.Buys()) != 1 {
		t.Errorf("expected one sell and one buy, got %d/%d", len(plan.Sells()), len(plan.Buys()))
	}
	if len(sender.sent) != 1 || !strings.Contains(sender.sent[0], "Rebalance plan") {
		t.Errorf("expected plan notification, got %v", sender.sent)
	}
	if len(rec.runs) != 1 || rec.runs[0].Trigger != recorder.TriggerManual {
		t.Errorf("expected one manual run recorded, got %+v", rec.runs)
	}
}

func TestRunNow_Failure(t *testing.T) {
	s, sender, rec := newTestScheduler([]model.Position{{Ticker: "APPL", Quantity: -1}})

	if _, err := s.RunNow(); !errors.Is(err, rebalance.ErrInvalidQuantity) {
		t.Fatalf("expected invalid quantity, got %v", err)
	}
	if len(sender.sent) != 1 || !strings.Contains(sender.sent[0], "Rebalance failed") {
		t.Errorf("expected failure notification, got %v", sender.sent)
	}
	if len(rec.failures) != 1 || len(rec.runs) != 0 {
		t.Errorf("expected one failure recorded, got %d failures, %d runs", len(rec.failures), len(rec.runs))
	}
}

func TestHandleCommand(t *testing.T) {
	s, sender, rec := newTestScheduler([]model.Position{{Ticker: "APPL", Quantity: 100}})

	tests := []struct {
		cmd  string
		want string
	}{
		{"/total", "$10,000.00"},
		{"/allocations", "APPL: 60%"},
		{"/history", "history unavailable"},
		{"/help", "/rebalance"},
		{"hello", "Available commands"},
	}
	for _, tt := range tests {
		if got := s.HandleCommand(tt.cmd); !strings.Contains(got, tt.want) {
			t.Errorf("%s: expected %q in reply, got %q", tt.cmd, tt.want, got)
		}
	}

	if reply := s.HandleCommand("/Rebalance"); reply != "" {
		t.Errorf("expected empty reply for /rebalance, got %q", reply)
	}
	if len(sender.sent) != 1 || len(rec.runs) != 1 || rec.runs[0].Trigger != recorder.TriggerCommand {
		t.Errorf("expected /rebalance to run and record, got %d sent, %+v", len(sender.sent), rec.runs)
	}
}

func TestRegister_InvalidCron(t *testing.T) {
	s, _, _ := newTestScheduler(nil)
	if err := s.Register("not a cron"); err == nil {
		t.Error("expected error for invalid cron expression")
	}
	if err := s.Register("0 0 9 * * 1-5"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestHandleCommand_HistoryDetail(t *testing.T) {
	s, _, rec := newTestScheduler([]model.Position{{Ticker: "APPL", Quantity: 100}})
	if _, err := s.RunNow(); err != nil {
		t.Fatalf("run: %v", err)
	}
	rec.runs[0].ID = "run-1"

	out := s.HandleCommand("/history run-1")
	if !strings.Contains(out, "run-1") || !strings.Contains(out, "APPL") || !strings.Contains(out, "Sell") {
		t.Errorf("expected run detail, got %q", out)
	}
	if out := s.HandleCommand("/HISTORY missing"); !strings.Contains(out, "No records for run missing") {
		t.Errorf("expected empty detail, got %q", out)
	}
	if out := s.HandleCommand("   "); !strings.Contains(out, "Available commands") {
		t.Errorf("expected help for blank command, got %q", out)
	}
}
