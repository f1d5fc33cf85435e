package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"

	"github.com/signalhouse/triage/internal/analysis"
	"github.com/signalhouse/triage/pkg/logging"
)

func TestStoreInsert(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	store := newStoreWithQuerier(mock)

	mock.ExpectExec("INSERT INTO usage").
		WithArgs("msg-1", "u1", "sam#0001", "c1", "support", "s1", "Acme",
			"gpt-4o-mini", 200, 100, 300, 0.00001, 0.00004, 0.00005,
			"bug_report", "frustrated", "high", -0.6, true, "crash on login",
			int64(850), false, (*string)(nil)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	rec := UsageRecord{
		MessageID: "msg-1", AuthorID: "u1", AuthorTag: "sam#0001",
		ChannelID: "c1", ChannelName: "support", ServerID: "s1", ServerName: "Acme",
		Model: "gpt-4o-mini", PromptTokens: 200, CompletionTokens: 100, TotalTokens: 300,
		InputCost: 0.00001, OutputCost: 0.00004, TotalCost: 0.00005,
		SupportStatus: "bug_report", Tone: "frustrated", Priority: "high",
		SentimentScore: -0.6, NeedsResponse: true, Summary: "crash on login",
		ProcessingMs: 850,
	}
	if err := store.Insert(context.Background(), rec); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStoreStats(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	store := newStoreWithQuerier(mock)

	first := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(2025, 5, 30, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT (.+) FROM usage").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{
			"count", "tokens", "cost", "avg_tokens", "avg_cost", "first", "last",
		}).AddRow(int64(12), int64(3600), 0.0018, 300.0, 0.00015, &first, &last))

	stats, err := store.Stats(context.Background(), first, last)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.TotalMessages != 12 || stats.TotalTokens != 3600 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.FirstMessage == nil || !stats.FirstMessage.Equal(first) {
		t.Fatalf("unexpected first message: %v", stats.FirstMessage)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestServiceRecordUsageSwallowsWriteFailure(t *testing.T) {
	svc := NewService(failingWriter{}, DefaultPricing, logging.Default())

	msg := analysis.Message{ID: "msg-1", Author: analysis.Author{ID: "u1"}}
	a := analysis.DefaultAnalysis(msg)

	// Must not panic or propagate the store error.
	svc.RecordUsage(context.Background(), msg, a, analysis.TokenUsage{}, "gpt-4o-mini", time.Second, errors.New("provider down"))
}

func TestServiceRecordUsageMarksFailedAttempt(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store, DefaultPricing, logging.Default())

	msg := analysis.Message{ID: "msg-1", Author: analysis.Author{ID: "u1", Tag: "sam#0001"}}
	a := analysis.DefaultAnalysis(msg)
	svc.RecordUsage(context.Background(), msg, a, analysis.TokenUsage{}, "gpt-4o-mini", 500*time.Millisecond, errors.New("timeout"))

	rows := store.Records()
	if len(rows) != 1 {
		t.Fatalf("expected 1 usage row, got %d", len(rows))
	}
	rec := rows[0]
	if !rec.ErrorOccurred || rec.ErrorMessage != "timeout" {
		t.Fatalf("expected failed attempt row, got %+v", rec)
	}
	if rec.TotalCost != 0 {
		t.Fatalf("expected zero cost for failed attempt, got %f", rec.TotalCost)
	}
	if rec.SupportStatus != "other" || !rec.NeedsResponse {
		t.Fatalf("expected default analysis snapshot, got %+v", rec)
	}
}

type failingWriter struct{}

func (failingWriter) Insert(context.Context, UsageRecord) error {
	return errors.New("db unavailable")
}
