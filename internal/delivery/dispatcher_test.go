package delivery

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalhouse/triage/internal/analysis"
	"github.com/signalhouse/triage/internal/routing"
)

func planFor(urls ...string) routing.Plan {
	var plan routing.Plan
	for _, u := range urls {
		plan = append(plan, routing.PlanEntry{
			Destination: routing.Destination{ID: uuid.New(), Name: "dest", WebhookURL: u},
		})
	}
	return plan
}

func TestDeliverRecordsSuccessAndFailure(t *testing.T) {
	okSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p Payload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		assert.NotEmpty(t, p.Attachments)
		w.WriteHeader(http.StatusOK)
	}))
	defer okSrv.Close()

	failSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer failSrv.Close()

	store := NewMemoryLogStore()
	d := NewDispatcher(okSrv.Client(), store, nil)

	msg := analysis.Message{ID: "msg-1", Server: analysis.Server{ID: "s"}, Channel: analysis.Channel{ID: "c"}}
	a := analysis.Analysis{Priority: analysis.PriorityHigh, SupportStatus: analysis.StatusBugReport}

	records := d.Deliver(context.Background(), msg, a, planFor(okSrv.URL, failSrv.URL))
	require.Len(t, records, 2)

	assert.True(t, records[0].Success)
	assert.Equal(t, http.StatusOK, records[0].StatusCode)
	assert.False(t, records[1].Success)
	assert.Equal(t, http.StatusBadGateway, records[1].StatusCode)
	assert.Contains(t, records[1].Error, "502")

	assert.Len(t, store.Records(), 2)
}

func TestDeliverEmptyPlanSendsNothing(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	d := NewDispatcher(srv.Client(), NewMemoryLogStore(), nil)
	records := d.Deliver(context.Background(), analysis.Message{ID: "msg-1"}, analysis.Analysis{}, nil)
	assert.Nil(t, records)
	assert.Equal(t, int32(0), hits.Load())
}

func TestDeliverUnreachableWebhook(t *testing.T) {
	store := NewMemoryLogStore()
	d := NewDispatcher(&http.Client{}, store, nil)

	records := d.Deliver(context.Background(), analysis.Message{ID: "msg-1"}, analysis.Analysis{},
		planFor("http://127.0.0.1:1/webhook"))
	require.Len(t, records, 1)
	assert.False(t, records[0].Success)
	assert.NotEmpty(t, records[0].Error)
	assert.Len(t, store.Records(), 1, "failed sends are still logged")
}

func TestMemoryLogStoreUniquePerMessageAndDestination(t *testing.T) {
	store := NewMemoryLogStore()
	ctx := context.Background()

	destID := uuid.New()
	rec := Record{MessageID: "msg-1", DestinationID: &destID, DestinationName: "Backend", Success: true}
	inserted, err := store.Append(ctx, rec)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = store.Append(ctx, rec)
	require.NoError(t, err)
	assert.False(t, inserted, "second attempt for same message and destination is rejected")

	// Legacy rows (nil destination) are unique per message too.
	legacy := Record{MessageID: "msg-1", DestinationName: "legacy"}
	inserted, err = store.Append(ctx, legacy)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = store.Append(ctx, legacy)
	require.NoError(t, err)
	assert.False(t, inserted)

	assert.Len(t, store.Records(), 2)
}

func TestLogStoreAppendReportsConflict(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := newLogStoreWithQuerier(mock)

	anyArgs := make([]interface{}, 8)
	for i := range anyArgs {
		anyArgs[i] = pgxmock.AnyArg()
	}
	mock.ExpectExec("INSERT INTO delivery_log").
		WithArgs(anyArgs...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	inserted, err := store.Append(context.Background(), Record{MessageID: "msg-1"})
	require.NoError(t, err)
	assert.True(t, inserted)

	mock.ExpectExec("INSERT INTO delivery_log").
		WithArgs(anyArgs...).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	inserted, err = store.Append(context.Background(), Record{MessageID: "msg-1"})
	require.NoError(t, err)
	assert.False(t, inserted)

	require.NoError(t, mock.ExpectationsWereMet())
}
