package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/signalhouse/triage/internal/analysis"
	"github.com/signalhouse/triage/internal/routing"
	"github.com/signalhouse/triage/pkg/logging"
)

// Logger is the delivery log surface the dispatcher needs.
type Logger interface {
	Append(ctx context.Context, rec Record) (bool, error)
}

// Dispatcher sends webhook notifications for a delivery plan and records
// every attempt. Sends to different destinations run concurrently.
type Dispatcher struct {
	client *http.Client
	log    Logger
	logger *logging.Logger
}

// NewDispatcher creates a dispatcher. The client's timeout bounds each send.
func NewDispatcher(client *http.Client, log Logger, logger *logging.Logger) *Dispatcher {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if log == nil {
		panic("delivery: log store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Dispatcher{client: client, log: log, logger: logger}
}

// Deliver executes the plan for one message. Every attempt is returned and
// logged; a log-write failure never changes the send verdict.
func (d *Dispatcher) Deliver(ctx context.Context, msg analysis.Message, a analysis.Analysis, plan routing.Plan) []Record {
	if len(plan) == 0 {
		return nil
	}

	records := make([]Record, len(plan))
	var wg sync.WaitGroup
	for i, entry := range plan {
		wg.Add(1)
		go func(i int, entry routing.PlanEntry) {
			defer wg.Done()
			records[i] = d.send(ctx, msg, a, entry)
		}(i, entry)
	}
	wg.Wait()

	for _, rec := range records {
		inserted, err := d.log.Append(ctx, rec)
		if err != nil {
			d.logger.Error("failed to write delivery log",
				"message_id", rec.MessageID, "destination", rec.DestinationName, "error", err)
			continue
		}
		if !inserted {
			d.logger.Debug("delivery already logged",
				"message_id", rec.MessageID, "destination", rec.DestinationName)
		}
	}
	return records
}

func (d *Dispatcher) send(ctx context.Context, msg analysis.Message, a analysis.Analysis, entry routing.PlanEntry) Record {
	rec := Record{
		MessageID:       msg.ID,
		DestinationName: entry.Destination.Name,
		WebhookURL:      entry.Destination.WebhookURL,
		SentAt:          time.Now().UTC(),
	}
	if !entry.Legacy {
		id := entry.Destination.ID
		rec.DestinationID = &id
	}

	body, err := json.Marshal(BuildPayload(msg, a, entry))
	if err != nil {
		rec.Error = fmt.Sprintf("encode payload: %v", err)
		return rec
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, entry.Destination.WebhookURL, bytes.NewReader(body))
	if err != nil {
		rec.Error = fmt.Sprintf("build request: %v", err)
		return rec
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		rec.Error = err.Error()
		d.logger.Warn("webhook send failed",
			"message_id", msg.ID, "destination", entry.Destination.Name, "error", err)
		return rec
	}
	defer resp.Body.Close()

	rec.StatusCode = resp.StatusCode
	rec.Success = resp.StatusCode >= 200 && resp.StatusCode < 300
	if !rec.Success {
		rec.Error = fmt.Sprintf("webhook returned %d", resp.StatusCode)
		d.logger.Warn("webhook rejected notification",
			"message_id", msg.ID, "destination", entry.Destination.Name, "status", resp.StatusCode)
		return rec
	}

	d.logger.Info("notification delivered",
		"message_id", msg.ID, "destination", entry.Destination.Name)
	return rec
}
