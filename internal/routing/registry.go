package routing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrDestinationNotFound is returned when a destination id does not exist.
var ErrDestinationNotFound = errors.New("routing: destination not found")

type rowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Registry is the Postgres-backed destination store.
type Registry struct {
	db rowQuerier
}

// NewRegistry creates a registry backed by the given pool.
func NewRegistry(pool *pgxpool.Pool) *Registry {
	if pool == nil {
		panic("routing: pool required")
	}
	return &Registry{db: pool}
}

func newRegistryWithQuerier(db rowQuerier) *Registry {
	return &Registry{db: db}
}

const destinationColumns = `id, name, description, webhook_url, enabled,
	send_critical, send_high, send_medium, send_low,
	send_help_request, send_bug_report, send_feature_request, send_complaint,
	send_feedback, send_question, send_documentation_issue, send_urgent_issue,
	send_general_discussion, send_resolved, send_other,
	only_needs_response, created_at, updated_at`

// Create inserts a new destination and returns it with its generated id.
func (r *Registry) Create(ctx context.Context, d Destination) (Destination, error) {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	row := r.db.QueryRow(ctx, `
		INSERT INTO destinations (
			id, name, description, webhook_url, enabled,
			send_critical, send_high, send_medium, send_low,
			send_help_request, send_bug_report, send_feature_request, send_complaint,
			send_feedback, send_question, send_documentation_issue, send_urgent_issue,
			send_general_discussion, send_resolved, send_other,
			only_needs_response
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
		RETURNING `+destinationColumns,
		d.ID, d.Name, d.Description, d.WebhookURL, d.Enabled,
		d.SendCritical, d.SendHigh, d.SendMedium, d.SendLow,
		d.SendHelpRequest, d.SendBugReport, d.SendFeatureRequest, d.SendComplaint,
		d.SendFeedback, d.SendQuestion, d.SendDocumentationIssue, d.SendUrgentIssue,
		d.SendGeneralDiscussion, d.SendResolved, d.SendOther,
		d.OnlyIfNeedsResponse,
	)
	created, err := scanDestination(row)
	if err != nil {
		return Destination{}, fmt.Errorf("routing: create destination: %w", err)
	}
	return created, nil
}

// Update overwrites a destination's configuration.
func (r *Registry) Update(ctx context.Context, d Destination) (Destination, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE destinations SET
			name = $2, description = $3, webhook_url = $4, enabled = $5,
			send_critical = $6, send_high = $7, send_medium = $8, send_low = $9,
			send_help_request = $10, send_bug_report = $11, send_feature_request = $12,
			send_complaint = $13, send_feedback = $14, send_question = $15,
			send_documentation_issue = $16, send_urgent_issue = $17,
			send_general_discussion = $18, send_resolved = $19, send_other = $20,
			only_needs_response = $21, updated_at = NOW()
		WHERE id = $1
		RETURNING `+destinationColumns,
		d.ID, d.Name, d.Description, d.WebhookURL, d.Enabled,
		d.SendCritical, d.SendHigh, d.SendMedium, d.SendLow,
		d.SendHelpRequest, d.SendBugReport, d.SendFeatureRequest, d.SendComplaint,
		d.SendFeedback, d.SendQuestion, d.SendDocumentationIssue, d.SendUrgentIssue,
		d.SendGeneralDiscussion, d.SendResolved, d.SendOther,
		d.OnlyIfNeedsResponse,
	)
	updated, err := scanDestination(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Destination{}, ErrDestinationNotFound
	}
	if err != nil {
		return Destination{}, fmt.Errorf("routing: update destination: %w", err)
	}
	return updated, nil
}

// Delete removes a destination.
func (r *Registry) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM destinations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("routing: delete destination: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDestinationNotFound
	}
	return nil
}

// Get returns one destination by id.
func (r *Registry) Get(ctx context.Context, id uuid.UUID) (Destination, error) {
	row := r.db.QueryRow(ctx, `SELECT `+destinationColumns+` FROM destinations WHERE id = $1`, id)
	d, err := scanDestination(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Destination{}, ErrDestinationNotFound
	}
	if err != nil {
		return Destination{}, fmt.Errorf("routing: get destination: %w", err)
	}
	return d, nil
}

// List returns all destinations ordered by name.
func (r *Registry) List(ctx context.Context) ([]Destination, error) {
	rows, err := r.db.Query(ctx, `SELECT `+destinationColumns+` FROM destinations ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("routing: list destinations: %w", err)
	}
	defer rows.Close()
	return collectDestinations(rows)
}

// ListEnabled returns the destinations the router may send to.
func (r *Registry) ListEnabled(ctx context.Context) ([]Destination, error) {
	rows, err := r.db.Query(ctx, `SELECT `+destinationColumns+` FROM destinations WHERE enabled = TRUE ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("routing: list enabled destinations: %w", err)
	}
	defer rows.Close()
	return collectDestinations(rows)
}

// LegacySettings returns the single fallback webhook row.
func (r *Registry) LegacySettings(ctx context.Context) (LegacySettings, error) {
	row := r.db.QueryRow(ctx, `
		SELECT webhook_url, enabled, min_sentiment_score, max_sentiment_score,
			send_critical, send_high, send_medium, send_low,
			send_help_request, send_bug_report, send_feature_request, send_complaint,
			send_feedback, send_question, send_documentation_issue, send_urgent_issue,
			send_general_discussion, send_resolved, send_other,
			only_needs_response, updated_at
		FROM webhook_settings WHERE id = 1`)

	var s LegacySettings
	err := row.Scan(
		&s.WebhookURL, &s.Enabled, &s.MinSentimentScore, &s.MaxSentimentScore,
		&s.SendCritical, &s.SendHigh, &s.SendMedium, &s.SendLow,
		&s.SendHelpRequest, &s.SendBugReport, &s.SendFeatureRequest, &s.SendComplaint,
		&s.SendFeedback, &s.SendQuestion, &s.SendDocumentationIssue, &s.SendUrgentIssue,
		&s.SendGeneralDiscussion, &s.SendResolved, &s.SendOther,
		&s.OnlyIfNeedsResponse, &s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return DefaultLegacySettings(), nil
	}
	if err != nil {
		return LegacySettings{}, fmt.Errorf("routing: get legacy settings: %w", err)
	}
	return s, nil
}

// UpdateLegacySettings overwrites the fallback webhook row.
func (r *Registry) UpdateLegacySettings(ctx context.Context, s LegacySettings) (LegacySettings, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO webhook_settings (
			id, webhook_url, enabled, min_sentiment_score, max_sentiment_score,
			send_critical, send_high, send_medium, send_low,
			send_help_request, send_bug_report, send_feature_request, send_complaint,
			send_feedback, send_question, send_documentation_issue, send_urgent_issue,
			send_general_discussion, send_resolved, send_other,
			only_needs_response, updated_at
		) VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, NOW())
		ON CONFLICT (id) DO UPDATE SET
			webhook_url = EXCLUDED.webhook_url,
			enabled = EXCLUDED.enabled,
			min_sentiment_score = EXCLUDED.min_sentiment_score,
			max_sentiment_score = EXCLUDED.max_sentiment_score,
			send_critical = EXCLUDED.send_critical,
			send_high = EXCLUDED.send_high,
			send_medium = EXCLUDED.send_medium,
			send_low = EXCLUDED.send_low,
			send_help_request = EXCLUDED.send_help_request,
			send_bug_report = EXCLUDED.send_bug_report,
			send_feature_request = EXCLUDED.send_feature_request,
			send_complaint = EXCLUDED.send_complaint,
			send_feedback = EXCLUDED.send_feedback,
			send_question = EXCLUDED.send_question,
			send_documentation_issue = EXCLUDED.send_documentation_issue,
			send_urgent_issue = EXCLUDED.send_urgent_issue,
			send_general_discussion = EXCLUDED.send_general_discussion,
			send_resolved = EXCLUDED.send_resolved,
			send_other = EXCLUDED.send_other,
			only_needs_response = EXCLUDED.only_needs_response,
			updated_at = NOW()
		RETURNING webhook_url, enabled, min_sentiment_score, max_sentiment_score,
			send_critical, send_high, send_medium, send_low,
			send_help_request, send_bug_report, send_feature_request, send_complaint,
			send_feedback, send_question, send_documentation_issue, send_urgent_issue,
			send_general_discussion, send_resolved, send_other,
			only_needs_response, updated_at`,
		s.WebhookURL, s.Enabled, s.MinSentimentScore, s.MaxSentimentScore,
		s.SendCritical, s.SendHigh, s.SendMedium, s.SendLow,
		s.SendHelpRequest, s.SendBugReport, s.SendFeatureRequest, s.SendComplaint,
		s.SendFeedback, s.SendQuestion, s.SendDocumentationIssue, s.SendUrgentIssue,
		s.SendGeneralDiscussion, s.SendResolved, s.SendOther,
		s.OnlyIfNeedsResponse,
	)

	var out LegacySettings
	err := row.Scan(
		&out.WebhookURL, &out.Enabled, &out.MinSentimentScore, &out.MaxSentimentScore,
		&out.SendCritical, &out.SendHigh, &out.SendMedium, &out.SendLow,
		&out.SendHelpRequest, &out.SendBugReport, &out.SendFeatureRequest, &out.SendComplaint,
		&out.SendFeedback, &out.SendQuestion, &out.SendDocumentationIssue, &out.SendUrgentIssue,
		&out.SendGeneralDiscussion, &out.SendResolved, &out.SendOther,
		&out.OnlyIfNeedsResponse, &out.UpdatedAt,
	)
	if err != nil {
		return LegacySettings{}, fmt.Errorf("routing: update legacy settings: %w", err)
	}
	return out, nil
}

func scanDestination(row pgx.Row) (Destination, error) {
	var d Destination
	err := row.Scan(
		&d.ID, &d.Name, &d.Description, &d.WebhookURL, &d.Enabled,
		&d.SendCritical, &d.SendHigh, &d.SendMedium, &d.SendLow,
		&d.SendHelpRequest, &d.SendBugReport, &d.SendFeatureRequest, &d.SendComplaint,
		&d.SendFeedback, &d.SendQuestion, &d.SendDocumentationIssue, &d.SendUrgentIssue,
		&d.SendGeneralDiscussion, &d.SendResolved, &d.SendOther,
		&d.OnlyIfNeedsResponse, &d.CreatedAt, &d.UpdatedAt,
	)
	return d, err
}

func collectDestinations(rows pgx.Rows) ([]Destination, error) {
	var out []Destination
	for rows.Next() {
		d, err := scanDestination(rows)
		if err != nil {
			return nil, fmt.Errorf("routing: scan destination: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("routing: iterate destinations: %w", err)
	}
	return out, nil
}
