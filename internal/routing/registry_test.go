package routing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRegistryCRUD(t *testing.T) {
	reg := NewMemoryRegistry()
	ctx := context.Background()

	created, err := reg.Create(ctx, allStatusesDestination("Backend", "https://hooks.test/backend"))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)

	created.Description = "backend escalations"
	updated, err := reg.Update(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, "backend escalations", updated.Description)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	got, err := reg.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.Description, got.Description)

	require.NoError(t, reg.Delete(ctx, created.ID))
	_, err = reg.Get(ctx, created.ID)
	assert.ErrorIs(t, err, ErrDestinationNotFound)
	assert.ErrorIs(t, reg.Delete(ctx, created.ID), ErrDestinationNotFound)
}

func TestMemoryRegistryListEnabled(t *testing.T) {
	reg := NewMemoryRegistry()
	ctx := context.Background()

	on := allStatusesDestination("Zeta", "https://hooks.test/zeta")
	off := allStatusesDestination("Alpha", "https://hooks.test/alpha")
	off.Enabled = false

	_, err := reg.Create(ctx, on)
	require.NoError(t, err)
	_, err = reg.Create(ctx, off)
	require.NoError(t, err)

	all, err := reg.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Alpha", all[0].Name, "list is name ordered")

	enabled, err := reg.ListEnabled(ctx)
	require.NoError(t, err)
	require.Len(t, enabled, 1)
	assert.Equal(t, "Zeta", enabled[0].Name)
}

func TestMemoryRegistryLegacyDefaults(t *testing.T) {
	reg := NewMemoryRegistry()
	ctx := context.Background()

	s, err := reg.LegacySettings(ctx)
	require.NoError(t, err)
	assert.False(t, s.Enabled)
	assert.Equal(t, -1.0, s.MinSentimentScore)
	assert.Equal(t, 1.0, s.MaxSentimentScore)
	assert.True(t, s.SendCritical)
	assert.False(t, s.SendMedium)
	assert.True(t, s.SendBugReport)
	assert.False(t, s.SendResolved)

	s.Enabled = true
	s.WebhookURL = "https://hooks.test/legacy"
	saved, err := reg.UpdateLegacySettings(ctx, s)
	require.NoError(t, err)

	got, err := reg.LegacySettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, saved.WebhookURL, got.WebhookURL)
	assert.True(t, got.Enabled)
}

func TestRegistryDeleteNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	reg := newRegistryWithQuerier(mock)
	id := uuid.New()

	mock.ExpectExec("DELETE FROM destinations").
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	assert.ErrorIs(t, reg.Delete(context.Background(), id), ErrDestinationNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistryListEnabledSQL(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	reg := newRegistryWithQuerier(mock)
	now := time.Now().UTC()
	id := uuid.New()

	rows := pgxmock.NewRows([]string{
		"id", "name", "description", "webhook_url", "enabled",
		"send_critical", "send_high", "send_medium", "send_low",
		"send_help_request", "send_bug_report", "send_feature_request", "send_complaint",
		"send_feedback", "send_question", "send_documentation_issue", "send_urgent_issue",
		"send_general_discussion", "send_resolved", "send_other",
		"only_needs_response", "created_at", "updated_at",
	}).AddRow(
		id, "Backend", "backend escalations", "https://hooks.test/backend", true,
		true, true, false, false,
		true, true, false, false,
		false, true, false, true,
		false, false, false,
		false, now, now,
	)

	mock.ExpectQuery("SELECT (.+) FROM destinations WHERE enabled = TRUE").
		WillReturnRows(rows)

	got, err := reg.ListEnabled(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, id, got[0].ID)
	assert.Equal(t, "Backend", got[0].Name)
	assert.True(t, got[0].SendCritical)
	assert.False(t, got[0].SendMedium)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistryLegacySettingsSQL(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	reg := newRegistryWithQuerier(mock)
	now := time.Now().UTC()

	rows := pgxmock.NewRows([]string{
		"webhook_url", "enabled", "min_sentiment_score", "max_sentiment_score",
		"send_critical", "send_high", "send_medium", "send_low",
		"send_help_request", "send_bug_report", "send_feature_request", "send_complaint",
		"send_feedback", "send_question", "send_documentation_issue", "send_urgent_issue",
		"send_general_discussion", "send_resolved", "send_other",
		"only_needs_response", "updated_at",
	}).AddRow(
		"https://hooks.test/legacy", true, -1.0, 1.0,
		true, true, false, false,
		true, true, false, true,
		false, false, false, true,
		false, false, false,
		false, now,
	)

	mock.ExpectQuery("SELECT (.+) FROM webhook_settings WHERE id = 1").
		WillReturnRows(rows)

	got, err := reg.LegacySettings(context.Background())
	require.NoError(t, err)
	assert.True(t, got.Enabled)
	assert.True(t, got.SendBugReport)
	assert.False(t, got.SendResolved)
	assert.True(t, got.SendUrgentIssue)
	require.NoError(t, mock.ExpectationsWereMet())
}
