package delivery

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalhouse/triage/internal/analysis"
	"github.com/signalhouse/triage/internal/routing"
)

func sampleMessage() analysis.Message {
	return analysis.Message{
		ID:        "111",
		Content:   "App crashes on login",
		Timestamp: time.Unix(1718000000, 0).UTC(),
		Author:    analysis.Author{Tag: "sam#0001"},
		Channel:   analysis.Channel{ID: "222", Name: "support"},
		Server:    analysis.Server{ID: "333", Name: "Acme"},
	}
}

func TestBuildPayloadShape(t *testing.T) {
	a := analysis.Analysis{
		SupportStatus: analysis.StatusBugReport,
		Tone:          analysis.ToneFrustrated,
		Priority:      analysis.PriorityHigh,
		Sentiment:     analysis.Sentiment{Score: -0.3},
		NeedsResponse: true,
		Summary:       "login is broken",
	}
	entry := routing.PlanEntry{
		Destination: routing.Destination{Name: "Backend", WebhookURL: "https://hooks.test/backend"},
		Recommended: true,
		Confidence:  0.85,
	}

	p := BuildPayload(sampleMessage(), a, entry)

	assert.Equal(t, "login is broken", p.Text)
	require.Len(t, p.Attachments, 1)
	att := p.Attachments[0]
	assert.Equal(t, "#ff6600", att.Color)
	assert.Equal(t, "https://discord.com/channels/333/222/111", att.TitleLink)
	assert.Equal(t, "App crashes on login", att.Text)
	assert.Equal(t, "Backend", att.Footer)
	assert.Equal(t, int64(1718000000), att.TS)

	var confidence string
	for _, f := range att.Fields {
		if f.Title == "AI Routing Confidence" {
			confidence = f.Value
		}
	}
	assert.Equal(t, "85%", confidence)
}

func TestPayloadColorByPriority(t *testing.T) {
	cases := []struct {
		priority analysis.Priority
		score    float64
		want     string
	}{
		{analysis.PriorityCritical, 0, "#ff0000"},
		{analysis.PriorityHigh, 0, "#ff6600"},
		{analysis.PriorityMedium, 0, "#ffcc00"},
		{analysis.PriorityLow, 0, "#36a64f"},
		{analysis.PriorityLow, -0.6, "#ff3300"},
		{analysis.PriorityCritical, -0.51, "#ff3300"},
	}
	for _, tc := range cases {
		a := analysis.Analysis{Priority: tc.priority, Sentiment: analysis.Sentiment{Score: tc.score}}
		p := BuildPayload(sampleMessage(), a, routing.PlanEntry{})
		assert.Equal(t, tc.want, p.Attachments[0].Color, "priority=%s score=%v", tc.priority, tc.score)
	}
}

func TestPayloadTruncatesLongBody(t *testing.T) {
	msg := sampleMessage()
	msg.Content = strings.Repeat("x", 600)

	p := BuildPayload(msg, analysis.Analysis{Priority: analysis.PriorityLow}, routing.PlanEntry{})
	body := p.Attachments[0].Text
	assert.Len(t, body, 503)
	assert.True(t, strings.HasSuffix(body, "..."))
	assert.Equal(t, strings.Repeat("x", 500), body[:500])

	msg.Content = strings.Repeat("x", 500)
	p = BuildPayload(msg, analysis.Analysis{Priority: analysis.PriorityLow}, routing.PlanEntry{})
	assert.Equal(t, msg.Content, p.Attachments[0].Text)
}

func TestPayloadOmitsConfidenceForBroadcast(t *testing.T) {
	p := BuildPayload(sampleMessage(), analysis.Analysis{Priority: analysis.PriorityLow}, routing.PlanEntry{
		Destination: routing.Destination{Name: "Backend"},
	})
	for _, f := range p.Attachments[0].Fields {
		assert.NotEqual(t, "AI Routing Confidence", f.Title)
	}
}
