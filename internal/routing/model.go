package routing

import (
	"time"

	"github.com/google/uuid"

	"github.com/signalhouse/triage/internal/analysis"
)

// Destination is a webhook endpoint that receives classified messages
// matching its priority and status filters.
type Destination struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	WebhookURL  string    `json:"webhook_url"`
	Enabled     bool      `json:"enabled"`

	SendCritical bool `json:"send_critical"`
	SendHigh     bool `json:"send_high"`
	SendMedium   bool `json:"send_medium"`
	SendLow      bool `json:"send_low"`

	SendHelpRequest        bool `json:"send_help_request"`
	SendBugReport          bool `json:"send_bug_report"`
	SendFeatureRequest     bool `json:"send_feature_request"`
	SendComplaint          bool `json:"send_complaint"`
	SendFeedback           bool `json:"send_feedback"`
	SendQuestion           bool `json:"send_question"`
	SendDocumentationIssue bool `json:"send_documentation_issue"`
	SendUrgentIssue        bool `json:"send_urgent_issue"`
	SendGeneralDiscussion  bool `json:"send_general_discussion"`
	SendResolved           bool `json:"send_resolved"`
	SendOther              bool `json:"send_other"`

	OnlyIfNeedsResponse bool `json:"only_needs_response"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WantsPriority reports whether the destination accepts the given priority.
func (d Destination) WantsPriority(p analysis.Priority) bool {
	switch p {
	case analysis.PriorityCritical:
		return d.SendCritical
	case analysis.PriorityHigh:
		return d.SendHigh
	case analysis.PriorityMedium:
		return d.SendMedium
	case analysis.PriorityLow:
		return d.SendLow
	default:
		return false
	}
}

// WantsStatus reports whether the destination accepts the given status.
func (d Destination) WantsStatus(s analysis.SupportStatus) bool {
	switch s {
	case analysis.StatusHelpRequest:
		return d.SendHelpRequest
	case analysis.StatusBugReport:
		return d.SendBugReport
	case analysis.StatusFeatureRequest:
		return d.SendFeatureRequest
	case analysis.StatusComplaint:
		return d.SendComplaint
	case analysis.StatusFeedback:
		return d.SendFeedback
	case analysis.StatusQuestion:
		return d.SendQuestion
	case analysis.StatusDocumentationIssue:
		return d.SendDocumentationIssue
	case analysis.StatusUrgentIssue:
		return d.SendUrgentIssue
	case analysis.StatusGeneralDiscussion:
		return d.SendGeneralDiscussion
	case analysis.StatusResolved:
		return d.SendResolved
	case analysis.StatusOther:
		return d.SendOther
	default:
		return false
	}
}

// LegacySettings is the single-row fallback webhook used when no destination
// claims a message. It predates per-destination routing and keeps its own
// sentiment bounds.
type LegacySettings struct {
	WebhookURL        string  `json:"webhook_url"`
	Enabled           bool    `json:"enabled"`
	MinSentimentScore float64 `json:"min_sentiment_score"`
	MaxSentimentScore float64 `json:"max_sentiment_score"`

	SendCritical bool `json:"send_critical"`
	SendHigh     bool `json:"send_high"`
	SendMedium   bool `json:"send_medium"`
	SendLow      bool `json:"send_low"`

	SendHelpRequest        bool `json:"send_help_request"`
	SendBugReport          bool `json:"send_bug_report"`
	SendFeatureRequest     bool `json:"send_feature_request"`
	SendComplaint          bool `json:"send_complaint"`
	SendFeedback           bool `json:"send_feedback"`
	SendQuestion           bool `json:"send_question"`
	SendDocumentationIssue bool `json:"send_documentation_issue"`
	SendUrgentIssue        bool `json:"send_urgent_issue"`
	SendGeneralDiscussion  bool `json:"send_general_discussion"`
	SendResolved           bool `json:"send_resolved"`
	SendOther              bool `json:"send_other"`

	OnlyIfNeedsResponse bool `json:"only_needs_response"`

	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultLegacySettings is the seeded legacy configuration: disabled until a
// webhook URL is set, full sentiment range, urgent priorities and
// needs-attention statuses on, chatter statuses off.
func DefaultLegacySettings() LegacySettings {
	return LegacySettings{
		Enabled:           false,
		MinSentimentScore: -1,
		MaxSentimentScore: 1,
		SendCritical:      true,
		SendHigh:          true,
		SendMedium:        false,
		SendLow:           false,

		SendHelpRequest: true,
		SendBugReport:   true,
		SendComplaint:   true,
		SendUrgentIssue: true,
	}
}

// WantsPriority reports whether the legacy webhook accepts the given priority.
func (l LegacySettings) WantsPriority(p analysis.Priority) bool {
	switch p {
	case analysis.PriorityCritical:
		return l.SendCritical
	case analysis.PriorityHigh:
		return l.SendHigh
	case analysis.PriorityMedium:
		return l.SendMedium
	case analysis.PriorityLow:
		return l.SendLow
	default:
		return false
	}
}

// WantsStatus reports whether the legacy webhook accepts the given status.
func (l LegacySettings) WantsStatus(s analysis.SupportStatus) bool {
	switch s {
	case analysis.StatusHelpRequest:
		return l.SendHelpRequest
	case analysis.StatusBugReport:
		return l.SendBugReport
	case analysis.StatusFeatureRequest:
		return l.SendFeatureRequest
	case analysis.StatusComplaint:
		return l.SendComplaint
	case analysis.StatusFeedback:
		return l.SendFeedback
	case analysis.StatusQuestion:
		return l.SendQuestion
	case analysis.StatusDocumentationIssue:
		return l.SendDocumentationIssue
	case analysis.StatusUrgentIssue:
		return l.SendUrgentIssue
	case analysis.StatusGeneralDiscussion:
		return l.SendGeneralDiscussion
	case analysis.StatusResolved:
		return l.SendResolved
	case analysis.StatusOther:
		return l.SendOther
	default:
		return false
	}
}

// PlanEntry is one webhook send the router decided on. Confidence is set when
// the destination was picked because the model recommended it. Legacy marks
// the fallback webhook, which has no destination row.
type PlanEntry struct {
	Destination Destination
	Recommended bool
	Confidence  float64
	Legacy      bool
}

// Plan is the ordered set of webhook sends for one message. Each destination
// appears at most once.
type Plan []PlanEntry
