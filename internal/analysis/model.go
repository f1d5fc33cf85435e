package analysis

import "time"

// SupportStatus categorizes what kind of support attention a message needs.
type SupportStatus string

const (
	StatusHelpRequest        SupportStatus = "help_request"
	StatusBugReport          SupportStatus = "bug_report"
	StatusFeatureRequest     SupportStatus = "feature_request"
	StatusComplaint          SupportStatus = "complaint"
	StatusFeedback           SupportStatus = "feedback"
	StatusQuestion           SupportStatus = "question"
	StatusDocumentationIssue SupportStatus = "documentation_issue"
	StatusUrgentIssue        SupportStatus = "urgent_issue"
	StatusGeneralDiscussion  SupportStatus = "general_discussion"
	StatusResolved           SupportStatus = "resolved"
	StatusOther              SupportStatus = "other"
)

// SupportStatuses lists every valid status in schema order.
var SupportStatuses = []SupportStatus{
	StatusHelpRequest,
	StatusBugReport,
	StatusFeatureRequest,
	StatusComplaint,
	StatusFeedback,
	StatusQuestion,
	StatusDocumentationIssue,
	StatusUrgentIssue,
	StatusGeneralDiscussion,
	StatusResolved,
	StatusOther,
}

// Valid reports whether s is a member of the closed status set.
func (s SupportStatus) Valid() bool {
	for _, known := range SupportStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Tone is the emotional tone of a message.
type Tone string

const (
	ToneHappy        Tone = "happy"
	ToneNeutral      Tone = "neutral"
	ToneFrustrated   Tone = "frustrated"
	ToneAngry        Tone = "angry"
	ToneConfused     Tone = "confused"
	ToneGrateful     Tone = "grateful"
	ToneUrgent       Tone = "urgent"
	ToneProfessional Tone = "professional"
)

// Tones lists every valid tone in schema order.
var Tones = []Tone{
	ToneHappy,
	ToneNeutral,
	ToneFrustrated,
	ToneAngry,
	ToneConfused,
	ToneGrateful,
	ToneUrgent,
	ToneProfessional,
}

// Valid reports whether t is a member of the closed tone set.
func (t Tone) Valid() bool {
	for _, known := range Tones {
		if t == known {
			return true
		}
	}
	return false
}

// Priority ranks how urgently a message should be handled.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Priorities lists every valid priority from least to most urgent.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

// Valid reports whether p is a member of the closed priority set.
func (p Priority) Valid() bool {
	for _, known := range Priorities {
		if p == known {
			return true
		}
	}
	return false
}

// Rank returns the sort rank for p: critical=1 through low=4.
// Unknown priorities sort last.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 1
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 3
	case PriorityLow:
		return 4
	default:
		return 5
	}
}

// Author identifies who wrote a message.
type Author struct {
	ID     string `json:"id"`
	Tag    string `json:"tag"`
	Avatar string `json:"avatar,omitempty"`
	Bot    bool   `json:"bot"`
}

// Channel identifies where a message was posted.
type Channel struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	IsThread   bool   `json:"is_thread"`
	ParentID   string `json:"parent_id,omitempty"`
	ParentName string `json:"parent_name,omitempty"`
}

// Server identifies the community server a message belongs to.
type Server struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Attachment describes a file attached to a message.
type Attachment struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	Size        int64  `json:"size"`
	URL         string `json:"url"`
	ContentType string `json:"content_type,omitempty"`
}

// Embed describes a link preview embedded in a message.
type Embed struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
	Type        string `json:"type,omitempty"`
}

// Mentions captures who a message pings.
type Mentions struct {
	Users    []string `json:"users,omitempty"`
	Roles    []string `json:"roles,omitempty"`
	Everyone bool     `json:"everyone"`
}

// Message is one chat message as received from the platform collaborator.
// It is immutable once received.
type Message struct {
	ID          string       `json:"id"`
	Content     string       `json:"content"`
	Timestamp   time.Time    `json:"timestamp"`
	Author      Author       `json:"author"`
	Channel     Channel      `json:"channel"`
	Server      Server       `json:"server"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Embeds      []Embed      `json:"embeds,omitempty"`
	Mentions    Mentions     `json:"mentions"`
}

// Sentiment is a score in [-1,1] with a confidence in [0,1].
type Sentiment struct {
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
}

// CustomerMood is a human-readable read on the author's mood.
type CustomerMood struct {
	Description string `json:"description"`
	Emoji       string `json:"emoji"`
}

// TechnicalDetails flags technical content in the message.
type TechnicalDetails struct {
	HasCode         bool `json:"has_code"`
	HasError        bool `json:"has_error"`
	HasScreenshot   bool `json:"has_screenshot"`
	MentionsVersion bool `json:"mentions_version"`
}

// RoutingSuggestion is the model's destination recommendation. It is only
// requested when at least one destination is registered at analysis time.
type RoutingSuggestion struct {
	RecommendedDestination string  `json:"recommended_destination"`
	Confidence             float64 `json:"confidence"`
	Reasoning              string  `json:"reasoning"`
}

// Analysis is the structured classification produced for one message.
type Analysis struct {
	SupportStatus    SupportStatus      `json:"support_status"`
	Tone             Tone               `json:"tone"`
	Priority         Priority           `json:"priority"`
	Sentiment        Sentiment          `json:"sentiment"`
	Topics           []string           `json:"topics"`
	NeedsResponse    bool               `json:"needs_response"`
	Summary          string             `json:"summary"`
	SuggestedActions []string           `json:"suggested_actions"`
	CustomerMood     CustomerMood       `json:"customer_mood"`
	TechnicalDetails TechnicalDetails   `json:"technical_details"`
	Routing          *RoutingSuggestion `json:"routing,omitempty"`
}

// TokenUsage reports tokens consumed by one inference call.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// DefaultAnalysis is the safe classification substituted when inference
// fails. NeedsResponse stays true so a human eventually reviews the message.
func DefaultAnalysis(msg Message) Analysis {
	return Analysis{
		SupportStatus:    StatusOther,
		Tone:             ToneNeutral,
		Priority:         PriorityMedium,
		Sentiment:        Sentiment{Score: 0, Confidence: 0},
		Topics:           []string{},
		NeedsResponse:    true,
		Summary:          "Unable to analyze message",
		SuggestedActions: []string{"Manual review required"},
		CustomerMood:     CustomerMood{Description: "Unknown", Emoji: "❓"},
		TechnicalDetails: TechnicalDetails{
			HasScreenshot: len(msg.Attachments) > 0,
		},
	}
}
