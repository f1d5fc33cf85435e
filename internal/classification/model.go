package classification

import "time"

// MessageLog is the persisted classification for one message. There is at
// most one row per message id; reprocessing overwrites the analysis columns.
type MessageLog struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	MessageID      string `json:"message_id"`
	MessageContent string `json:"message_content"`
	AuthorID       string `json:"author_id"`
	AuthorTag      string `json:"author_tag"`
	AuthorAvatar   string `json:"author_avatar,omitempty"`
	ChannelID      string `json:"channel_id"`
	ChannelName    string `json:"channel_name"`
	ServerID       string `json:"server_id"`
	ServerName     string `json:"server_name"`

	SupportStatus       string   `json:"support_status"`
	Tone                string   `json:"tone"`
	Priority            string   `json:"priority"`
	SentimentScore      float64  `json:"sentiment_score"`
	SentimentConfidence float64  `json:"sentiment_confidence"`
	NeedsResponse       bool     `json:"needs_response"`
	Summary             string   `json:"summary"`
	Topics              []string `json:"topics"`
	SuggestedActions    []string `json:"suggested_actions"`
	MoodDescription     string   `json:"customer_mood_description"`
	MoodEmoji           string   `json:"customer_mood_emoji"`

	HasCode         bool `json:"has_code"`
	HasError        bool `json:"has_error"`
	HasScreenshot   bool `json:"has_screenshot"`
	MentionsVersion bool `json:"mentions_version"`
	AttachmentCount int  `json:"attachment_count"`

	Model            string  `json:"model_used"`
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	ProcessingCost   float64 `json:"processing_cost"`
	ProcessingMs     int64   `json:"processing_time_ms"`

	IsThread         bool     `json:"is_thread"`
	ParentChannelID  string   `json:"parent_channel_id,omitempty"`
	MentionedUsers   []string `json:"mentioned_users,omitempty"`
	MentionedRoles   []string `json:"mentioned_roles,omitempty"`
	MentionsEveryone bool     `json:"mentions_everyone"`
}

// ListFilter narrows the recent-messages listing. Zero values mean no
// constraint. Search matches message content, author tag, and summary
// case-insensitively.
type ListFilter struct {
	Limit  int
	Offset int

	Search        string
	Priority      string
	SupportStatus string
	Tone          string
	ChannelID     string
	AuthorID      string
}

// Stats summarizes the last 24 hours of classified messages.
type Stats struct {
	TotalMessages      int64   `json:"total_messages"`
	NeedsResponseCount int64   `json:"needs_response_count"`
	CriticalCount      int64   `json:"critical_count"`
	HighCount          int64   `json:"high_count"`
	AvgSentiment       float64 `json:"avg_sentiment"`
	TotalTokens        int64   `json:"total_tokens_used"`
	TotalCost          float64 `json:"total_cost"`
}
