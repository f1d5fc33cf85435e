package ledger

import "time"

// UsageRecord is one inference attempt, successful or not. Rows are
// append-only; reprocessing a message adds a new attempt.
type UsageRecord struct {
	ID               int64     `json:"id"`
	CreatedAt        time.Time `json:"created_at"`
	MessageID        string    `json:"message_id"`
	AuthorID         string    `json:"author_id"`
	AuthorTag        string    `json:"author_tag"`
	ChannelID        string    `json:"channel_id"`
	ChannelName      string    `json:"channel_name"`
	ServerID         string    `json:"server_id"`
	ServerName       string    `json:"server_name"`
	Model            string    `json:"model"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	TotalTokens      int       `json:"total_tokens"`
	InputCost        float64   `json:"input_cost"`
	OutputCost       float64   `json:"output_cost"`
	TotalCost        float64   `json:"total_cost"`
	SupportStatus    string    `json:"support_status"`
	Tone             string    `json:"tone"`
	Priority         string    `json:"priority"`
	SentimentScore   float64   `json:"sentiment_score"`
	NeedsResponse    bool      `json:"needs_response"`
	Summary          string    `json:"summary"`
	ProcessingMs     int64     `json:"processing_time_ms"`
	ErrorOccurred    bool      `json:"error_occurred"`
	ErrorMessage     string    `json:"error_message,omitempty"`
}

// RangeStats aggregates usage over a time window.
type RangeStats struct {
	TotalMessages       int64      `json:"total_messages"`
	TotalTokens         int64      `json:"total_tokens"`
	TotalCost           float64    `json:"total_cost"`
	AvgTokensPerMessage float64    `json:"avg_tokens_per_message"`
	AvgCostPerMessage   float64    `json:"avg_cost_per_message"`
	FirstMessage        *time.Time `json:"first_message,omitempty"`
	LastMessage         *time.Time `json:"last_message,omitempty"`
}

// ModelStats aggregates usage for one model.
type ModelStats struct {
	Model             string  `json:"model"`
	MessageCount      int64   `json:"message_count"`
	TotalTokens       int64   `json:"total_tokens"`
	TotalCost         float64 `json:"total_cost"`
	AvgProcessingTime float64 `json:"avg_processing_time_ms"`
}

// ChannelStats aggregates usage for one channel.
type ChannelStats struct {
	ChannelID    string  `json:"channel_id"`
	ChannelName  string  `json:"channel_name"`
	ServerName   string  `json:"server_name"`
	MessageCount int64   `json:"message_count"`
	TotalTokens  int64   `json:"total_tokens"`
	TotalCost    float64 `json:"total_cost"`
	AvgSentiment float64 `json:"avg_sentiment"`
}
