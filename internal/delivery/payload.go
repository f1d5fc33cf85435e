package delivery

import (
	"fmt"
	"strings"

	"github.com/signalhouse/triage/internal/analysis"
	"github.com/signalhouse/triage/internal/routing"
)

const maxBodyChars = 500

// Payload is the Slack-compatible webhook body.
type Payload struct {
	Text        string       `json:"text"`
	Attachments []Attachment `json:"attachments"`
}

// Attachment is one colored block within the payload.
type Attachment struct {
	Color     string  `json:"color"`
	Title     string  `json:"title"`
	TitleLink string  `json:"title_link"`
	Fields    []Field `json:"fields"`
	Text      string  `json:"text"`
	Footer    string  `json:"footer"`
	TS        int64   `json:"ts"`
}

// Field is one key/value row in an attachment.
type Field struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// BuildPayload renders the outbound notification for one plan entry.
func BuildPayload(msg analysis.Message, a analysis.Analysis, entry routing.PlanEntry) Payload {
	fields := []Field{
		{Title: "Priority", Value: string(a.Priority), Short: true},
		{Title: "Status", Value: string(a.SupportStatus), Short: true},
		{Title: "Tone", Value: string(a.Tone), Short: true},
		{Title: "Sentiment", Value: fmt.Sprintf("%.2f", a.Sentiment.Score), Short: true},
		{Title: "Channel", Value: fmt.Sprintf("#%s", msg.Channel.Name), Short: true},
		{Title: "Author", Value: msg.Author.Tag, Short: true},
	}
	if a.NeedsResponse {
		fields = append(fields, Field{Title: "Needs Response", Value: "Yes", Short: true})
	}
	if entry.Recommended {
		fields = append(fields, Field{
			Title: "AI Routing Confidence",
			Value: fmt.Sprintf("%.0f%%", entry.Confidence*100),
			Short: true,
		})
	}

	title := fmt.Sprintf("%s %s in %s", strings.ToUpper(string(a.Priority)), a.SupportStatus, msg.Server.Name)

	return Payload{
		Text: a.Summary,
		Attachments: []Attachment{{
			Color:     payloadColor(a),
			Title:     title,
			TitleLink: MessageLink(msg),
			Fields:    fields,
			Text:      truncateBody(msg.Content),
			Footer:    entry.Destination.Name,
			TS:        msg.Timestamp.Unix(),
		}},
	}
}

// MessageLink builds the deep link back to the source message.
func MessageLink(msg analysis.Message) string {
	return fmt.Sprintf("https://discord.com/channels/%s/%s/%s", msg.Server.ID, msg.Channel.ID, msg.ID)
}

func payloadColor(a analysis.Analysis) string {
	if a.Sentiment.Score < -0.5 {
		return "#ff3300"
	}
	switch a.Priority {
	case analysis.PriorityCritical:
		return "#ff0000"
	case analysis.PriorityHigh:
		return "#ff6600"
	case analysis.PriorityMedium:
		return "#ffcc00"
	default:
		return "#36a64f"
	}
}

func truncateBody(content string) string {
	runes := []rune(content)
	if len(runes) <= maxBodyChars {
		return content
	}
	return string(runes[:maxBodyChars]) + "..."
}
