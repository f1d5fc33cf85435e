package analysis

import (
	"fmt"
	"strings"
)

// DestinationInfo is the slice of destination configuration the engine needs
// to request a routing recommendation: the name and its semantic description.
type DestinationInfo struct {
	Name        string
	Description string
}

const schemaPreamble = `You are a customer-support triage assistant. Analyze the chat message the user provides and reply with a single JSON object, no prose, using exactly this shape:
{
  "support_status": one of ["help_request","bug_report","feature_request","complaint","feedback","question","documentation_issue","urgent_issue","general_discussion","resolved","other"],
  "tone": one of ["happy","neutral","frustrated","angry","confused","grateful","urgent","professional"],
  "priority": one of ["low","medium","high","critical"],
  "sentiment": {"score": number in [-1,1], "confidence": number in [0,1]},
  "topics": array of short topic strings,
  "needs_response": boolean,
  "summary": short summary suitable for a notification,
  "suggested_actions": array of suggested handling actions,
  "customer_mood": {"description": string, "emoji": single emoji},
  "technical_details": {"has_code": bool, "has_error": bool, "has_screenshot": bool, "mentions_version": bool}`

const routingSchemaFragment = `,
  "routing": {"recommended_destination": name of the best destination from the list provided, "confidence": number in [0,1], "reasoning": string}`

// buildSystemPrompt describes the required output schema. The routing field is
// only requested when at least one destination exists.
func buildSystemPrompt(destinations []DestinationInfo) string {
	var b strings.Builder
	b.WriteString(schemaPreamble)
	if len(destinations) > 0 {
		b.WriteString(routingSchemaFragment)
	}
	b.WriteString("\n}")
	return b.String()
}

// buildPrompt renders the message and its context as natural language.
func buildPrompt(msg Message, destinations []DestinationInfo) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Analyze this chat message for customer support purposes:\n\n")
	fmt.Fprintf(&b, "Message Content: %q\n", msg.Content)

	kind := "Human"
	if msg.Author.Bot {
		kind = "Bot"
	}
	fmt.Fprintf(&b, "Author: %s (%s)\n", msg.Author.Tag, kind)

	threadSuffix := ""
	if msg.Channel.IsThread {
		threadSuffix = " (thread)"
	}
	fmt.Fprintf(&b, "Channel: #%s%s\n", msg.Channel.Name, threadSuffix)
	fmt.Fprintf(&b, "Server: %s\n", msg.Server.Name)

	if len(msg.Attachments) > 0 {
		parts := make([]string, 0, len(msg.Attachments))
		for _, a := range msg.Attachments {
			parts = append(parts, fmt.Sprintf("%s (%s)", a.Filename, a.ContentType))
		}
		fmt.Fprintf(&b, "Attachments: %s\n", strings.Join(parts, ", "))
	}

	if len(msg.Embeds) > 0 {
		parts := make([]string, 0, len(msg.Embeds))
		for _, e := range msg.Embeds {
			title := e.Title
			if title == "" {
				title = "Untitled"
			}
			parts = append(parts, title)
		}
		fmt.Fprintf(&b, "Embeds: %s\n", strings.Join(parts, ", "))
	}

	if mentions := formatMentions(msg.Mentions); mentions != "" {
		fmt.Fprintf(&b, "Mentions: %s\n", mentions)
	}

	if len(destinations) > 0 {
		b.WriteString("\nAvailable destinations for routing:\n")
		for _, d := range destinations {
			fmt.Fprintf(&b, "- %s: %s\n", d.Name, d.Description)
		}
		b.WriteString("\nRecommend which destination should handle this message based on the descriptions above.")
	}

	return b.String()
}

func formatMentions(m Mentions) string {
	parts := make([]string, 0, 1+len(m.Users)+len(m.Roles))
	if m.Everyone {
		parts = append(parts, "@everyone")
	}
	for _, u := range m.Users {
		parts = append(parts, "@"+u)
	}
	for _, r := range m.Roles {
		parts = append(parts, "@"+r)
	}
	return strings.Join(parts, ", ")
}
