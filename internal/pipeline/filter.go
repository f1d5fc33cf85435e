package pipeline

import "github.com/signalhouse/triage/internal/analysis"

// monitorAll is the sentinel meaning every channel is monitored.
const monitorAll = "ALL"

// ChannelFilter decides whether a message's channel is monitored. Threads
// inherit monitoring from their parent channel.
type ChannelFilter struct {
	all bool
	ids map[string]bool
}

// NewChannelFilter builds a filter from the configured channel id list.
func NewChannelFilter(channelIDs []string) *ChannelFilter {
	f := &ChannelFilter{ids: make(map[string]bool, len(channelIDs))}
	for _, id := range channelIDs {
		if id == monitorAll {
			f.all = true
			continue
		}
		if id != "" {
			f.ids[id] = true
		}
	}
	if len(channelIDs) == 0 {
		f.all = true
	}
	return f
}

// Allows reports whether the message's channel, or its parent when the
// message came from a thread, is monitored.
func (f *ChannelFilter) Allows(msg analysis.Message) bool {
	if f.all {
		return true
	}
	if f.ids[msg.Channel.ID] {
		return true
	}
	if msg.Channel.IsThread && f.ids[msg.Channel.ParentID] {
		return true
	}
	return false
}
