package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/signalhouse/triage/internal/analysis"
)

func msgIn(channelID string) analysis.Message {
	return analysis.Message{ID: "m", Channel: analysis.Channel{ID: channelID}}
}

func TestChannelFilterAllSentinel(t *testing.T) {
	f := NewChannelFilter([]string{"ALL"})
	assert.True(t, f.Allows(msgIn("anything")))

	f = NewChannelFilter(nil)
	assert.True(t, f.Allows(msgIn("anything")), "empty config monitors everything")
}

func TestChannelFilterExplicitList(t *testing.T) {
	f := NewChannelFilter([]string{"111", "222"})
	assert.True(t, f.Allows(msgIn("111")))
	assert.True(t, f.Allows(msgIn("222")))
	assert.False(t, f.Allows(msgIn("333")))
}

func TestChannelFilterThreadInheritsParent(t *testing.T) {
	f := NewChannelFilter([]string{"111"})

	thread := analysis.Message{
		ID:      "m",
		Channel: analysis.Channel{ID: "999", IsThread: true, ParentID: "111"},
	}
	assert.True(t, f.Allows(thread))

	thread.Channel.ParentID = "222"
	assert.False(t, f.Allows(thread))

	// Parent inheritance only applies to threads.
	plain := analysis.Message{
		ID:      "m",
		Channel: analysis.Channel{ID: "999", ParentID: "111"},
	}
	assert.False(t, f.Allows(plain))
}
