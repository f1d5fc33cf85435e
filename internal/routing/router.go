package routing

import (
	"strings"

	"github.com/signalhouse/triage/internal/analysis"
	"github.com/signalhouse/triage/pkg/logging"
)

// Router decides which webhooks receive a classified message. Stage one
// honors the model's recommended destination, stage two broadcasts to every
// other destination whose filters match, and the legacy webhook only fires
// when no destination claimed the message.
type Router struct {
	logger *logging.Logger
}

// NewRouter creates a router.
func NewRouter(logger *logging.Logger) *Router {
	if logger == nil {
		logger = logging.Default()
	}
	return &Router{logger: logger}
}

// Route builds the delivery plan for one analyzed message. The destinations
// slice is a snapshot taken before analysis so routing and the prompt agree
// on the destination set.
func (r *Router) Route(destinations []Destination, legacy LegacySettings, a analysis.Analysis) Plan {
	var plan Plan
	routed := make(map[string]bool, len(destinations))

	byName := make(map[string]Destination, len(destinations))
	for _, d := range destinations {
		byName[strings.ToLower(d.Name)] = d
	}

	if a.Routing != nil && a.Routing.RecommendedDestination != "" {
		key := strings.ToLower(strings.TrimSpace(a.Routing.RecommendedDestination))
		if d, ok := byName[key]; ok {
			if matchesFilter(d, a) {
				plan = append(plan, PlanEntry{Destination: d, Recommended: true, Confidence: a.Routing.Confidence})
				routed[key] = true
			} else {
				r.logger.Debug("recommended destination filtered out",
					"destination", d.Name, "priority", a.Priority, "status", a.SupportStatus)
			}
		} else {
			r.logger.Warn("recommended destination does not exist",
				"recommended", a.Routing.RecommendedDestination)
		}
	}

	for _, d := range destinations {
		if routed[strings.ToLower(d.Name)] {
			continue
		}
		if matchesFilter(d, a) {
			plan = append(plan, PlanEntry{Destination: d})
		}
	}

	if len(plan) == 0 && legacyMatches(legacy, a) {
		plan = append(plan, PlanEntry{
			Destination: Destination{Name: "legacy", WebhookURL: legacy.WebhookURL},
			Legacy:      true,
		})
	}

	return plan
}

func matchesFilter(d Destination, a analysis.Analysis) bool {
	if !d.Enabled || d.WebhookURL == "" {
		return false
	}
	if d.OnlyIfNeedsResponse && !a.NeedsResponse {
		return false
	}
	if !d.WantsPriority(a.Priority) {
		return false
	}
	if !d.WantsStatus(a.SupportStatus) {
		return false
	}
	return true
}

func legacyMatches(l LegacySettings, a analysis.Analysis) bool {
	if !l.Enabled || l.WebhookURL == "" {
		return false
	}
	if l.OnlyIfNeedsResponse && !a.NeedsResponse {
		return false
	}
	if !l.WantsPriority(a.Priority) {
		return false
	}
	if !l.WantsStatus(a.SupportStatus) {
		return false
	}
	// TODO: this gate can never reject (a score cannot exceed max and sit
	// below min at the same time). Flipping it to a range check changes
	// long-standing behavior, so it needs a settings migration first.
	if a.Sentiment.Score > l.MaxSentimentScore && a.Sentiment.Score < l.MinSentimentScore {
		return false
	}
	return true
}
