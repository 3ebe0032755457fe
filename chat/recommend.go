package chat

import (
	"strings"
	"time"

	"github.com/Team1-AD-project/EcoGoProject-sub000/chat/extract"
	"github.com/Team1-AD-project/EcoGoProject-sub000/chat/internal/strutil"
	"github.com/Team1-AD-project/EcoGoProject-sub000/chat/rag"
	"github.com/Team1-AD-project/EcoGoProject-sub000/chat/reply"
	"github.com/Team1-AD-project/EcoGoProject-sub000/chat/session"
)

func buildRecommendPrompt(convID string, state *session.State) *reply.Reply {
	state.Intent = intentAwaitingDestination
	return reply.New(convID, "Sure, let me recommend a travel option 📍\n\nWhere would you like to go?\ne.g. COM3 to UTown").
		WithSuggestions("COM3 to UTown", "PGP to CLB", "KR MRT to BIZ2", "Back to Menu")
}

// handleRecommendWithDestination parses the reply to the destination
// prompt. A lone place name is treated as a destination.
func (o *Orchestrator) handleRecommendWithDestination(convID string, state *session.State, text string) *reply.Reply {
	state.Reset()

	from, to, ok := extract.Route(text)
	if !ok {
		from, to, ok = extract.RouteLoose(text)
	}
	if ok {
		return o.buildSmartRecommendation(convID, from, to)
	}

	dest := strings.TrimSpace(text)
	if dest != "" && len([]rune(dest)) < 30 {
		return o.buildSmartRecommendation(convID, "", dest)
	}

	return reply.New(convID, "Sorry, I couldn't identify the origin and destination.\nPlease use the format: A to B, e.g. COM3 to UTown").
		WithSuggestions("COM3 to UTown", "PGP to CLB", "Back to Menu")
}

// handleRecommendation serves free-form advice asks. Without a parsed
// route it guides the user to name origin and destination.
func (o *Orchestrator) handleRecommendation(convID, text string) *reply.Reply {
	from, to, ok := extract.Route(text)
	if !ok {
		from, to, ok = extract.RouteLoose(text)
	}
	if ok {
		return o.buildSmartRecommendation(convID, from, to)
	}

	return reply.New(convID, "Want travel advice? Tell me your **origin and destination** 😊\ne.g. COM3 to UTown").
		WithSuggestions("COM3 to UTown", "PGP to CLB", "Back to Menu")
}

// buildSmartRecommendation composes mode advice for the leg, campus
// legs get shuttle options, city legs get MRT and bus. A knowledge
// base tip is appended when retrieval has something relevant.
func (o *Orchestrator) buildSmartRecommendation(convID, from, to string) *reply.Reply {
	queryText := "to " + to
	if from != "" {
		queryText = from + " to " + to
	}

	var ragTip string
	var citations []rag.Citation
	if o.rag.Available() {
		t0 := time.Now()
		citations = o.rag.Retrieve("green travel "+queryText, 1, 240)
		o.metrics.RecordRetrieval(time.Since(t0))
		if len(citations) > 0 {
			ragTip = "\n\n💡 " + strutil.Truncate(citations[0].Snippet, 80)
		}
	}

	var sb strings.Builder
	sb.WriteString("📍 Travel advice for " + queryText + ":\n\n")

	isCampus := isNusCampusLocation(from) || isNusCampusLocation(to)
	if isCampus {
		sb.WriteString("🚌 **Campus Shuttle**: Take the free NUS shuttle bus — check real-time arrivals\n")
		sb.WriteString("🚶 **Walk**: Most campus routes are 10-15 min on foot — zero emissions!\n")
		sb.WriteString("🚇 **MRT Link**: For off-campus destinations, connect at KR MRT station\n")
	} else {
		sb.WriteString("🚇 **MRT**: Fastest and low-carbon option\n")
		sb.WriteString("🚌 **Public Bus**: Wide coverage, affordable fares\n")
		sb.WriteString("🚶 **Walk / Cycle**: Best for short distances — zero emissions\n")
	}
	sb.WriteString(ragTip)

	var followUp []string
	if isCampus {
		followUp = append(followUp, "🚌 Bus Arrivals")
	}
	if from != "" {
		followUp = append(followUp, "🎫 Book "+queryText)
	}
	followUp = append(followUp, "Back to Menu")

	return reply.New(convID, strings.TrimSpace(sb.String())).
		WithCitations(toReplyCitations(citations)).
		WithSuggestions(followUp...)
}
