package chat

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/Team1-AD-project/EcoGoProject-sub000/chat/bus"
	"github.com/Team1-AD-project/EcoGoProject-sub000/chat/internal/strutil"
	"github.com/Team1-AD-project/EcoGoProject-sub000/chat/reply"
	"github.com/Team1-AD-project/EcoGoProject-sub000/chat/session"
)

var (
	busQueryNoiseRe = regexp.MustCompile(`(?i)(查询|查看|查|公交|到站|信息|时间|bus|arrival[s]?|stop|shuttle)`)
	busRouteScanRe  = regexp.MustCompile(`(?i)([A-Z]\d[A-Z]?|[A-Z]{1,3})`)
	busStopCodeRe   = regexp.MustCompile(`(?i)([A-Z][A-Z0-9\-]{1,10})`)
	busStopWordRe   = regexp.MustCompile(`(?i)^(bus|stop|arrival|shuttle|line|ETA)$`)
	busStopCnRe     = regexp.MustCompile(`([\x{4e00}-\x{9fa5}]{2,10})(站)?`)
)

func buildBusStopPrompt(convID string, state *session.State) *reply.Reply {
	state.Intent = intentAwaitingBusStop
	return reply.New(convID, "Sure, let me check bus arrivals 🚌\n\nWhich stop would you like to check? Type a stop name or pick one below:").
		WithSuggestions(busStopOptions...)
}

func (o *Orchestrator) handleBusQueryWithStop(ctx context.Context, convID string, state *session.State, text string) *reply.Reply {
	state.Reset()
	return o.handleBusQuery(ctx, convID, state, text)
}

func (o *Orchestrator) handleBusQuery(ctx context.Context, convID string, state *session.State, text string) *reply.Reply {
	return o.handleBusQueryInternal(ctx, convID, state, text, 3)
}

// handleBusQueryExpanded re-queries the last stop and shows every
// arrival instead of the top three.
func (o *Orchestrator) handleBusQueryExpanded(ctx context.Context, convID string, state *session.State) *reply.Reply {
	lastStop := state.SlotString("_lastBusStop")
	lastRoute := state.SlotString("_lastBusRoute")

	if lastStop != "" {
		result := o.bus.GetArrivals(ctx, lastStop, lastRoute)
		if len(result.Arrivals) > 0 {
			return buildBusResultResponse(convID, result, len(result.Arrivals))
		}
	}

	// Nothing remembered, ask for a stop again.
	state.Intent = intentAwaitingBusStop
	return reply.New(convID, "Which stop would you like to check? Pick one below:").
		WithSuggestions(busStopOptions...)
}

// handleBusQueryInternal pulls a stop and an optional route out of the
// utterance, queries the provider, and remembers what it asked so
// "Show more" can repeat the query.
func (o *Orchestrator) handleBusQueryInternal(ctx context.Context, convID string, state *session.State, text string, maxShow int) *reply.Reply {
	// Strip query keywords so the stop name stands alone.
	cleaned := strings.TrimSpace(busQueryNoiseRe.ReplaceAllString(text, ""))

	var route string
	for _, m := range busRouteScanRe.FindAllStringSubmatch(text, -1) {
		candidate := strings.ToUpper(m[1])
		if bus.IsRouteName(candidate) {
			route = candidate
			break
		}
	}

	var stop string
	for _, m := range busStopCodeRe.FindAllStringSubmatch(text, -1) {
		candidate := strings.TrimSpace(m[1])
		if bus.IsRouteName(candidate) {
			continue
		}
		if busStopWordRe.MatchString(candidate) {
			continue
		}
		stop = candidate
		break
	}

	if stop == "" {
		for _, m := range busStopCnRe.FindAllStringSubmatch(cleaned, -1) {
			candidate := strings.TrimSpace(m[1])
			if strutil.ContainsAny(candidate, "几分钟", "时间", "线路", "下一班", "到站", "查询", "公交", "巴士", "信息", "分钟到") {
				continue
			}
			if len([]rune(candidate)) >= 2 {
				stop = candidate
				break
			}
		}
	}

	slog.Info("bus query extracted", "stop", stop, "route", route, "text", text)

	result := o.bus.GetArrivals(ctx, stop, route)

	// Remember the last queried stop/route for "Show more".
	if stop != "" {
		state.Slots["_lastBusStop"] = stop
	} else {
		state.Slots["_lastBusStop"] = result.StopName
	}
	state.Slots["_lastBusRoute"] = route

	if len(result.Arrivals) == 0 {
		return reply.New(convID, fmt.Sprintf("🚌 %s: No arrivals at the moment.\n\nThis may be outside operating hours. Try again later!", result.StopName)).
			WithSuggestions("Try another stop", "🚌 Bus Arrivals", "Back to Menu")
	}

	return buildBusResultResponse(convID, result, maxShow)
}

func buildBusResultResponse(convID string, result bus.Arrivals, maxShow int) *reply.Reply {
	var sb strings.Builder
	sb.WriteString("🚌 " + result.StopName + " — Next arrivals:\n\n")

	shown := 0
	for _, arrival := range result.Arrivals {
		if shown >= maxShow {
			break
		}
		var statusIcon string
		switch arrival.Status {
		case "arriving":
			statusIcon = "🟢"
		case "on_time":
			statusIcon = "🔵"
		default:
			statusIcon = "⏳"
		}
		fmt.Fprintf(&sb, "%s Route %s — %d min\n", statusIcon, arrival.Route, arrival.EtaMinutes)
		shown++
	}

	total := len(result.Arrivals)
	var buttons []string
	if total > shown {
		fmt.Fprintf(&sb, "\n%d more services available", total-shown)
		buttons = append(buttons, "Show more")
	}
	buttons = append(buttons, "🚌 Change stop", "Back to Menu")

	return reply.New(convID, strings.TrimSpace(sb.String())).
		WithSuggestions(buttons...)
}
