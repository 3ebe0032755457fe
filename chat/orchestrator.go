// Package chat routes incoming user utterances to the right handler:
// multi-turn slot filling for bookings, shuttle arrival lookups,
// profile queries and updates, travel recommendations, and a TF-IDF
// knowledge base for everything else. A tool-calling model and a
// secondary chatbot backend sit in front of the local keyword rules,
// each falling through to the next stage when unavailable.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Team1-AD-project/EcoGoProject-sub000/chat/audit"
	"github.com/Team1-AD-project/EcoGoProject-sub000/chat/booking"
	"github.com/Team1-AD-project/EcoGoProject-sub000/chat/bus"
	"github.com/Team1-AD-project/EcoGoProject-sub000/chat/extract"
	"github.com/Team1-AD-project/EcoGoProject-sub000/chat/internal/strutil"
	"github.com/Team1-AD-project/EcoGoProject-sub000/chat/llm"
	"github.com/Team1-AD-project/EcoGoProject-sub000/chat/metrics"
	"github.com/Team1-AD-project/EcoGoProject-sub000/chat/proxy"
	"github.com/Team1-AD-project/EcoGoProject-sub000/chat/rag"
	"github.com/Team1-AD-project/EcoGoProject-sub000/chat/reply"
	"github.com/Team1-AD-project/EcoGoProject-sub000/chat/session"
	"github.com/Team1-AD-project/EcoGoProject-sub000/store"
)

// Conversation intents. Empty string means idle.
const (
	intentBooking             = "booking"
	intentUserUpdate          = "user_update"
	intentAwaitingBusStop     = "awaiting_bus_stop"
	intentAwaitingDestination = "awaiting_destination"
)

var (
	mainMenu       = []string{"🚌 Bus Arrivals", "📍 Travel Advice", "🎫 Book a Trip", "📋 My Profile"}
	postActionMenu = []string{"🚌 Bus Arrivals", "📍 Travel Advice", "🎫 Book a Trip"}
	busStopOptions = []string{"COM3", "UTOWN", "KR-MRT", "PGP", "CLB", "BIZ2"}
)

// Orchestrator is the chat turn handler.
type Orchestrator struct {
	store    *store.Store
	sessions *session.Manager
	rag      *rag.Engine
	model    *llm.Client
	proxy    *proxy.Client
	bus      bus.Provider
	bookings *booking.Executor
	audit    *audit.Sink
	metrics  *metrics.Exporter
}

// NewOrchestrator wires the chat pipeline. A nil exporter gets a
// private one so callers without a metrics endpoint still work.
func NewOrchestrator(
	st *store.Store,
	sessions *session.Manager,
	engine *rag.Engine,
	model *llm.Client,
	proxyClient *proxy.Client,
	busProvider bus.Provider,
	bookings *booking.Executor,
	auditSink *audit.Sink,
	exporter *metrics.Exporter,
) *Orchestrator {
	if exporter == nil {
		exporter = metrics.NewExporter(metrics.DefaultConfig())
	}
	sessions.SetObserver(exporter)
	return &Orchestrator{
		store:    st,
		sessions: sessions,
		rag:      engine,
		model:    model,
		proxy:    proxyClient,
		bus:      busProvider,
		bookings: bookings,
		audit:    auditSink,
		metrics:  exporter,
	}
}

// HandleChat processes one user turn and returns the assistant reply.
// It never returns nil and never fails the turn on collaborator
// errors; every stage degrades to the next one down.
func (o *Orchestrator) HandleChat(ctx context.Context, userID string, isAdmin bool, conversationID, messageText string) *reply.Reply {
	start := time.Now()

	if strings.TrimSpace(conversationID) == "" {
		conversationID = fmt.Sprintf("c_%d", time.Now().UnixMilli())
	}

	state := o.sessions.Resolve(ctx, conversationID, userID)
	text := strings.TrimSpace(messageText)
	role := "user"
	if isAdmin {
		role = "admin"
	}

	slog.Info("handling chat turn", "conversationID", conversationID, "userID", userID, "intent", state.Intent)

	o.sessions.AppendMessage(ctx, conversationID, "user", text)

	var resp *reply.Reply
	switch {
	case isResetCommand(text):
		state.Reset()
		resp = buildMainMenu(conversationID, "Session reset. How can I help you?")

	case isConfirmCommand(text) && state.Intent == intentUserUpdate && state.PendingUpdate != nil:
		resp = o.handleUserUpdateConfirmation(ctx, conversationID, userID, role, state)

	case state.Intent == intentBooking:
		resp = o.handleBookingFlow(ctx, conversationID, userID, state, text)

	case state.Intent == intentAwaitingBusStop:
		resp = o.handleBusQueryWithStop(ctx, conversationID, state, text)

	case state.Intent == intentAwaitingDestination:
		resp = o.handleRecommendWithDestination(conversationID, state, text)

	// Quick-action buttons must win over model-based detection.
	case strings.EqualFold(text, "Show more") || strings.EqualFold(text, "查看更多班次"):
		resp = o.handleBusQueryExpanded(ctx, conversationID, state)

	case strings.Contains(text, "Change stop") || strings.Contains(text, "换个站点") ||
		strings.EqualFold(text, "Try another stop") || strings.EqualFold(text, "换个站点查询"):
		resp = buildBusStopPrompt(conversationID, state)

	case o.model.Enabled():
		mr := o.model.CallForTool(ctx, text)
		switch {
		case mr != nil && mr.Tool != nil:
			o.metrics.RecordFallbackStage("tool")
			resp = o.handleToolCall(ctx, conversationID, userID, role, state, mr)
		case mr != nil && strings.TrimSpace(mr.Text) != "":
			o.metrics.RecordFallbackStage("model")
			resp = reply.New(conversationID, mr.Text).WithSuggestions(postActionMenu...)
		default:
			resp = o.tryProxyOrKeyword(ctx, conversationID, userID, role, state, text)
		}

	default:
		resp = o.tryProxyOrKeyword(ctx, conversationID, userID, role, state, text)
	}

	o.sessions.AppendMessage(ctx, conversationID, "assistant", resp.Assistant.Text)
	o.sessions.Persist(ctx, conversationID, state)

	o.metrics.RecordChatTurn(time.Since(start))
	return resp
}

// tryProxyOrKeyword forwards the turn to the secondary chatbot backend
// first and falls back to local keyword and retrieval handling when
// the proxy is disabled or unreachable.
func (o *Orchestrator) tryProxyOrKeyword(ctx context.Context, convID, userID, role string, state *session.State, text string) *reply.Reply {
	if o.proxy.Enabled() {
		if proxied := o.proxy.ForwardChat(ctx, userID, role, convID, text); proxied != nil {
			o.metrics.RecordFallbackStage("proxy")
			return proxied
		}
		slog.Debug("chatbot proxy unavailable, falling back to keyword handling", "conversationID", convID)
	}
	return o.handleKeywordOrRag(ctx, convID, userID, role, state, text)
}

func (o *Orchestrator) handleKeywordOrRag(ctx context.Context, convID, userID, role string, state *session.State, text string) *reply.Reply {
	if resp := o.routeByKeyword(ctx, convID, userID, role, state, text); resp != nil {
		o.metrics.RecordFallbackStage("keyword")
		return resp
	}
	o.metrics.RecordFallbackStage("rag")
	return o.handleRagQuery(convID, text)
}

// routeByKeyword classifies the utterance with local rules. Returns
// nil when nothing matched and the knowledge base should answer.
func (o *Orchestrator) routeByKeyword(ctx context.Context, convID, userID, role string, state *session.State, text string) *reply.Reply {
	lower := strings.ToLower(text)

	// Empty or emoji-only input gets the main menu.
	if text == "" || emojiOnlyRe.MatchString(text) {
		return buildMainMenu(convID, "How can I help you?")
	}

	if isGreeting(text) {
		return buildMainMenu(convID, "Hi there! I'm EcoGo Assistant 😊\nHow can I help you today?")
	}

	// Menu button clicks.
	if strings.Contains(text, "Bus Arrivals") || strings.Contains(text, "查公交") {
		return buildBusStopPrompt(convID, state)
	}
	if strings.Contains(text, "Travel Advice") || strings.Contains(text, "出行推荐") {
		return buildRecommendPrompt(convID, state)
	}
	if strings.Contains(text, "Book a Trip") || strings.Contains(text, "预订行程") {
		state.Intent = intentBooking
		return reply.New(convID, "Sure, let me help you book a trip 🎫\n\nWhere would you like to go?\ne.g. from NUS to Changi Airport").
			WithSuggestions("NUS to Marina Bay", "PGP to UTown", "Back to Menu")
	}
	if strings.Contains(text, "My Profile") || strings.Contains(text, "我的资料") {
		return o.handleProfileQuery(ctx, convID, userID)
	}
	if strings.EqualFold(text, "Back to Menu") || text == "返回主菜单" || text == "主菜单" {
		state.Reset()
		return buildMainMenu(convID, "Sure! What else can I help you with?")
	}

	// "Book X to Y" buttons from recommendation follow-ups.
	if strings.Contains(lower, "book ") && !strings.Contains(lower, "book a trip") {
		routePart := strings.TrimSpace(bookPrefixRe.ReplaceAllString(text, ""))
		routePart = strings.TrimSpace(emojiPrefixRe.ReplaceAllString(routePart, ""))
		if from, to, ok := extract.RouteLoose(routePart); ok {
			state.Intent = intentBooking
			state.Slots["fromName"] = from
			state.Slots["toName"] = to
			return buildMissingFieldsResponse(convID, state)
		}
	}

	// Bus follow-up buttons.
	if strings.EqualFold(text, "Show more") || strings.EqualFold(text, "查看更多班次") {
		return o.handleBusQueryExpanded(ctx, convID, state)
	}
	if strings.Contains(text, "Change stop") || strings.Contains(text, "换个站点") ||
		strings.EqualFold(text, "Try another stop") || strings.EqualFold(text, "换个站点查询") {
		return buildBusStopPrompt(convID, state)
	}

	if isBookingIntent(text) {
		state.Intent = intentBooking
		if from, to, ok := extract.Route(text); ok {
			state.Slots["fromName"] = from
			state.Slots["toName"] = to
		}
		if p, ok := extract.Passengers(text); ok {
			state.Slots["passengers"] = p
		}
		return buildMissingFieldsResponse(convID, state)
	}

	if isBusQueryIntent(text) {
		return o.handleBusQuery(ctx, convID, state, text)
	}

	// Profile query, but not when the message also asks for a change.
	if strutil.ContainsAny(lower, "my profile", "my info", "my account", "view profile") ||
		(strutil.ContainsAny(text, "查询", "查看", "看看", "我的资料", "个人信息", "我的信息") &&
			!strutil.ContainsAny(text, "修改", "更新", "改")) {
		return o.handleProfileQuery(ctx, convID, userID)
	}

	if (strutil.ContainsAny(text, "修改", "更新", "资料", "用户") && (strings.Contains(text, "u_") || strings.Contains(text, "我的"))) ||
		(strutil.ContainsAny(lower, "update my", "change my", "edit my") &&
			strutil.ContainsAny(lower, "profile", "nickname", "email", "phone", "faculty")) {
		return o.handleUserUpdateRequest(ctx, convID, userID, role, state, text)
	}

	if isRecommendationIntent(text) {
		return o.handleRecommendation(convID, text)
	}

	return nil
}

// handleRagQuery answers from the knowledge base, trimming the top
// snippet down to a short direct answer.
func (o *Orchestrator) handleRagQuery(convID, text string) *reply.Reply {
	var citations []rag.Citation
	if o.rag.Available() {
		t0 := time.Now()
		citations = o.rag.Retrieve(text, 1, 240)
		o.metrics.RecordRetrieval(time.Since(t0))
	}

	answer := "I'm not sure about that. Try rephrasing or explore the options below:"
	if len(citations) > 0 {
		answer = strutil.Truncate(citations[0].Snippet, 120)
	}

	return reply.New(convID, answer).
		WithCitations(toReplyCitations(citations)).
		WithSuggestions(mainMenu...)
}

func buildMainMenu(convID, greeting string) *reply.Reply {
	return reply.New(convID, greeting).WithSuggestions(mainMenu...)
}

func toReplyCitations(citations []rag.Citation) []reply.Citation {
	out := make([]reply.Citation, 0, len(citations))
	for _, c := range citations {
		out = append(out, reply.Citation{Title: c.Title, Source: c.Source, Snippet: c.Snippet})
	}
	return out
}
