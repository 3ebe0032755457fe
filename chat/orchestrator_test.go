package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Team1-AD-project/EcoGoProject-sub000/chat/audit"
	"github.com/Team1-AD-project/EcoGoProject-sub000/chat/booking"
	"github.com/Team1-AD-project/EcoGoProject-sub000/chat/bus"
	"github.com/Team1-AD-project/EcoGoProject-sub000/chat/llm"
	"github.com/Team1-AD-project/EcoGoProject-sub000/chat/proxy"
	"github.com/Team1-AD-project/EcoGoProject-sub000/chat/rag"
	"github.com/Team1-AD-project/EcoGoProject-sub000/chat/reply"
	"github.com/Team1-AD-project/EcoGoProject-sub000/chat/session"
	"github.com/Team1-AD-project/EcoGoProject-sub000/internal/profile"
	"github.com/Team1-AD-project/EcoGoProject-sub000/store"
	"github.com/Team1-AD-project/EcoGoProject-sub000/store/db/sqlite"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	p := &profile.Profile{
		Mode:   "demo",
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "ecogo_test.db"),
	}
	driver, err := sqlite.NewDB(p)
	require.NoError(t, err)
	require.NoError(t, driver.Migrate(context.Background()))
	t.Cleanup(func() { _ = driver.Close() })
	return store.New(driver, p)
}

// newTestOrchestrator wires a full pipeline with model and proxy
// disabled, so turns flow through the keyword and retrieval stages.
func newTestOrchestrator(t *testing.T) (*Orchestrator, *store.Store) {
	t.Helper()
	st := newTestStore(t)
	o := NewOrchestrator(
		st,
		session.NewManager(st),
		rag.NewEngine(""),
		llm.NewClient(&profile.Profile{}),
		proxy.NewClient(&profile.Profile{}),
		bus.NewMockProvider(),
		booking.NewExecutor(st, nil),
		audit.NewSink(st),
		nil,
	)
	return o, st
}

// newBackedOrchestrator wires the pipeline against live model and
// proxy backends so the stage ordering can be observed.
func newBackedOrchestrator(t *testing.T, modelProfile, proxyProfile *profile.Profile) *Orchestrator {
	t.Helper()
	st := newTestStore(t)
	return NewOrchestrator(
		st,
		session.NewManager(st),
		rag.NewEngine(""),
		llm.NewClient(modelProfile),
		proxy.NewClient(proxyProfile),
		bus.NewMockProvider(),
		booking.NewExecutor(st, nil),
		audit.NewSink(st),
		nil,
	)
}

func uiAction(t *testing.T, r *reply.Reply, actionType string) map[string]any {
	t.Helper()
	for _, a := range r.UIActions {
		if a.Type == actionType {
			return a.Payload
		}
	}
	t.Fatalf("reply has no %s action: %+v", actionType, r.UIActions)
	return nil
}

func suggestions(t *testing.T, r *reply.Reply) []string {
	t.Helper()
	options, ok := uiAction(t, r, "SUGGESTIONS")["options"].([]string)
	require.True(t, ok)
	return options
}

func TestGeneratesConversationIDWhenBlank(t *testing.T) {
	o, _ := newTestOrchestrator(t)

	resp := o.HandleChat(context.Background(), "u_100", false, "", "hello")
	require.True(t, strings.HasPrefix(resp.ConversationID, "c_"))
}

func TestGreetingShowsMainMenu(t *testing.T) {
	o, _ := newTestOrchestrator(t)

	resp := o.HandleChat(context.Background(), "u_100", false, "conv-1", "hello")
	require.Contains(t, resp.Assistant.Text, "EcoGo Assistant")
	require.Equal(t, mainMenu, suggestions(t, resp))
}

func TestBlankMessageShowsMainMenu(t *testing.T) {
	o, _ := newTestOrchestrator(t)

	resp := o.HandleChat(context.Background(), "u_100", false, "conv-1", "   ")
	require.Equal(t, "How can I help you?", resp.Assistant.Text)
	require.Equal(t, mainMenu, suggestions(t, resp))
}

func TestResetCommandClearsState(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	ctx := context.Background()

	o.HandleChat(ctx, "u_100", false, "conv-1", "Book a Trip")
	state := o.sessions.Resolve(ctx, "conv-1", "u_100")
	require.Equal(t, intentBooking, state.Intent)

	resp := o.HandleChat(ctx, "u_100", false, "conv-1", "cancel")
	require.Equal(t, "Session reset. How can I help you?", resp.Assistant.Text)
	require.Empty(t, state.Intent)
	require.Empty(t, state.Slots)
}

func TestBareRouteStatementEntersBookingFlow(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	ctx := context.Background()

	resp := o.HandleChat(ctx, "u_100", false, "conv-1", "from NUS to Marina Bay")
	require.Contains(t, resp.Assistant.Text, "**NUS** to **Marina Bay**")
	form := uiAction(t, resp, "SHOW_FORM")
	require.Equal(t, "booking_missing_fields", form["formId"])

	state := o.sessions.Resolve(ctx, "conv-1", "u_100")
	require.Equal(t, intentBooking, state.Intent)
	require.Equal(t, "NUS", state.SlotString("fromName"))
	require.Equal(t, "Marina Bay", state.SlotString("toName"))
}

func TestBookingSlotConvergence(t *testing.T) {
	o, st := newTestOrchestrator(t)
	ctx := context.Background()

	resp := o.HandleChat(ctx, "u_100", false, "conv-1", "Book a Trip")
	require.Contains(t, resp.Assistant.Text, "Where would you like to go?")

	resp = o.HandleChat(ctx, "u_100", false, "conv-1", "from NUS to Marina Bay")
	require.Contains(t, resp.Assistant.Text, "**NUS** to **Marina Bay**")
	form := uiAction(t, resp, "SHOW_FORM")
	require.Equal(t, "booking_missing_fields", form["formId"])

	state := o.sessions.Resolve(ctx, "conv-1", "u_100")
	require.Equal(t, "NUS", state.SlotString("fromName"))
	require.Equal(t, "Marina Bay", state.SlotString("toName"))

	resp = o.HandleChat(ctx, "u_100", false, "conv-1", "departAt=2026-09-01 08:30, passengers=2")
	require.Equal(t, "Booking confirmed! 🎉", resp.Assistant.Text)
	card := uiAction(t, resp, "BOOKING_CARD")
	require.Equal(t, "NUS", card["fromName"])
	require.Equal(t, "Marina Bay", card["toName"])
	require.Equal(t, "2026-09-01T08:30:00", card["departAt"])
	require.Equal(t, 2, card["passengers"])
	require.True(t, strings.HasPrefix(card["deeplink"].(string), "ecogo://booking/"))

	// Terminal handler resets the conversation.
	require.Empty(t, state.Intent)
	require.Empty(t, state.Slots)

	bookings, err := st.ListChatBookingsByUser(ctx, "u_100")
	require.NoError(t, err)
	require.Len(t, bookings, 1)

	// A redundant turn after reset must not book again.
	o.HandleChat(ctx, "u_100", false, "conv-1", "2 people")
	bookings, err = st.ListChatBookingsByUser(ctx, "u_100")
	require.NoError(t, err)
	require.Len(t, bookings, 1)
}

func TestBookingPromptsForPassengersAlone(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	ctx := context.Background()

	o.HandleChat(ctx, "u_100", false, "conv-1", "Book a Trip")
	o.HandleChat(ctx, "u_100", false, "conv-1", "COM3 to UTown")
	resp := o.HandleChat(ctx, "u_100", false, "conv-1", "departAt=2026-09-02T09:00")
	require.Contains(t, resp.Assistant.Text, "How many passengers?")
	require.Equal(t, []string{"1 person", "2 people", "3 people", "4 people"}, suggestions(t, resp))

	resp = o.HandleChat(ctx, "u_100", false, "conv-1", "3 people")
	require.Equal(t, "Booking confirmed! 🎉", resp.Assistant.Text)
	card := uiAction(t, resp, "BOOKING_CARD")
	require.Equal(t, 3, card["passengers"])
}

func TestChineseBookingUtteranceFillsSlots(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	ctx := context.Background()

	resp := o.HandleChat(ctx, "u_100", false, "conv-1", "帮我订从COM3到UTown的行程，2人")
	state := o.sessions.Resolve(ctx, "conv-1", "u_100")
	require.Equal(t, intentBooking, state.Intent)
	require.Equal(t, "COM3", state.SlotString("fromName"))
	require.Equal(t, "UTown的行程", state.SlotString("toName"))
	passengers, ok := state.SlotInt("passengers")
	require.True(t, ok)
	require.Equal(t, 2, passengers)
	require.Contains(t, resp.Assistant.Text, "departure time")
}

func TestBusStopFlow(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	ctx := context.Background()

	resp := o.HandleChat(ctx, "u_100", false, "conv-1", "Bus Arrivals")
	require.Contains(t, resp.Assistant.Text, "Which stop would you like to check?")
	require.Equal(t, busStopOptions, suggestions(t, resp))

	state := o.sessions.Resolve(ctx, "conv-1", "u_100")
	require.Equal(t, intentAwaitingBusStop, state.Intent)

	resp = o.HandleChat(ctx, "u_100", false, "conv-1", "UTown")
	require.Contains(t, resp.Assistant.Text, "UTown — Next arrivals:")
	require.Contains(t, resp.Assistant.Text, "Route D1")
	require.Empty(t, state.Intent)
	require.Equal(t, "UTown", state.SlotString("_lastBusStop"))
}

func TestBusShowMoreExpandsLastQuery(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	ctx := context.Background()

	resp := o.HandleChat(ctx, "u_100", false, "conv-1", "乌节路到站时间")
	require.Contains(t, resp.Assistant.Text, "乌节路 — Next arrivals:")
	require.Contains(t, resp.Assistant.Text, "1 more services available")
	require.Contains(t, suggestions(t, resp), "Show more")

	resp = o.HandleChat(ctx, "u_100", false, "conv-1", "Show more")
	require.Contains(t, resp.Assistant.Text, "Route 77")
	require.NotContains(t, resp.Assistant.Text, "more services available")
}

func TestShowMoreWithoutHistoryAsksForStop(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	ctx := context.Background()

	resp := o.HandleChat(ctx, "u_100", false, "conv-1", "Show more")
	require.Contains(t, resp.Assistant.Text, "Which stop would you like to check?")

	state := o.sessions.Resolve(ctx, "conv-1", "u_100")
	require.Equal(t, intentAwaitingBusStop, state.Intent)
}

func TestRecommendationCampusRoute(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	ctx := context.Background()

	resp := o.HandleChat(ctx, "u_100", false, "conv-1", "Travel Advice")
	require.Contains(t, resp.Assistant.Text, "Where would you like to go?")

	resp = o.HandleChat(ctx, "u_100", false, "conv-1", "COM3 to UTown")
	require.Contains(t, resp.Assistant.Text, "Travel advice for COM3 to UTown")
	require.Contains(t, resp.Assistant.Text, "Campus Shuttle")

	options := suggestions(t, resp)
	require.Contains(t, options, "🚌 Bus Arrivals")
	require.Contains(t, options, "🎫 Book COM3 to UTown")
}

func TestRecommendationCityRoute(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	ctx := context.Background()

	resp := o.HandleChat(ctx, "u_100", false, "conv-1", "recommend a route from Orchard to Marina Bay")
	require.Contains(t, resp.Assistant.Text, "MRT")
	require.NotContains(t, resp.Assistant.Text, "Campus Shuttle")
}

func TestBookFollowUpButtonSeedsSlots(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	ctx := context.Background()

	resp := o.HandleChat(ctx, "u_100", false, "conv-1", "🎫 Book COM3 to UTown")
	state := o.sessions.Resolve(ctx, "conv-1", "u_100")
	require.Equal(t, intentBooking, state.Intent)
	require.Equal(t, "COM3", state.SlotString("fromName"))
	require.Equal(t, "UTown", state.SlotString("toName"))
	require.Contains(t, resp.Assistant.Text, "got it!")
}

func TestProfileQueryGuest(t *testing.T) {
	o, _ := newTestOrchestrator(t)

	resp := o.HandleChat(context.Background(), "guest", false, "conv-1", "My Profile")
	require.Contains(t, resp.Assistant.Text, "not logged in")
}

func TestProfileQueryRendersCard(t *testing.T) {
	o, st := newTestOrchestrator(t)
	ctx := context.Background()

	require.NoError(t, st.UpsertUser(ctx, &store.User{
		UserID:        "u_100",
		Nickname:      "Alice",
		Email:         "alice@example.com",
		TotalTrips:    12,
		TotalDistance: 34.5,
		GreenDays:     8,
		WeeklyRank:    3,
		TotalCarbon:   1520.0,
		CurrentPoints: 200,
		TotalPoints:   950,
	}))

	resp := o.HandleChat(ctx, "u_100", false, "conv-1", "My Profile")
	require.Contains(t, resp.Assistant.Text, "👤 Nickname: Alice")
	require.Contains(t, resp.Assistant.Text, "📱 Phone: Not set")
	require.Contains(t, resp.Assistant.Text, "Total Distance: 34.5 km")
	require.Contains(t, resp.Assistant.Text, "Weekly Rank: #3")
	require.Contains(t, resp.Assistant.Text, "Carbon Saved: 1520.0 g")
}

func TestSelfUpdateExecutesImmediately(t *testing.T) {
	o, st := newTestOrchestrator(t)
	ctx := context.Background()

	require.NoError(t, st.UpsertUser(ctx, &store.User{UserID: "u_100", Nickname: "Old"}))

	resp := o.HandleChat(ctx, "u_100", false, "conv-1", "update my nickname=Neo")
	require.Equal(t, "Your profile has been updated ([nickname]).", resp.Assistant.Text)

	user, err := st.GetUser(ctx, "u_100")
	require.NoError(t, err)
	require.Equal(t, "Neo", user.Nickname)
}

func TestSelfUpdateWithoutFields(t *testing.T) {
	o, st := newTestOrchestrator(t)
	ctx := context.Background()

	require.NoError(t, st.UpsertUser(ctx, &store.User{UserID: "u_100"}))

	resp := o.HandleChat(ctx, "u_100", false, "conv-1", "update my profile")
	require.Contains(t, resp.Assistant.Text, "No fields to update detected")
}

func TestCrossUserUpdateDeniedForRegularUser(t *testing.T) {
	o, st := newTestOrchestrator(t)
	ctx := context.Background()

	require.NoError(t, st.UpsertUser(ctx, &store.User{UserID: "u_200", Nickname: "Target"}))

	resp := o.HandleChat(ctx, "u_100", false, "conv-1", "修改用户 u_200 nickname=Hacked")
	require.Contains(t, resp.Assistant.Text, "don't have permission")

	user, err := st.GetUser(ctx, "u_200")
	require.NoError(t, err)
	require.Equal(t, "Target", user.Nickname)
}

func TestCrossUserUpdateRequiresConfirmation(t *testing.T) {
	o, st := newTestOrchestrator(t)
	ctx := context.Background()

	require.NoError(t, st.UpsertUser(ctx, &store.User{UserID: "u_200", Nickname: "Old"}))

	resp := o.HandleChat(ctx, "admin_1", true, "conv-1", "修改用户 u_200 nickname=Fresh")
	require.Contains(t, resp.Assistant.Text, "Please confirm to proceed")
	confirm := uiAction(t, resp, "SHOW_CONFIRM")
	require.Equal(t, "Confirm profile update", confirm["title"])

	state := o.sessions.Resolve(ctx, "conv-1", "admin_1")
	require.Equal(t, intentUserUpdate, state.Intent)
	require.NotNil(t, state.PendingUpdate)

	// The target is untouched until the confirmation turn.
	user, err := st.GetUser(ctx, "u_200")
	require.NoError(t, err)
	require.Equal(t, "Old", user.Nickname)

	resp = o.HandleChat(ctx, "admin_1", true, "conv-1", "confirm")
	require.Contains(t, resp.Assistant.Text, "Profile updated ([nickname])")
	require.Contains(t, resp.Assistant.Text, "Audit ID:")
	require.Contains(t, resp.Assistant.Text, "u_200 notified")

	user, err = st.GetUser(ctx, "u_200")
	require.NoError(t, err)
	require.Equal(t, "Fresh", user.Nickname)

	require.Empty(t, state.Intent)
	require.Nil(t, state.PendingUpdate)
}

func TestResetAbandonsPendingUpdate(t *testing.T) {
	o, st := newTestOrchestrator(t)
	ctx := context.Background()

	require.NoError(t, st.UpsertUser(ctx, &store.User{UserID: "u_200", Nickname: "Old"}))

	o.HandleChat(ctx, "admin_1", true, "conv-1", "修改用户 u_200 nickname=Fresh")
	o.HandleChat(ctx, "admin_1", true, "conv-1", "cancel")

	// Confirming after a reset must not apply the abandoned patch.
	resp := o.HandleChat(ctx, "admin_1", true, "conv-1", "confirm")
	require.NotContains(t, resp.Assistant.Text, "Profile updated")

	user, err := st.GetUser(ctx, "u_200")
	require.NoError(t, err)
	require.Equal(t, "Old", user.Nickname)
}

func TestDefaultFallsBackToRetrieval(t *testing.T) {
	o, _ := newTestOrchestrator(t)

	resp := o.HandleChat(context.Background(), "u_100", false, "conv-1", "什么是绿色出行")
	require.NotEmpty(t, resp.Assistant.Text)
	require.NotEmpty(t, resp.Assistant.Citations)
	require.Equal(t, mainMenu, suggestions(t, resp))
}

func TestRetrievalMissAnswersUnsure(t *testing.T) {
	o, _ := newTestOrchestrator(t)

	resp := o.HandleChat(context.Background(), "u_100", false, "conv-1", "zzqqxxyy")
	require.Contains(t, resp.Assistant.Text, "I'm not sure about that")
	require.Empty(t, resp.Assistant.Citations)
}

func TestTranscriptPersisted(t *testing.T) {
	o, st := newTestOrchestrator(t)
	ctx := context.Background()

	o.HandleChat(ctx, "u_100", false, "conv-1", "hello")

	msgs, err := st.ListChatMessages(ctx, "conv-1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, "user", msgs[0].Role)
	require.Equal(t, "hello", msgs[0].Text)
	require.Equal(t, "assistant", msgs[1].Role)
}

func TestStatePersistedAcrossManagerRestart(t *testing.T) {
	o, st := newTestOrchestrator(t)
	ctx := context.Background()

	o.HandleChat(ctx, "u_100", false, "conv-1", "Book a Trip")
	o.HandleChat(ctx, "u_100", false, "conv-1", "from NUS to Marina Bay")

	// A fresh manager simulates a process restart; the slots must
	// rehydrate from the store.
	restarted := session.NewManager(st)
	state := restarted.Resolve(ctx, "conv-1", "u_100")
	require.Equal(t, intentBooking, state.Intent)
	require.Equal(t, "NUS", state.SlotString("fromName"))
	require.Equal(t, "Marina Bay", state.SlotString("toName"))
}

func TestModelToolCallSkipsProxyAndKeywordStages(t *testing.T) {
	var modelHits, proxyHits atomic.Int32

	modelSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		modelHits.Add(1)
		body := map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "greentravel-local",
			"choices": []map[string]any{{
				"index": 0,
				"message": map[string]any{
					"role":    "assistant",
					"content": "",
					"tool_calls": []map[string]any{{
						"id":   "call_1",
						"type": "function",
						"function": map[string]any{
							"name":      "create_booking",
							"arguments": `{"fromName":"NUS","toName":"Marina Bay","departAt":"2026-09-01T08:30:00","passengers":2}`,
						},
					}},
				},
				"finish_reason": "tool_calls",
			}},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(body))
	}))
	t.Cleanup(modelSrv.Close)

	proxySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		proxyHits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"assistant":{"text":"proxied"}}`))
	}))
	t.Cleanup(proxySrv.Close)

	o := newBackedOrchestrator(t,
		&profile.Profile{
			ModelBaseURL: modelSrv.URL,
			ModelAPIKey:  "test-key",
			ModelName:    "greentravel-local",
			ModelTimeout: 2,
			ModelEnabled: true,
		},
		&profile.Profile{ProxyBaseURL: proxySrv.URL, ProxyTimeout: 2, ProxyEnabled: true},
	)

	// "hello" would hit the greeting rule if the cascade ever ran.
	resp := o.HandleChat(context.Background(), "u_100", false, "conv-1", "hello")

	require.Equal(t, "Booking confirmed! 🎉", resp.Assistant.Text)
	require.EqualValues(t, 1, modelHits.Load())
	require.EqualValues(t, 0, proxyHits.Load())
}

func TestProxyAnswerSkipsKeywordStage(t *testing.T) {
	var proxyHits atomic.Int32

	proxySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		proxyHits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"conversationId":"conv-1","assistant":{"text":"Answer from the backend."}}`))
	}))
	t.Cleanup(proxySrv.Close)

	o := newBackedOrchestrator(t,
		&profile.Profile{},
		&profile.Profile{ProxyBaseURL: proxySrv.URL, ProxyTimeout: 2, ProxyEnabled: true},
	)

	resp := o.HandleChat(context.Background(), "u_100", false, "conv-1", "hello")

	require.Equal(t, "Answer from the backend.", resp.Assistant.Text)
	require.EqualValues(t, 1, proxyHits.Load())
}
