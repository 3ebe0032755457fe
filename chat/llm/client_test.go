package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Team1-AD-project/EcoGoProject-sub000/internal/profile"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(&profile.Profile{
		ModelBaseURL: server.URL,
		ModelAPIKey:  "test-key",
		ModelName:    "greentravel-local",
		ModelTimeout: 2,
		ModelEnabled: true,
	})
}

func completionBody(content string, toolName, toolArgs string) map[string]any {
	message := map[string]any{"role": "assistant", "content": content}
	if toolName != "" {
		message["tool_calls"] = []map[string]any{
			{
				"id":   "call_1",
				"type": "function",
				"function": map[string]any{
					"name":      toolName,
					"arguments": toolArgs,
				},
			},
		}
	}
	return map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"model":   "greentravel-local",
		"choices": []map[string]any{{"index": 0, "message": message, "finish_reason": "stop"}},
	}
}

func TestCallForToolDisabled(t *testing.T) {
	client := NewClient(&profile.Profile{ModelBaseURL: "http://localhost:1", ModelEnabled: false})
	require.Nil(t, client.CallForTool(context.Background(), "book a trip"))
}

func TestCallForToolPlainText(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(completionBody("Take the shuttle.", "", ""))
	})

	result := client.CallForTool(context.Background(), "how should I travel")
	require.NotNil(t, result)
	require.Equal(t, "Take the shuttle.", result.Text)
	require.Nil(t, result.Tool)
}

func TestCallForToolCreateBooking(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		args := `{"fromName":"COM3","toName":"UTown","departAt":"2026-09-01T08:30:00","passengers":2}`
		_ = json.NewEncoder(w).Encode(completionBody("", "create_booking", args))
	})

	result := client.CallForTool(context.Background(), "book it")
	require.NotNil(t, result)
	require.Equal(t, CreateBookingCall{
		FromName:   "COM3",
		ToName:     "UTown",
		DepartAt:   "2026-09-01T08:30:00",
		Passengers: 2,
	}, result.Tool)
}

func TestCallForToolGetArrivals(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(completionBody("", "get_bus_arrivals", `{"stopName":"COM3","route":"A1"}`))
	})

	result := client.CallForTool(context.Background(), "when is the next A1 at COM3")
	require.NotNil(t, result)
	require.Equal(t, GetArrivalsCall{StopName: "COM3", Route: "A1"}, result.Tool)
}

func TestCallForToolUpdateUser(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(completionBody("", "update_user", `{"userId":"u_1024","patch":{"nickname":"Bob"}}`))
	})

	result := client.CallForTool(context.Background(), "update u_1024 nickname=Bob")
	require.NotNil(t, result)
	require.Equal(t, UpdateUserCall{
		UserID: "u_1024",
		Patch:  map[string]any{"nickname": "Bob"},
	}, result.Tool)
}

func TestCallForToolServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	require.Nil(t, client.CallForTool(context.Background(), "hi"))
}

func TestCallForToolUnknownToolReturnsNil(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(completionBody("", "delete_everything", `{}`))
	})
	require.Nil(t, client.CallForTool(context.Background(), "hi"))
}

func TestCallForToolUnreachable(t *testing.T) {
	client := NewClient(&profile.Profile{
		ModelBaseURL: "http://127.0.0.1:1",
		ModelEnabled: true,
		ModelTimeout: 1,
	})
	require.Nil(t, client.CallForTool(context.Background(), "hi"))
}
