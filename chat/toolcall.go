package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/Team1-AD-project/EcoGoProject-sub000/chat/extract"
	"github.com/Team1-AD-project/EcoGoProject-sub000/chat/llm"
	"github.com/Team1-AD-project/EcoGoProject-sub000/chat/reply"
	"github.com/Team1-AD-project/EcoGoProject-sub000/chat/session"
)

// handleToolCall dispatches a model tool call. The type switch is
// exhaustive over the tool call union; adding a tool without a branch
// here falls through to the unsupported-operation answer.
func (o *Orchestrator) handleToolCall(ctx context.Context, convID, userID, role string, state *session.State, mr *llm.Result) *reply.Reply {
	switch tc := mr.Tool.(type) {
	case llm.CreateBookingCall:
		o.metrics.RecordToolCall("create_booking")
		if tc.FromName == "" || tc.ToName == "" || tc.DepartAt == "" || tc.Passengers == 0 {
			state.Intent = intentBooking
			if tc.FromName != "" {
				state.Slots["fromName"] = tc.FromName
			}
			if tc.ToName != "" {
				state.Slots["toName"] = tc.ToName
			}
			if tc.DepartAt != "" {
				state.Slots["departAt"] = tc.DepartAt
			}
			if tc.Passengers != 0 {
				state.Slots["passengers"] = tc.Passengers
			}
			return buildMissingFieldsResponse(convID, state)
		}

		result := o.bookings.Create(ctx, userID, tc.FromName, tc.ToName, tc.DepartAt, tc.Passengers)
		return buildBookingCardResponse(convID, result, tc.FromName, tc.ToName, tc.DepartAt, tc.Passengers)

	case llm.GetArrivalsCall:
		o.metrics.RecordToolCall("get_bus_arrivals")
		result := o.bus.GetArrivals(ctx, tc.StopName, tc.Route)

		if len(result.Arrivals) == 0 {
			fallback := strings.TrimSpace(mr.Text)
			if fallback == "" {
				fallback = fmt.Sprintf("%s: No arrivals found.", result.StopName)
			}
			return reply.New(convID, fallback).
				WithSuggestions("🎫 Book a Trip", "📋 My Profile")
		}

		var sb strings.Builder
		sb.WriteString("🚌 " + result.StopName + " — Arrivals:\n\n")
		for _, arrival := range result.Arrivals {
			var statusIcon string
			switch arrival.Status {
			case "arriving":
				statusIcon = "🟢 Arriving"
			case "delayed":
				statusIcon = "🟡 Delayed"
			default:
				statusIcon = "🔵 On time"
			}
			fmt.Fprintf(&sb, "  Route %s — %d min  %s\n", arrival.Route, arrival.EtaMinutes, statusIcon)
		}
		fmt.Fprintf(&sb, "\n%d services total.", len(result.Arrivals))

		return reply.New(convID, sb.String()).
			WithSuggestions("🎫 Book a Trip", "📋 My Profile")

	case llm.UpdateUserCall:
		o.metrics.RecordToolCall("update_user")
		targetUserID := tc.UserID
		if targetUserID == "" {
			targetUserID = userID
		}

		var patch extract.ProfilePatch
		if v, ok := tc.Patch["nickname"]; ok {
			patch.Nickname = fmt.Sprint(v)
		}
		if v, ok := tc.Patch["email"]; ok {
			patch.Email = fmt.Sprint(v)
		}
		if v, ok := tc.Patch["phone"]; ok {
			patch.Phone = fmt.Sprint(v)
		}
		if v, ok := tc.Patch["faculty"]; ok {
			patch.Faculty = fmt.Sprint(v)
		}

		if targetUserID != userID && role == "user" {
			return reply.New(convID, "You don't have permission to modify another user's profile.").
				WithSuggestions("📋 My Profile", "🎫 Book a Trip")
		}

		if targetUserID != userID {
			state.Intent = intentUserUpdate
			state.PendingUpdate = &session.PendingUpdate{TargetUserID: targetUserID, Patch: patch}
			return reply.New(convID, "You're modifying another user's profile. Please confirm to proceed.").
				WithShowConfirm("Confirm profile update",
					fmt.Sprintf("This will update user %s's profile. Reply \"confirm\" to continue.", targetUserID))
		}

		return o.executeUserUpdate(ctx, convID, userID, role, targetUserID, patch, state)

	default:
		fallback := strings.TrimSpace(mr.Text)
		if fallback == "" {
			fallback = "This operation is not supported yet."
		}
		return reply.New(convID, fallback).
			WithSuggestions(postActionMenu...)
	}
}
