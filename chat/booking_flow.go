package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/Team1-AD-project/EcoGoProject-sub000/chat/booking"
	"github.com/Team1-AD-project/EcoGoProject-sub000/chat/extract"
	"github.com/Team1-AD-project/EcoGoProject-sub000/chat/reply"
	"github.com/Team1-AD-project/EcoGoProject-sub000/chat/session"
)

// handleBookingFlow fills the four booking slots from the incoming
// message. Form submissions arrive as key=value pairs, free text is
// mined with the extractors. Completeness is re-checked every turn;
// once all four slots are present the booking executes and the state
// resets.
func (o *Orchestrator) handleBookingFlow(ctx context.Context, convID, userID string, state *session.State, text string) *reply.Reply {
	fromName := state.SlotString("fromName")
	toName := state.SlotString("toName")
	departAt := state.SlotString("departAt")
	passengers, hasPassengers := state.SlotInt("passengers")

	// Android form submissions: "route=从A到B, departAt=2026-02-10T11:30, passengers=2"
	if strings.Contains(text, "=") {
		kv := extract.KeyValuePairs(text)

		if fromName == "" || toName == "" {
			if route, ok := kv["route"]; ok {
				from, to, found := extract.Route(route)
				if !found {
					from, to, found = extract.RouteLoose(route)
				}
				if found {
					state.Slots["fromName"] = from
					state.Slots["toName"] = to
					fromName, toName = from, to
				}
			}
		}
		if departAt == "" {
			if raw, ok := kv["departAt"]; ok {
				if norm := extract.NormalizeDepartAt(raw); norm != "" {
					state.Slots["departAt"] = norm
					departAt = norm
				}
			}
		}
		if !hasPassengers {
			if raw, ok := kv["passengers"]; ok {
				if p, found := extract.PassengerCount(raw); found {
					state.Slots["passengers"] = p
					passengers, hasPassengers = p, true
				}
			}
		}

		// Key parsing can be flaky with IME input; if a passengers
		// field was submitted, try the full text as a last resort.
		if !hasPassengers && strings.Contains(strings.ToLower(text), "passengers") {
			if p, found := extract.PassengerCount(text); found {
				state.Slots["passengers"] = p
				passengers, hasPassengers = p, true
			}
		}
	}

	// Mine the free text for whatever is still missing.
	if fromName == "" || toName == "" {
		from, to, found := extract.Route(text)
		if !found {
			from, to, found = extract.RouteLoose(text)
		}
		if found {
			state.Slots["fromName"] = from
			state.Slots["toName"] = to
			fromName, toName = from, to
		}
	}
	if !hasPassengers {
		if p, found := extract.Passengers(text); found {
			state.Slots["passengers"] = p
			passengers, hasPassengers = p, true
		}
	}
	if departAt == "" {
		if dt, found := extract.DepartAt(text); found {
			state.Slots["departAt"] = dt
			departAt = dt
		}
	}

	if fromName != "" && toName != "" && departAt != "" && hasPassengers {
		result := o.bookings.Create(ctx, userID, fromName, toName, departAt, passengers)
		state.Reset()
		return buildBookingCardResponse(convID, result, fromName, toName, departAt, passengers)
	}

	return buildMissingFieldsResponse(convID, state)
}

func buildBookingCardResponse(convID string, result booking.Result, fromName, toName, departAt string, passengers int) *reply.Reply {
	card := map[string]any{
		"bookingId":  result.BookingID,
		"fromName":   fromName,
		"toName":     toName,
		"departAt":   departAt,
		"passengers": passengers,
		"status":     string(result.Status),
		"deeplink":   result.Deeplink,
	}
	if result.TripID != "" {
		card["tripId"] = result.TripID
	}

	return reply.New(convID, "Booking confirmed! 🎉").
		WithBookingCard(card).
		WithSuggestions("📋 My Profile", "🚌 Bus Arrivals", "Back to Menu")
}

// buildMissingFieldsResponse asks for the next missing slot, most
// specific prompt first: route, then time (plus passengers when both
// are missing), then passengers alone, then the full form.
func buildMissingFieldsResponse(convID string, state *session.State) *reply.Reply {
	fromName := state.SlotString("fromName")
	toName := state.SlotString("toName")
	departAt := state.SlotString("departAt")
	_, hasPassengers := state.SlotInt("passengers")

	if fromName == "" || toName == "" {
		return reply.New(convID, "Let me help you book a trip 🎫\n\nWhere would you like to go?").
			WithSuggestions("NUS to Marina Bay", "PGP to Changi Airport", "Back to Menu")
	}

	if departAt == "" {
		fields := []reply.FormField{
			{Key: "departAt", Label: "Departure Time", Type: "datetime", Required: true},
		}
		if !hasPassengers {
			fields = append(fields, reply.FormField{Key: "passengers", Label: "Passengers (1-8)", Type: "int", Required: true, Min: 1, Max: 8})
		}
		return reply.New(convID, fmt.Sprintf("**%s** to **%s** — got it!\n\nPlease select departure time and passengers:", fromName, toName)).
			WithShowForm("booking_missing_fields", "Complete Booking", fields)
	}

	if !hasPassengers {
		return reply.New(convID, fmt.Sprintf("%s to %s, departing %s\n\nHow many passengers?", fromName, toName, departAt)).
			WithSuggestions("1 person", "2 people", "3 people", "4 people")
	}

	fields := []reply.FormField{
		{Key: "route", Label: "Route (A to B)", Type: "text", Required: true},
		{Key: "departAt", Label: "Departure Time", Type: "datetime", Required: true},
		{Key: "passengers", Label: "Passengers (1-8)", Type: "int", Required: true, Min: 1, Max: 8},
	}
	return reply.New(convID, "Please provide the following to complete your booking:").
		WithShowForm("booking_missing_fields", "Complete Booking", fields)
}
