package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Team1-AD-project/EcoGoProject-sub000/chat/extract"
	"github.com/Team1-AD-project/EcoGoProject-sub000/chat/reply"
	"github.com/Team1-AD-project/EcoGoProject-sub000/chat/session"
	"github.com/Team1-AD-project/EcoGoProject-sub000/store"
)

func (o *Orchestrator) handleProfileQuery(ctx context.Context, convID, userID string) *reply.Reply {
	if userID == "guest" {
		return reply.New(convID, "You're not logged in. Please sign in to view your profile.").
			WithSuggestions(postActionMenu...)
	}

	user, err := o.store.GetUser(ctx, userID)
	if err != nil {
		slog.Warn("failed to load user profile", "userID", userID, "err", err)
	}
	if user == nil {
		return reply.New(convID, "Account not found (userId="+userID+").").
			WithSuggestions(postActionMenu...)
	}

	var sb strings.Builder
	sb.WriteString("📋 Your Profile:\n\n")
	sb.WriteString("👤 Nickname: " + orNotSet(user.Nickname) + "\n")
	sb.WriteString("📧 Email: " + orNotSet(user.Email) + "\n")
	sb.WriteString("📱 Phone: " + orNotSet(user.Phone) + "\n")
	sb.WriteString("🏫 Faculty: " + orNotSet(user.Faculty) + "\n")
	sb.WriteString("\n")

	sb.WriteString("📊 Statistics:\n")
	fmt.Fprintf(&sb, "  • Total Trips: %d\n", user.TotalTrips)
	fmt.Fprintf(&sb, "  • Total Distance: %.1f km\n", user.TotalDistance)
	fmt.Fprintf(&sb, "  • Green Travel Days: %d\n", user.GreenDays)
	if user.WeeklyRank > 0 {
		fmt.Fprintf(&sb, "  • Weekly Rank: #%d\n", user.WeeklyRank)
	}
	sb.WriteString("\n")

	sb.WriteString("🌿 Eco Impact:\n")
	fmt.Fprintf(&sb, "  • Carbon Saved: %.1f g\n", user.TotalCarbon)
	fmt.Fprintf(&sb, "  • Current Points: %d\n", user.CurrentPoints)
	fmt.Fprintf(&sb, "  • Total Points: %d\n", user.TotalPoints)

	return reply.New(convID, sb.String()).
		WithSuggestions("Update my nickname", "🎫 Book a Trip", "Back to Menu")
}

func orNotSet(val string) string {
	if strings.TrimSpace(val) == "" {
		return "Not set"
	}
	return val
}

// handleUserUpdateRequest parses a profile change ask. Self-updates
// execute immediately; touching another user requires the admin role
// and an explicit confirmation turn.
func (o *Orchestrator) handleUserUpdateRequest(ctx context.Context, convID, userID, role string, state *session.State, text string) *reply.Reply {
	targetUserID, ok := extract.UserID(text)
	if !ok {
		targetUserID = userID
	}
	patch := extract.Profile(text)

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
}

func (o *Orchestrator) handleUserUpdateConfirmation(ctx context.Context, convID, userID, role string, state *session.State) *reply.Reply {
	pending := state.PendingUpdate
	resp := o.executeUserUpdate(ctx, convID, userID, role, pending.TargetUserID, pending.Patch, state)
	state.Reset()
	return resp
}

func (o *Orchestrator) executeUserUpdate(ctx context.Context, convID, actorUserID, actorRole, targetUserID string, patch extract.ProfilePatch, state *session.State) *reply.Reply {
	if !patch.HasAny() {
		return reply.New(convID, "No fields to update detected. Supported fields: nickname, email, phone, faculty.\nExample: update my nickname=NewName").
			WithSuggestions(postActionMenu...)
	}

	update := &store.UpdateUser{UserID: targetUserID}
	var fields []string
	if patch.Nickname != "" {
		update.Nickname = &patch.Nickname
		fields = append(fields, "nickname")
	}
	if patch.Email != "" {
		update.Email = &patch.Email
		fields = append(fields, "email")
	}
	if patch.Phone != "" {
		update.Phone = &patch.Phone
		fields = append(fields, "phone")
	}
	if patch.Faculty != "" {
		update.Faculty = &patch.Faculty
		fields = append(fields, "faculty")
	}

	user, err := o.store.UpdateUser(ctx, update)
	if err != nil {
		slog.Warn("failed to update user profile", "target", targetUserID, "err", err)
		return reply.New(convID, "User not found.")
	}
	if user == nil {
		return reply.New(convID, "User not found.")
	}

	slog.Info("updated user profile", "target", targetUserID, "fields", fields)

	fieldList := "[" + strings.Join(fields, ", ") + "]"
	var responseText string
	if actorUserID != targetUserID {
		auditID, notifID := o.audit.RecordProfileUpdate(ctx, actorUserID, actorRole, targetUserID, patch)
		responseText = fmt.Sprintf("Profile updated (%s). Audit ID: %s. User %s notified (notification=%s).",
			fieldList, auditID, targetUserID, notifID)
	} else {
		responseText = fmt.Sprintf("Your profile has been updated (%s).", fieldList)
	}

	state.Reset()
	return reply.New(convID, responseText).
		WithSuggestions(postActionMenu...)
}
