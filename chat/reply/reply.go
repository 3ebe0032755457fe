// Package reply defines the wire shape of an assistant turn and the
// fluent builder the intent handlers use to compose one.
package reply

import "time"

// Citation points at a knowledge chunk that supported the answer.
type Citation struct {
	Title   string `json:"title"`
	Source  string `json:"source"`
	Snippet string `json:"snippet"`
}

// Assistant is the assistant half of a turn.
type Assistant struct {
	Text      string     `json:"text"`
	Citations []Citation `json:"citations"`
}

// UIAction instructs the client to render something beyond plain text.
// Types: SHOW_FORM, SHOW_CONFIRM, DEEPLINK, SUGGESTIONS, BOOKING_CARD.
type UIAction struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

// Reply is one complete assistant response.
type Reply struct {
	ConversationID  string     `json:"conversationId"`
	Assistant       Assistant  `json:"assistant"`
	UIActions       []UIAction `json:"uiActions"`
	ServerTimestamp time.Time  `json:"serverTimestamp"`
}

// New returns a text-only reply stamped with the current server time.
func New(conversationID, text string) *Reply {
	return &Reply{
		ConversationID:  conversationID,
		Assistant:       Assistant{Text: text, Citations: []Citation{}},
		UIActions:       []UIAction{},
		ServerTimestamp: time.Now(),
	}
}

// WithCitations attaches supporting citations.
func (r *Reply) WithCitations(citations []Citation) *Reply {
	if citations != nil {
		r.Assistant.Citations = citations
	}
	return r
}

// WithUIAction appends a raw UI action.
func (r *Reply) WithUIAction(action UIAction) *Reply {
	r.UIActions = append(r.UIActions, action)
	return r
}

// WithSuggestions adds tappable suggestion chips.
func (r *Reply) WithSuggestions(options ...string) *Reply {
	return r.WithUIAction(UIAction{
		Type:    "SUGGESTIONS",
		Payload: map[string]any{"options": options},
	})
}

// WithDeeplink attaches a navigation target, e.g. ecogo://trip/<id>.
func (r *Reply) WithDeeplink(url string) *Reply {
	return r.WithUIAction(UIAction{
		Type:    "DEEPLINK",
		Payload: map[string]any{"url": url},
	})
}

// FormField describes one input in a SHOW_FORM action.
type FormField struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
	Min      int    `json:"min,omitempty"`
	Max      int    `json:"max,omitempty"`
}

// WithShowForm asks the client to render an input form.
func (r *Reply) WithShowForm(formID, title string, fields []FormField) *Reply {
	return r.WithUIAction(UIAction{
		Type: "SHOW_FORM",
		Payload: map[string]any{
			"formId": formID,
			"title":  title,
			"fields": fields,
		},
	})
}

// WithShowConfirm asks the client to render a confirm prompt whose
// confirm button sends back a literal confirmation message.
func (r *Reply) WithShowConfirm(title, body string) *Reply {
	return r.WithUIAction(UIAction{
		Type: "SHOW_CONFIRM",
		Payload: map[string]any{
			"title":         title,
			"body":          body,
			"confirmAction": map[string]any{"type": "CHAT_MESSAGE", "text": "确认"},
		},
	})
}

// WithBookingCard attaches a booking summary card.
func (r *Reply) WithBookingCard(card map[string]any) *Reply {
	return r.WithUIAction(UIAction{Type: "BOOKING_CARD", Payload: card})
}
