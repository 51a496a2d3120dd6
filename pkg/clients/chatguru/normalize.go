package chatguru

import "maps"

// CanonicalChatEvent is the shape-independent view of a webhook.
type CanonicalChatEvent struct {
	Shape        Shape           `json:"shape"`
	ChatID       string          `json:"chat_id"`
	ContactName  string          `json:"contact_name"`
	Phone        string          `json:"phone"`
	Email        string          `json:"email"`
	Text         string          `json:"text"`
	// PhoneID is the ChatGuru phone that received the message, native payloads only.
	PhoneID      string          `json:"phone_id"`
	CustomFields map[string]any  `json:"custom_fields"`
	Media        *MediaReference `json:"media,omitempty"`
}

// Normalize maps any decoded payload to a CanonicalChatEvent. Fields the
// source shape lacks stay empty; CustomFields is never nil.
func Normalize(p WebhookPayload) CanonicalChatEvent {
	event := CanonicalChatEvent{
		Shape:        p.Shape,
		ChatID:       p.ChatID(),
		ContactName:  p.ContactName(),
		Phone:        p.PhoneNumber(),
		Email:        p.Email(),
		Text:         p.MessageText(),
		CustomFields: map[string]any{},
	}

	if p.ChatGuru != nil {
		event.PhoneID = deref(p.ChatGuru.PhoneID)
		if len(p.ChatGuru.CamposPersonalizados) > 0 {
			event.CustomFields = maps.Clone(p.ChatGuru.CamposPersonalizados)
		}
	}

	if ref, ok := ExtractMedia(p); ok {
		event.Media = &ref
	}

	return event
}
