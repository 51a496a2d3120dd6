package chatguru

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want CanonicalChatEvent
	}{
		{
			name: "native",
			raw:  `{"chat_id": "chat-1", "nome": "João", "celular": "5511999999999", "email": "j@x.com", "texto_mensagem": "oi", "phone_id": "p1", "campos_personalizados": {"Empresa": "ACME"}}`,
			want: CanonicalChatEvent{
				Shape: ShapeChatGuru, ChatID: "chat-1", ContactName: "João", Phone: "5511999999999",
				Email: "j@x.com", Text: "oi", PhoneID: "p1",
			},
		},
		{
			name: "event type",
			raw:  `{"id": "evt-9", "event_type": "e", "timestamp": "t", "data": {"phone": "5511", "annotation": "nota", "custom_data": {"k": "v"}}}`,
			want: CanonicalChatEvent{
				Shape: ShapeEventType, ChatID: "evt-9", ContactName: "Contato", Phone: "5511", Text: "nota",
			},
		},
		{
			name: "generic",
			raw:  `{"nome": "Carlos", "mensagem": "olá"}`,
			want: CanonicalChatEvent{Shape: ShapeGeneric, ContactName: "Carlos", Text: "olá"},
		},
		{
			name: "empty generic",
			raw:  `{}`,
			want: CanonicalChatEvent{Shape: ShapeGeneric, ContactName: "Contato"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(mustDecode(t, tt.raw))

			if got.CustomFields == nil {
				t.Fatal("CustomFields is nil")
			}
			if got.Shape != tt.want.Shape || got.ChatID != tt.want.ChatID ||
				got.ContactName != tt.want.ContactName || got.Phone != tt.want.Phone ||
				got.Email != tt.want.Email || got.Text != tt.want.Text || got.PhoneID != tt.want.PhoneID {
				t.Errorf("Normalize() = %+v, want %+v", got, tt.want)
			}
			if got.Media != nil {
				t.Errorf("Media = %+v, want nil", got.Media)
			}
		})
	}
}

func TestNormalizeCustomFields(t *testing.T) {
	p := mustDecode(t, `{"chat_id": "c", "campos_personalizados": {"Empresa": "ACME"}}`)

	event := Normalize(p)
	if event.CustomFields["Empresa"] != "ACME" {
		t.Fatalf("CustomFields = %v", event.CustomFields)
	}

	event.CustomFields["Empresa"] = "changed"
	if p.ChatGuru.CamposPersonalizados["Empresa"] != "ACME" {
		t.Error("Normalize() must not alias the payload's custom fields")
	}

	legacy := Normalize(mustDecode(t, eventTypeWebhook))
	if len(legacy.CustomFields) != 0 {
		t.Errorf("legacy CustomFields = %v, want empty", legacy.CustomFields)
	}
}

func TestNormalizeMedia(t *testing.T) {
	event := Normalize(mustDecode(t, nativeWebhook))
	if event.Media == nil {
		t.Fatal("Media is nil")
	}
	if event.Media.Kind != MediaImage || event.Media.URL != "https://cdn.chatguru.app/f/abc.jpg" {
		t.Errorf("Media = %+v", event.Media)
	}
}

func TestNormalizeZeroPayload(t *testing.T) {
	event := Normalize(WebhookPayload{})
	if event.CustomFields == nil || event.Media != nil || event.Text != "" {
		t.Errorf("Normalize(zero) = %+v", event)
	}
}
