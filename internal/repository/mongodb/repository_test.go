package mongodb

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/mamadbah2/chatguru/pkg/clients/chatguru"
)

func TestToDocument(t *testing.T) {
	receivedAt := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	event := chatguru.CanonicalChatEvent{
		Shape:        chatguru.ShapeChatGuru,
		ChatID:       "chat-1",
		ContactName:  "João",
		Phone:        "5511999999999",
		Text:         "oi",
		CustomFields: map[string]any{"Empresa": "ACME"},
		Media:        &chatguru.MediaReference{Kind: chatguru.MediaAudio, URL: "https://x/a.ogg", MimeType: "audio/ogg"},
	}

	doc := toDocument(event, []byte(`{"chat_id":"chat-1"}`), receivedAt)

	if doc.Shape != "chatguru" || doc.ChatID != "chat-1" || doc.Text != "oi" || !doc.ReceivedAt.Equal(receivedAt) {
		t.Errorf("unexpected document %+v", doc)
	}
	if doc.Media == nil || doc.Media.Kind != "audio" {
		t.Errorf("Media = %+v", doc.Media)
	}
	if doc.Raw != `{"chat_id":"chat-1"}` {
		t.Errorf("Raw = %s", doc.Raw)
	}

	encoded, err := bson.Marshal(doc)
	if err != nil {
		t.Fatalf("bson.Marshal() error = %v", err)
	}
	if _, err := bson.Raw(encoded).LookupErr("email"); err == nil {
		t.Error("empty email must be omitted")
	}

	var decoded struct {
		CustomFields map[string]string `bson:"custom_fields"`
	}
	if err := bson.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("bson.Unmarshal() error = %v", err)
	}
	if decoded.CustomFields["Empresa"] != "ACME" {
		t.Errorf("custom_fields = %v", decoded.CustomFields)
	}
}

func TestToDocumentWithoutMedia(t *testing.T) {
	doc := toDocument(chatguru.CanonicalChatEvent{Shape: chatguru.ShapeGeneric}, nil, time.Now())
	if doc.Media != nil {
		t.Errorf("Media = %+v, want nil", doc.Media)
	}
	if doc.CustomFields == nil {
		t.Error("CustomFields must never be nil")
	}
}
