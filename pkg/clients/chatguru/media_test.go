package chatguru

import "testing"

func mustDecode(t *testing.T, raw string) WebhookPayload {
	t.Helper()
	p, err := Decode([]byte(raw))
	if err != nil {
		t.Fatalf("Decode(%s) error = %v", raw, err)
	}
	return p
}

func TestExtractMedia(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   MediaReference
		wantOK bool
	}{
		{
			name:   "native tipo_mensagem image",
			raw:    nativeWebhook,
			want:   MediaReference{Kind: MediaImage, URL: "https://cdn.chatguru.app/f/abc.jpg", MimeType: "image/jpeg"},
			wantOK: true,
		},
		{
			name:   "native legacy media fields",
			raw:    `{"chat_id": "c", "media_url": "https://x/m", "media_type": "video/quicktime"}`,
			want:   MediaReference{Kind: MediaVideo, URL: "https://x/m", MimeType: "video/quicktime"},
			wantOK: true,
		},
		{
			name:   "native voice note",
			raw:    `{"chat_id": "c", "tipo_mensagem": "ptt", "url_arquivo": "https://x/voice"}`,
			want:   MediaReference{Kind: MediaAudio, URL: "https://x/voice", MimeType: "audio/ogg"},
			wantOK: true,
		},
		{
			name:   "native url without type uses extension",
			raw:    `{"chat_id": "c", "url_arquivo": "https://x/clip.MP4?sig=1"}`,
			want:   MediaReference{Kind: MediaVideo, URL: "https://x/clip.MP4?sig=1", MimeType: "video/mp4"},
			wantOK: true,
		},
		{
			name:   "native custom field",
			raw:    `{"chat_id": "c", "campos_personalizados": {"Foto": "x", "image_url": "https://x/p"}}`,
			want:   MediaReference{Kind: MediaImage, URL: "https://x/p", MimeType: "image/jpeg"},
			wantOK: true,
		},
		{
			name:   "event type custom data",
			raw:    eventTypeWebhook,
			want:   MediaReference{Kind: MediaVideo, URL: "https://cdn.example.com/v.mp4", MimeType: "video/mp4"},
			wantOK: true,
		},
		{
			name:   "event type extra",
			raw:    `{"id": "1", "event_type": "e", "timestamp": "t", "data": {"audio_url": "https://x/a"}}`,
			want:   MediaReference{Kind: MediaAudio, URL: "https://x/a", MimeType: "audio/ogg"},
			wantOK: true,
		},
		{
			name:   "generic image url",
			raw:    `{"nome": "Ana", "image_url": "https://x/photo.png"}`,
			want:   MediaReference{Kind: MediaImage, URL: "https://x/photo.png", MimeType: "image/jpeg"},
			wantOK: true,
		},
		{
			name:   "generic skips unknown keys",
			raw:    `{"nome": "Ana", "arquivo": 1, "url_midia_extra": "x", "url_arquivo_x": "y", "image": "z", "url_video": "https://x/v"}`,
			want:   MediaReference{Kind: MediaVideo, URL: "https://x/v", MimeType: "video/mp4"},
			wantOK: true,
		},
		{
			name: "no recognized key",
			raw:  genericWebhook,
		},
		{
			name: "non-string media value ignored",
			raw:  `{"nome": "Ana", "image_url": 12}`,
		},
		{
			name: "native text message",
			raw:  `{"chat_id": "c", "tipo_mensagem": "chat", "texto_mensagem": "oi"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractMedia(mustDecode(t, tt.raw))
			if ok != tt.wantOK {
				t.Fatalf("ExtractMedia() ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("ExtractMedia() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestExtractMediaEmptyPayload(t *testing.T) {
	if _, ok := ExtractMedia(WebhookPayload{}); ok {
		t.Fatal("ExtractMedia() on empty payload reported media")
	}
}
