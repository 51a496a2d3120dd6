package models

// AnnotationRequest asks the relay to attach a note to a ChatGuru chat.
type AnnotationRequest struct {
	ChatID      string `json:"chat_id"`
	PhoneNumber string `json:"phone_number" binding:"required"`
	Note        string `json:"note"`
}

// OutboundMessageRequest represents requests to send a message manually via the API.
type OutboundMessageRequest struct {
	PhoneNumber string `json:"phone_number" binding:"required"`
	// PhoneID overrides the account default phone when set.
	PhoneID     string `json:"phone_id"`
	Message     string `json:"message" binding:"required"`
}

// WebhookAck is returned to ChatGuru after a webhook has been understood.
type WebhookAck struct {
	Shape     string `json:"shape"`
	ChatID    string `json:"chat_id,omitempty"`
	HasMedia  bool   `json:"has_media"`
	Archived  bool   `json:"archived"`
	Replied   bool   `json:"replied"`
	Annotated bool   `json:"annotated"`
}
