package chatguru

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Shape identifies which of the accepted webhook layouts a payload was decoded from.
type Shape string

const (
	ShapeChatGuru  Shape = "chatguru"
	ShapeEventType Shape = "event_type"
	ShapeGeneric   Shape = "generic"
)

// ChatGuruPayload is the current native webhook sent by ChatGuru.
type ChatGuruPayload struct {
	CampanhaID    string   `json:"campanha_id"`
	CampanhaNome  string   `json:"campanha_nome"`
	Origem        string   `json:"origem"`
	Email         string   `json:"email"`
	Nome          string   `json:"nome"`
	Tags          []string `json:"tags"`
	TextoMensagem string   `json:"texto_mensagem"`

	// Older accounts send media_url/media_type.
	MediaURL  *string `json:"media_url"`
	MediaType *string `json:"media_type"`

	// Newer accounts send tipo_mensagem ("image", "ptt", "video", ...) and url_arquivo.
	TipoMensagem *string `json:"tipo_mensagem"`
	URLArquivo   *string `json:"url_arquivo"`

	CamposPersonalizados map[string]any `json:"campos_personalizados"`
	BotContext           *BotContext    `json:"bot_context"`
	ResponsavelNome      *string        `json:"responsavel_nome"`
	ResponsavelEmail     *string        `json:"responsavel_email"`
	LinkChat             string         `json:"link_chat"`
	Celular              string         `json:"celular"`
	PhoneID              *string        `json:"phone_id"`
	ChatID               *string        `json:"chat_id"`
	ChatCreated          *string        `json:"chat_created"`
}

// BotContext carries the bot flags ChatGuru attaches to a chat.
type BotContext struct {
	ChatGuru *bool `json:"ChatGuru"`
}

// UnmarshalJSON accepts the alternative names ChatGuru has used for the
// message text and media URL.
func (p *ChatGuruPayload) UnmarshalJSON(data []byte) error {
	type plain ChatGuruPayload
	aux := struct {
		*plain
		Mensagem *string `json:"mensagem"`
		Message  *string `json:"message"`
		Text     *string `json:"text"`
		URLMidia *string `json:"url_midia"`
	}{plain: (*plain)(p)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if p.TextoMensagem == "" {
		for _, alt := range []*string{aux.Mensagem, aux.Message, aux.Text} {
			if alt != nil && *alt != "" {
				p.TextoMensagem = *alt
				break
			}
		}
	}
	if p.URLArquivo == nil && aux.URLMidia != nil {
		p.URLArquivo = aux.URLMidia
	}
	return nil
}

// NormalizeMediaFields fills media_url/media_type from url_arquivo/tipo_mensagem
// when the payload uses the newer media layout.
func (p *ChatGuruPayload) NormalizeMediaFields() {
	if p.MediaURL != nil && p.MediaType != nil {
		return
	}

	if p.URLArquivo != nil && p.MediaURL == nil {
		u := *p.URLArquivo
		p.MediaURL = &u
	}

	if p.TipoMensagem != nil && p.MediaType == nil {
		mime := mimeTypeForTipo(*p.TipoMensagem)
		p.MediaType = &mime
	}
}

// EventTypePayload is the legacy webhook layout keyed by event_type.
type EventTypePayload struct {
	ID        string    `json:"id"`
	EventType string    `json:"event_type"`
	Timestamp string    `json:"timestamp"`
	Data      EventData `json:"data"`
}

// UnmarshalJSON rejects documents missing any of the four top-level fields.
func (p *EventTypePayload) UnmarshalJSON(data []byte) error {
	var aux struct {
		ID        *string         `json:"id"`
		EventType *string         `json:"event_type"`
		Timestamp *string         `json:"timestamp"`
		Data      json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	switch {
	case aux.ID == nil:
		return errors.New(`missing field "id"`)
	case aux.EventType == nil:
		return errors.New(`missing field "event_type"`)
	case aux.Timestamp == nil:
		return errors.New(`missing field "timestamp"`)
	case len(aux.Data) == 0 || bytes.Equal(bytes.TrimSpace(aux.Data), []byte("null")):
		return errors.New(`missing field "data"`)
	}

	var eventData EventData
	if err := json.Unmarshal(aux.Data, &eventData); err != nil {
		return fmt.Errorf("data: %w", err)
	}

	*p = EventTypePayload{
		ID:        *aux.ID,
		EventType: *aux.EventType,
		Timestamp: *aux.Timestamp,
		Data:      eventData,
	}
	return nil
}

// EventData is the body of a legacy event. Unknown keys are kept in Extra.
type EventData struct {
	LeadName    *string        `json:"lead_name"`
	Phone       *string        `json:"phone"`
	Email       *string        `json:"email"`
	ProjectName *string        `json:"project_name"`
	TaskTitle   *string        `json:"task_title"`
	Annotation  *string        `json:"annotation"`
	Amount      *float64       `json:"amount"`
	Status      *string        `json:"status"`
	CustomData  map[string]any `json:"custom_data"`
	Extra       map[string]any `json:"-"`
}

var eventDataKeys = []string{
	"lead_name", "phone", "email", "project_name", "task_title",
	"annotation", "amount", "status", "custom_data",
}

func (d *EventData) UnmarshalJSON(data []byte) error {
	type plain EventData
	var known plain
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}
	extra, err := extraFields(data, eventDataKeys)
	if err != nil {
		return err
	}
	known.Extra = extra
	*d = EventData(known)
	return nil
}

func (d EventData) MarshalJSON() ([]byte, error) {
	type plain EventData
	return marshalWithExtra(plain(d), d.Extra)
}

// GenericPayload is the minimal fallback layout. Every JSON object matches it.
type GenericPayload struct {
	Nome     *string        `json:"nome"`
	Celular  *string        `json:"celular"`
	Email    *string        `json:"email"`
	Mensagem *string        `json:"mensagem"`
	Extra    map[string]any `json:"-"`
}

var genericKeys = []string{"nome", "celular", "email", "mensagem"}

func (p *GenericPayload) UnmarshalJSON(data []byte) error {
	type plain GenericPayload
	var known plain
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}
	extra, err := extraFields(data, genericKeys)
	if err != nil {
		return err
	}
	known.Extra = extra
	*p = GenericPayload(known)
	return nil
}

func (p GenericPayload) MarshalJSON() ([]byte, error) {
	type plain GenericPayload
	return marshalWithExtra(plain(p), p.Extra)
}

// WebhookPayload holds exactly one decoded shape; Shape names which pointer is set.
type WebhookPayload struct {
	Shape     Shape
	ChatGuru  *ChatGuruPayload
	EventType *EventTypePayload
	Generic   *GenericPayload
}

type shapeDecoder struct {
	shape  Shape
	decode func(raw []byte, fields map[string]json.RawMessage) (WebhookPayload, error)
}

// shapeDecoders is tried in order. Generic accepts any object, so it must stay last.
var shapeDecoders = []shapeDecoder{
	{shape: ShapeChatGuru, decode: decodeChatGuru},
	{shape: ShapeEventType, decode: decodeEventType},
	{shape: ShapeGeneric, decode: decodeGeneric},
}

// chatGuruKeys are the keys only the native layout carries.
var chatGuruKeys = []string{
	"campanha_id", "campanha_nome", "origem", "tags", "texto_mensagem",
	"message", "text", "media_url", "media_type", "tipo_mensagem",
	"url_arquivo", "url_midia", "campos_personalizados", "bot_context",
	"responsavel_nome", "responsavel_email", "link_chat", "phone_id",
	"chat_id", "chat_created",
}

// Decode parses an inbound webhook body into the first shape that accepts it.
func Decode(raw []byte) (WebhookPayload, error) {
	fields, err := objectFields(raw)
	if err != nil {
		return WebhookPayload{}, NewSerializationError("webhook payload is not a JSON object", err)
	}

	rejections := make([]string, 0, len(shapeDecoders))
	for _, d := range shapeDecoders {
		payload, err := d.decode(raw, fields)
		if err == nil {
			return payload, nil
		}
		rejections = append(rejections, fmt.Sprintf("%s: %v", d.shape, err))
	}

	return WebhookPayload{}, NewSerializationError(
		"webhook payload matches no known shape ("+strings.Join(rejections, "; ")+")", nil)
}

func decodeChatGuru(raw []byte, fields map[string]json.RawMessage) (WebhookPayload, error) {
	if !hasAnyKey(fields, chatGuruKeys) {
		return WebhookPayload{}, errors.New("no ChatGuru field present")
	}
	var p ChatGuruPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return WebhookPayload{}, err
	}
	return WebhookPayload{Shape: ShapeChatGuru, ChatGuru: &p}, nil
}

func decodeEventType(raw []byte, _ map[string]json.RawMessage) (WebhookPayload, error) {
	var p EventTypePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return WebhookPayload{}, err
	}
	return WebhookPayload{Shape: ShapeEventType, EventType: &p}, nil
}

func decodeGeneric(raw []byte, _ map[string]json.RawMessage) (WebhookPayload, error) {
	var p GenericPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return WebhookPayload{}, err
	}
	return WebhookPayload{Shape: ShapeGeneric, Generic: &p}, nil
}

// MarshalJSON writes the active shape in its own layout.
func (w WebhookPayload) MarshalJSON() ([]byte, error) {
	var v any
	switch {
	case w.Shape == ShapeChatGuru && w.ChatGuru != nil:
		v = w.ChatGuru
	case w.Shape == ShapeEventType && w.EventType != nil:
		v = w.EventType
	case w.Shape == ShapeGeneric && w.Generic != nil:
		v = w.Generic
	default:
		return nil, NewInternalError(fmt.Sprintf("webhook payload has no %q variant", w.Shape))
	}

	out, err := json.Marshal(v)
	if err != nil {
		return nil, NewSerializationError("encode webhook payload", err)
	}
	return out, nil
}

func (w *WebhookPayload) UnmarshalJSON(data []byte) error {
	p, err := Decode(data)
	if err != nil {
		return err
	}
	*w = p
	return nil
}

// ContactName returns the contact's name, "Contato" when a legacy or generic
// payload omits it.
func (w WebhookPayload) ContactName() string {
	switch {
	case w.ChatGuru != nil:
		return w.ChatGuru.Nome
	case w.EventType != nil:
		return valueOr(w.EventType.Data.LeadName, "Contato")
	case w.Generic != nil:
		return valueOr(w.Generic.Nome, "Contato")
	}
	return ""
}

func (w WebhookPayload) PhoneNumber() string {
	switch {
	case w.ChatGuru != nil:
		return w.ChatGuru.Celular
	case w.EventType != nil:
		return deref(w.EventType.Data.Phone)
	case w.Generic != nil:
		return deref(w.Generic.Celular)
	}
	return ""
}

func (w WebhookPayload) MessageText() string {
	switch {
	case w.ChatGuru != nil:
		return w.ChatGuru.TextoMensagem
	case w.EventType != nil:
		return deref(w.EventType.Data.Annotation)
	case w.Generic != nil:
		return deref(w.Generic.Mensagem)
	}
	return ""
}

// ChatID returns the chat identifier. Legacy events use their event id.
func (w WebhookPayload) ChatID() string {
	switch {
	case w.ChatGuru != nil:
		return deref(w.ChatGuru.ChatID)
	case w.EventType != nil:
		return w.EventType.ID
	}
	return ""
}

func (w WebhookPayload) Email() string {
	switch {
	case w.ChatGuru != nil:
		return w.ChatGuru.Email
	case w.EventType != nil:
		return deref(w.EventType.Data.Email)
	case w.Generic != nil:
		return deref(w.Generic.Email)
	}
	return ""
}

// HasMedia reports whether a native payload references an attachment.
func (w WebhookPayload) HasMedia() bool {
	return w.MediaURL() != ""
}

func (w WebhookPayload) MediaURL() string {
	if w.ChatGuru == nil {
		return ""
	}
	if u := deref(w.ChatGuru.MediaURL); u != "" {
		return u
	}
	return deref(w.ChatGuru.URLArquivo)
}

// MediaType returns the attachment MIME type, derived from tipo_mensagem
// when media_type is absent.
func (w WebhookPayload) MediaType() string {
	if w.ChatGuru == nil {
		return ""
	}
	if t := deref(w.ChatGuru.MediaType); t != "" {
		return t
	}
	if w.ChatGuru.TipoMensagem != nil {
		return mimeTypeForTipo(*w.ChatGuru.TipoMensagem)
	}
	return ""
}

func objectFields(raw []byte) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, errors.New("null document")
	}
	return fields, nil
}

func extraFields(data []byte, known []string) (map[string]any, error) {
	var all map[string]any
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

func marshalWithExtra(known any, extra map[string]any) ([]byte, error) {
	base, err := json.Marshal(known)
	if err != nil || len(extra) == 0 {
		return base, err
	}

	var merged map[string]any
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for k, v := range extra {
		if _, taken := merged[k]; !taken {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

func hasAnyKey(fields map[string]json.RawMessage, keys []string) bool {
	for _, k := range keys {
		if _, ok := fields[k]; ok {
			return true
		}
	}
	return false
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func valueOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
