package chatguru

import (
	"net/url"
	"path"
	"strings"
)

// MediaKind classifies an attachment.
type MediaKind string

const (
	MediaImage    MediaKind = "image"
	MediaAudio    MediaKind = "audio"
	MediaVideo    MediaKind = "video"
	MediaDocument MediaKind = "document"
)

// MediaReference points at an attachment found in a webhook.
type MediaReference struct {
	Kind     MediaKind `json:"kind"`
	URL      string    `json:"url"`
	MimeType string    `json:"mime_type"`
}

// Keys that name their own media kind.
var kindedMediaKeys = []struct {
	key  string
	kind MediaKind
}{
	{"image_url", MediaImage},
	{"imagem_url", MediaImage},
	{"url_imagem", MediaImage},
	{"audio_url", MediaAudio},
	{"url_audio", MediaAudio},
	{"video_url", MediaVideo},
	{"url_video", MediaVideo},
}

// Keys whose kind comes from a sibling type field or the URL itself.
var genericMediaKeys = []string{"media_url", "url_arquivo", "url_midia"}

var extensionKinds = map[string]MediaKind{
	".jpg": MediaImage, ".jpeg": MediaImage, ".png": MediaImage, ".gif": MediaImage, ".webp": MediaImage,
	".ogg": MediaAudio, ".oga": MediaAudio, ".opus": MediaAudio, ".mp3": MediaAudio, ".m4a": MediaAudio,
	".wav": MediaAudio, ".aac": MediaAudio,
	".mp4": MediaVideo, ".mov": MediaVideo, ".webm": MediaVideo, ".3gp": MediaVideo, ".mkv": MediaVideo,
	".pdf": MediaDocument,
}

// ExtractMedia returns the first recognized attachment of the payload.
// Unrecognized keys and non-string values are ignored.
func ExtractMedia(p WebhookPayload) (MediaReference, bool) {
	switch {
	case p.ChatGuru != nil:
		cg := p.ChatGuru
		if u := deref(cg.MediaURL); u != "" {
			return classify(u, deref(cg.MediaType), deref(cg.TipoMensagem)), true
		}
		if u := deref(cg.URLArquivo); u != "" {
			return classify(u, deref(cg.MediaType), deref(cg.TipoMensagem)), true
		}
		return mediaFromFields(cg.CamposPersonalizados)
	case p.EventType != nil:
		if ref, ok := mediaFromFields(p.EventType.Data.CustomData); ok {
			return ref, true
		}
		return mediaFromFields(p.EventType.Data.Extra)
	case p.Generic != nil:
		return mediaFromFields(p.Generic.Extra)
	}
	return MediaReference{}, false
}

func mediaFromFields(fields map[string]any) (MediaReference, bool) {
	if len(fields) == 0 {
		return MediaReference{}, false
	}

	mimeType := stringField(fields, "media_type")
	tipo := stringField(fields, "tipo_mensagem")

	for _, key := range genericMediaKeys {
		if u := stringField(fields, key); u != "" {
			return classify(u, mimeType, tipo), true
		}
	}

	for _, k := range kindedMediaKeys {
		u := stringField(fields, k.key)
		if u == "" {
			continue
		}
		ref := MediaReference{Kind: k.kind, URL: u, MimeType: defaultMimeType(k.kind)}
		if kindFromMimeType(mimeType) == k.kind {
			ref.MimeType = mimeType
		}
		return ref, true
	}

	return MediaReference{}, false
}

func classify(rawURL, mimeType, tipo string) MediaReference {
	kind := kindFromMimeType(mimeType)
	if kind == "" {
		kind = kindFromTipo(tipo)
	}
	if kind == "" {
		kind = kindFromURL(rawURL)
	}
	if kind == "" {
		kind = MediaDocument
	}

	switch {
	case mimeType != "":
	case tipo != "" && kindFromTipo(tipo) != "":
		mimeType = mimeTypeForTipo(tipo)
	default:
		mimeType = defaultMimeType(kind)
	}

	return MediaReference{Kind: kind, URL: rawURL, MimeType: mimeType}
}

// mimeTypeForTipo maps ChatGuru's tipo_mensagem to a MIME type. "ptt" is a
// push-to-talk voice note.
func mimeTypeForTipo(tipo string) string {
	switch tipo {
	case "image":
		return "image/jpeg"
	case "ptt", "audio":
		return "audio/ogg"
	case "video":
		return "video/mp4"
	case "document":
		return "application/pdf"
	default:
		return "application/" + tipo
	}
}

func kindFromTipo(tipo string) MediaKind {
	switch tipo {
	case "image":
		return MediaImage
	case "ptt", "audio":
		return MediaAudio
	case "video":
		return MediaVideo
	case "document":
		return MediaDocument
	}
	return ""
}

func kindFromMimeType(mimeType string) MediaKind {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	switch {
	case mimeType == "":
		return ""
	case strings.HasPrefix(mimeType, "image/"):
		return MediaImage
	case strings.HasPrefix(mimeType, "audio/"):
		return MediaAudio
	case strings.HasPrefix(mimeType, "video/"):
		return MediaVideo
	default:
		return MediaDocument
	}
}

func kindFromURL(rawURL string) MediaKind {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	return extensionKinds[strings.ToLower(path.Ext(p))]
}

func defaultMimeType(kind MediaKind) string {
	switch kind {
	case MediaImage:
		return "image/jpeg"
	case MediaAudio:
		return "audio/ogg"
	case MediaVideo:
		return "video/mp4"
	default:
		return "application/octet-stream"
	}
}

func stringField(fields map[string]any, key string) string {
	s, _ := fields[key].(string)
	return strings.TrimSpace(s)
}
