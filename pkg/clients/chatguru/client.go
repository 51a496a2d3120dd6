// Package chatguru is a client for the ChatGuru messaging API and a model of
// the webhooks ChatGuru delivers.
//
// The API authenticates with a token passed as a query parameter; every
// operation is a POST whose parameters all travel in the query string.
package chatguru

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	// DefaultEndpoint is the public ChatGuru API base URL.
	DefaultEndpoint = "https://api.chatguru.app/api/v1"
	// DefaultPhoneID is the system phone used when the account has none configured.
	DefaultPhoneID = "62558780e2923cc4705beee1"

	requestTimeout = 10 * time.Second
	connectTimeout = 3 * time.Second

	apiPathSuffix = "/api/v1"

	actionNoteAdd     = "note_add"
	actionMessageSend = "message_send"
)

// Client exposes the ChatGuru API operations used by the application.
type Client interface {
	AddAnnotation(ctx context.Context, chatID, phoneNumber, noteText string) error
	SendConfirmationMessage(ctx context.Context, phoneNumber, phoneID, messageText string) error
}

// Config holds the immutable values a client is built from.
type Config struct {
	APIToken    string
	APIEndpoint string
	AccountID   string
	// PhoneID is the account-level default phone, overridable per message.
	PhoneID     string
}

// APIClient is a resty-backed implementation of Client. It is safe for
// concurrent use.
type APIClient struct {
	httpClient *resty.Client
	baseURL    string
	apiToken   string
	accountID  string
	phoneID    string
	logger     *zap.Logger
}

// apiResponse is the envelope ChatGuru answers with.
type apiResponse struct {
	Code        int    `json:"code"`
	Result      string `json:"result"`
	Description string `json:"description"`
}

// NewClient builds a ChatGuru API client. No I/O happens here.
func NewClient(cfg Config, logger *zap.Logger) *APIClient {
	if logger == nil {
		logger = zap.NewNop()
	}

	endpoint := cfg.APIEndpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	phoneID := cfg.PhoneID
	if phoneID == "" {
		phoneID = DefaultPhoneID
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{
		Timeout:   connectTimeout,
		KeepAlive: 30 * time.Second,
	}).DialContext

	restyClient := resty.NewWithClient(&http.Client{
		Transport: transport,
		Timeout:   requestTimeout,
	})
	restyClient.SetTimeout(requestTimeout)

	logger.Info("chatguru client configured",
		zap.Duration("timeout", requestTimeout),
		zap.Duration("connect_timeout", connectTimeout))

	return &APIClient{
		httpClient: restyClient,
		baseURL:    apiBaseURL(endpoint),
		apiToken:   cfg.APIToken,
		accountID:  cfg.AccountID,
		phoneID:    phoneID,
		logger:     logger,
	}
}

// AddAnnotation attaches a note to the chat of phoneNumber. chatID is only
// used for logging; the API locates the chat by number.
func (c *APIClient) AddAnnotation(ctx context.Context, chatID, phoneNumber, noteText string) error {
	requestURL := c.buildURL(c.phoneID, actionNoteAdd, "note_text", noteText, phoneNumber)

	c.logger.Info("adding annotation",
		zap.String("chat_id", chatID),
		zap.String("note_text", noteText))

	desc, err := c.post(ctx, requestURL, "add annotation")
	if err != nil {
		c.logRejection(err, "annotation", phoneNumber)
		return err
	}

	c.logger.Info("annotation added",
		zap.String("chat_id", chatID),
		zap.String("response", desc))
	return nil
}

// SendConfirmationMessage sends messageText to phoneNumber. An empty phoneID
// falls back to the account default. The API only delivers to numbers with
// an existing chat.
func (c *APIClient) SendConfirmationMessage(ctx context.Context, phoneNumber, phoneID, messageText string) error {
	if phoneID == "" {
		phoneID = c.phoneID
	}
	requestURL := c.buildURL(phoneID, actionMessageSend, "text", messageText, phoneNumber)

	c.logger.Info("sending confirmation message",
		zap.String("phone", phoneNumber),
		zap.String("text", messageText))

	desc, err := c.post(ctx, requestURL, "send message")
	if err != nil {
		c.logRejection(err, "message", phoneNumber)
		return err
	}

	c.logger.Info("confirmation message sent",
		zap.String("phone", phoneNumber),
		zap.String("response", desc))
	return nil
}

// buildURL keeps the parameter order stable; url.Values would sort them and
// encode spaces as '+'.
func (c *APIClient) buildURL(phoneID, action, textParam, text, phoneNumber string) string {
	params := [][2]string{
		{"key", c.apiToken},
		{"account_id", c.accountID},
		{"phone_id", phoneID},
		{"action", action},
		{textParam, text},
		{"chat_number", digitsOnly(phoneNumber)},
	}

	var b strings.Builder
	b.WriteString(c.baseURL)
	for i, p := range params {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(p[0])
		b.WriteByte('=')
		b.WriteString(encodeComponent(p[1]))
	}
	return b.String()
}

func (c *APIClient) post(ctx context.Context, requestURL, op string) (string, error) {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		Post(requestURL)
	if err != nil {
		return "", NewNetworkError(fmt.Sprintf("failed to %s", op), err)
	}

	body := resp.Body()
	if !resp.IsSuccess() {
		return "", NewAPIError(resp.StatusCode(), rejectionMessage(body))
	}

	if len(body) == 0 || !isJSONContent(resp.Header().Get("Content-Type")) {
		return string(body), nil
	}

	var envelope apiResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", NewSerializationError(fmt.Sprintf("decode %s response", op), err)
	}
	if envelope.Description != "" {
		return envelope.Description, nil
	}
	return string(body), nil
}

func (c *APIClient) logRejection(err error, what, phoneNumber string) {
	if IsChatNotFound(err) {
		c.logger.Warn("chat not found, inactive chats are expected",
			zap.String("operation", what),
			zap.String("phone", phoneNumber))
		return
	}
	c.logger.Error("chatguru request failed",
		zap.String("operation", what),
		zap.String("phone", phoneNumber),
		zap.Error(err))
}

func rejectionMessage(body []byte) string {
	var envelope apiResponse
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Description != "" {
		return envelope.Description
	}
	return strings.TrimSpace(string(body))
}

func isJSONContent(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "json")
}

func apiBaseURL(endpoint string) string {
	switch {
	case strings.HasSuffix(endpoint, apiPathSuffix):
		return endpoint
	case strings.HasSuffix(endpoint, "/"):
		return endpoint + strings.TrimPrefix(apiPathSuffix, "/")
	default:
		return endpoint + apiPathSuffix
	}
}

func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// encodeComponent escapes everything outside the RFC 3986 unreserved set.
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
