package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

const telegramAPIBase = "https://api.telegram.org"

// Client talks to the Telegram Bot API. It implements both the notifier's
// outbound side and the command center's reply channel.
type Client struct {
	token   string
	baseURL string
	http    *http.Client
}

// NewClient builds a Telegram client. The timeout bounds a single API call.
func NewClient(token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 35 * time.Second
	}
	return &Client{
		token:   token,
		baseURL: telegramAPIBase,
		http:    &http.Client{Timeout: timeout},
	}
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

// Send delivers an HTML-formatted message to a chat.
func (c *Client) Send(ctx context.Context, destination, text string) error {
	payload := map[string]any{
		"chat_id":    destination,
		"text":       text,
		"parse_mode": "HTML",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return apperrors.NewDeliveryError("encode message", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return apperrors.NewDeliveryError("build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return apperrors.NewDeliveryError("send message", err)
	}
	defer resp.Body.Close()

	var parsed apiResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&parsed); err != nil {
		return apperrors.NewDeliveryError("decode response", err)
	}
	if !parsed.OK {
		return apperrors.NewDeliveryError(fmt.Sprintf("telegram: %s", parsed.Description), nil)
	}
	return nil
}

// Update is one entry from getUpdates or a webhook push.
type Update struct {
	UpdateID int64            `json:"update_id"`
	Message  *IncomingMessage `json:"message"`
}

// IncomingMessage is the subset of a Telegram message the bot reads.
type IncomingMessage struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text"`
}

// User identifies the message author.
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
}

// Chat identifies the conversation.
type Chat struct {
	ID int64 `json:"id"`
}

// GetUpdates long-polls for new updates past the given offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	params := url.Values{}
	params.Set("offset", strconv.FormatInt(offset, 10))
	params.Set("timeout", strconv.Itoa(int(timeout.Seconds())))
	params.Set("allowed_updates", `["message"]`)

	endpoint := fmt.Sprintf("%s/bot%s/getUpdates?%s", c.baseURL, c.token, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperrors.NewDeliveryError("build request", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperrors.NewDeliveryError("poll updates", err)
	}
	defer resp.Body.Close()

	var parsed apiResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 8<<20)).Decode(&parsed); err != nil {
		return nil, apperrors.NewDeliveryError("decode response", err)
	}
	if !parsed.OK {
		return nil, apperrors.NewDeliveryError(fmt.Sprintf("telegram: %s", parsed.Description), nil)
	}

	var updates []Update
	if err := json.Unmarshal(parsed.Result, &updates); err != nil {
		return nil, apperrors.NewDeliveryError("decode updates", err)
	}
	return updates, nil
}

// SetWebhook registers a webhook URL, replacing long polling.
func (c *Client) SetWebhook(ctx context.Context, webhookURL string) error {
	payload := map[string]any{"url": webhookURL}
	body, err := json.Marshal(payload)
	if err != nil {
		return apperrors.NewDeliveryError("encode webhook", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/setWebhook", c.baseURL, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return apperrors.NewDeliveryError("build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return apperrors.NewDeliveryError("set webhook", err)
	}
	defer resp.Body.Close()

	var parsed apiResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&parsed); err != nil {
		return apperrors.NewDeliveryError("decode response", err)
	}
	if !parsed.OK {
		return apperrors.NewDeliveryError(fmt.Sprintf("telegram: %s", parsed.Description), nil)
	}
	return nil
}
