package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	sendURLFormat  = "https://fcm.googleapis.com/v1/projects/%s/messages:send"
	defaultTimeout = 10 * time.Second
)

// FCMConfig configures the Firebase Cloud Messaging client.
type FCMConfig struct {
	ProjectID string
	// SendURL overrides the endpoint derived from ProjectID.
	SendURL     string
	Credentials Credentials

	// ExpoUsername and ExpoSlug, when both set, add the experienceId and
	// scopeKey data keys Expo clients use to route notifications.
	ExpoUsername string
	ExpoSlug     string

	Timeout time.Duration
}

// FCM sends messages through the FCM HTTP v1 API.
type FCM struct {
	sendURL    string
	experience string
	tokens     *tokenSource
	client     *http.Client
}

type fcmRequest struct {
	Message fcmMessage `json:"message"`
}

type fcmMessage struct {
	Token        string            `json:"token"`
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type fcmError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
		Details []struct {
			ErrorCode string `json:"errorCode"`
		} `json:"details"`
	} `json:"error"`
}

// NewFCM creates an FCM client.
func NewFCM(cfg FCMConfig) (*FCM, error) {
	sendURL := cfg.SendURL
	if sendURL == "" {
		if cfg.ProjectID == "" {
			return nil, fmt.Errorf("FCM project ID or send URL is required")
		}
		sendURL = fmt.Sprintf(sendURLFormat, cfg.ProjectID)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := &http.Client{Timeout: timeout}

	tokens, err := newTokenSource(cfg.Credentials, client)
	if err != nil {
		return nil, err
	}

	f := &FCM{
		sendURL: sendURL,
		tokens:  tokens,
		client:  client,
	}
	if cfg.ExpoUsername != "" && cfg.ExpoSlug != "" {
		f.experience = "@" + cfg.ExpoUsername + "/" + cfg.ExpoSlug
	}
	return f, nil
}

// Send delivers msg to a single device and returns the FCM message name.
func (f *FCM) Send(ctx context.Context, token string, msg Message) (string, error) {
	accessToken, err := f.tokens.Token(ctx)
	if err != nil {
		return "", err
	}

	data := make(map[string]string, len(msg.Data)+2)
	if f.experience != "" {
		data["experienceId"] = f.experience
		data["scopeKey"] = f.experience
	}
	for k, v := range msg.Data {
		data[k] = v
	}

	body, err := json.Marshal(fcmRequest{Message: fcmMessage{
		Token:        token,
		Notification: fcmNotification{Title: msg.Title, Body: msg.Body},
		Data:         data,
	}})
	if err != nil {
		return "", fmt.Errorf("failed to encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.sendURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build send request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", decodeError(resp)
	}

	var result struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode send response: %w", err)
	}
	return result.Name, nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var fe fcmError
	if err := json.Unmarshal(raw, &fe); err != nil || fe.Error.Status == "" {
		return fmt.Errorf("fcm returned %d", resp.StatusCode)
	}

	for _, d := range fe.Error.Details {
		if d.ErrorCode == "UNREGISTERED" {
			return fmt.Errorf("fcm %s: %w", fe.Error.Status, ErrUnregistered)
		}
	}
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("fcm %s: %w", fe.Error.Status, ErrUnregistered)
	}
	return fmt.Errorf("fcm returned %d %s: %s", resp.StatusCode, fe.Error.Status, fe.Error.Message)
}
