package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultTelegramAPIURL = "https://api.telegram.org"

// TelegramConfig holds the bot credentials and target chat
type TelegramConfig struct {
	Enabled    bool
	BotToken   string
	ChatID     string
	APIURL     string
	ParseMode  string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// TelegramNotifier posts formatted events to one Telegram chat
type TelegramNotifier struct {
	apiURL    string
	token     string
	chatID    string
	parseMode string
	enabled   bool
	formatter *Formatter
	client    *http.Client
}

func NewTelegramNotifier(cfg TelegramConfig, formatter *Formatter) *TelegramNotifier {
	apiURL := strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/")
	if apiURL == "" {
		apiURL = DefaultTelegramAPIURL
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}

	token := strings.TrimSpace(cfg.BotToken)
	chatID := strings.TrimSpace(cfg.ChatID)

	return &TelegramNotifier{
		apiURL:    apiURL,
		token:     token,
		chatID:    chatID,
		parseMode: strings.TrimSpace(cfg.ParseMode),
		enabled:   cfg.Enabled && token != "" && chatID != "" && formatter != nil,
		formatter: formatter,
		client:    client,
	}
}

func (n *TelegramNotifier) Name() string {
	return "telegram"
}

func (n *TelegramNotifier) Enabled() bool {
	return n.enabled
}

// Ping calls getMe to verify the bot token
func (n *TelegramNotifier) Ping(ctx context.Context) error {
	if n.token == "" {
		return errors.New("telegram bot token not configured")
	}
	var me telegramUser
	return n.call(ctx, http.MethodGet, "getMe", nil, &me)
}

func (n *TelegramNotifier) Notify(ctx context.Context, event Event) *NotifyResult {
	start := time.Now()
	result := &NotifyResult{Service: n.Name()}

	if !n.enabled {
		result.Success = true
		result.Duration = time.Since(start)
		return result
	}

	text, err := n.formatter.Format(event)
	if err == nil {
		result.MessageID, err = n.SendMessage(ctx, text)
	}

	result.Success = err == nil
	result.Error = err
	result.Duration = time.Since(start)
	return result
}

// SendMessage posts text to the configured chat and returns the message id
func (n *TelegramNotifier) SendMessage(ctx context.Context, text string) (int64, error) {
	if n.token == "" || n.chatID == "" {
		return 0, errors.New("telegram bot token and chat id are required")
	}

	payload := map[string]any{
		"chat_id": n.chatID,
		"text":    text,
	}
	if n.parseMode != "" {
		payload["parse_mode"] = n.parseMode
	}

	var msg telegramMessage
	if err := n.call(ctx, http.MethodPost, "sendMessage", payload, &msg); err != nil {
		return 0, err
	}
	return msg.MessageID, nil
}

// Chat is a conversation the bot has received messages from
type Chat struct {
	ID       int64  `json:"id"`
	Type     string `json:"type"`
	Title    string `json:"title,omitempty"`
	Username string `json:"username,omitempty"`
}

// Name returns the best human label for the chat
func (c Chat) Name() string {
	switch {
	case c.Title != "":
		return c.Title
	case c.Username != "":
		return "@" + c.Username
	default:
		return fmt.Sprintf("%d", c.ID)
	}
}

// Updates lists the distinct chats found in the bot's pending updates, which
// is how a chat id is discovered after messaging the bot.
func (n *TelegramNotifier) Updates(ctx context.Context) ([]Chat, error) {
	if n.token == "" {
		return nil, errors.New("telegram bot token not configured")
	}

	var updates []telegramUpdate
	if err := n.call(ctx, http.MethodGet, "getUpdates", nil, &updates); err != nil {
		return nil, err
	}

	seen := make(map[int64]bool)
	var chats []Chat
	for _, u := range updates {
		msg := u.Message
		if msg == nil {
			msg = u.ChannelPost
		}
		if msg == nil || seen[msg.Chat.ID] {
			continue
		}
		seen[msg.Chat.ID] = true
		chats = append(chats, msg.Chat)
	}
	return chats, nil
}

type telegramResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
	ErrorCode   int             `json:"error_code"`
}

type telegramUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type telegramMessage struct {
	MessageID int64 `json:"message_id"`
	Chat      Chat  `json:"chat"`
}

type telegramUpdate struct {
	UpdateID    int64            `json:"update_id"`
	Message     *telegramMessage `json:"message"`
	ChannelPost *telegramMessage `json:"channel_post"`
}

func (n *TelegramNotifier) call(ctx context.Context, method, endpoint string, payload any, result any) error {
	// the token is part of the path; keep it out of error strings
	fullURL := n.apiURL + "/bot" + url.PathEscape(n.token) + "/" + endpoint

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encoding %s payload: %w", endpoint, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return fmt.Errorf("creating %s request: %w", endpoint, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := n.client.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return fmt.Errorf("telegram %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	var envelope telegramResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&envelope); err != nil {
		return fmt.Errorf("telegram %s: status %d: decoding response: %w", endpoint, resp.StatusCode, err)
	}
	if !envelope.OK {
		return fmt.Errorf("telegram %s failed (code %d): %s", endpoint, envelope.ErrorCode, envelope.Description)
	}

	if result != nil && len(envelope.Result) > 0 {
		if err := json.Unmarshal(envelope.Result, result); err != nil {
			return fmt.Errorf("telegram %s: decoding result: %w", endpoint, err)
		}
	}
	return nil
}
