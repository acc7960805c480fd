package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/01moynul/taptosell-settlement/internal/models"
)

const telegramAPI = "https://api.telegram.org"

// Telegram sends seller alerts through the Bot API. Outgoing messages share
// one limiter because the API throttles per bot.
type Telegram struct {
	baseURL string
	token   string
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

func NewTelegram(token string, perSecond float64, logger *zap.Logger) *Telegram {
	return newTelegram(telegramAPI, token, perSecond, logger)
}

func newTelegram(baseURL, token string, perSecond float64, logger *zap.Logger) *Telegram {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Telegram{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
		logger:  logger,
	}
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (t *Telegram) SendOrderAlert(ctx context.Context, chatID string, alert models.OrderAlert) bool {
	if t.token == "" || chatID == "" {
		return false
	}
	if err := t.limiter.Wait(ctx); err != nil {
		t.logger.Warn("Telegram alert dropped by limiter", zap.String("order_number", alert.OrderNumber), zap.Error(err))
		return false
	}
	if err := t.send(ctx, chatID, formatAlert(alert)); err != nil {
		t.logger.Warn("Failed to send Telegram alert", zap.String("order_number", alert.OrderNumber), zap.Error(err))
		return false
	}
	return true
}

func (t *Telegram) send(ctx context.Context, chatID, text string) error {
	body, err := json.Marshal(sendMessageRequest{ChatID: chatID, Text: text, ParseMode: "HTML"})
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var out sendMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("telegram returned %d: %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || !out.OK {
		return fmt.Errorf("telegram returned %d: %s", resp.StatusCode, out.Description)
	}
	return nil
}

func formatAlert(a models.OrderAlert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>Order %s</b>\n", html.EscapeString(a.OrderNumber))
	fmt.Fprintf(&b, "Status: %s\n", html.EscapeString(humanStatus(string(a.Status))))
	if a.Explanation != "" {
		fmt.Fprintf(&b, "Reason: %s\n", html.EscapeString(a.Explanation))
	}
	fmt.Fprintf(&b, "Total: %s %s\n", html.EscapeString(a.TotalAmount), html.EscapeString(a.Currency))
	if a.City != "" {
		fmt.Fprintf(&b, "City: %s\n", html.EscapeString(a.City))
	}
	return strings.TrimSuffix(b.String(), "\n")
}
