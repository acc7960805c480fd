package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/01moynul/taptosell-settlement/internal/models"
)

func TestTelegramSendOrderAlert(t *testing.T) {
	var got sendMessageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tg := newTelegram(srv.URL, "TOKEN", 100, nil)
	ok := tg.SendOrderAlert(context.Background(), "12345", models.OrderAlert{
		OrderNumber: "ORD-5",
		Status:      models.OrderStatusCancelled,
		Explanation: "out of <stock>",
		TotalAmount: "1200.00",
		Currency:    "MKD",
		City:        "Skopje",
	})

	assert.True(t, ok)
	assert.Equal(t, "12345", got.ChatID)
	assert.Equal(t, "HTML", got.ParseMode)
	assert.Contains(t, got.Text, "<b>Order ORD-5</b>")
	assert.Contains(t, got.Text, "Reason: out of &lt;stock&gt;")
	assert.Contains(t, got.Text, "City: Skopje")
}

func TestTelegramFailureReturnsFalse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"description":"chat not found"}`))
	}))
	defer srv.Close()

	tg := newTelegram(srv.URL, "TOKEN", 100, nil)
	assert.False(t, tg.SendOrderAlert(context.Background(), "1", models.OrderAlert{OrderNumber: "ORD-6"}))

	noToken := newTelegram(srv.URL, "", 100, nil)
	assert.False(t, noToken.SendOrderAlert(context.Background(), "1", models.OrderAlert{OrderNumber: "ORD-6"}))
}
