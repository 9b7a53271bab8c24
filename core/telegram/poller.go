package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"
)

const (
	RunModeWebhook  = "webhook"
	RunModeLongpoll = "longpoll"
)

// BuildLongPoller returns the poller used in long-poll mode. Webhook mode
// does not use a telebot poller: updates arrive through the HTTP server
// and are fed into the bot via ProcessUpdate.
func BuildLongPoller(timeoutSeconds int) tele.Poller {
	if timeoutSeconds <= 0 {
		timeoutSeconds = 10
	}
	return &tele.LongPoller{Timeout: time.Duration(timeoutSeconds) * time.Second}
}

// RegisterWebhook points Telegram at the public webhook URL.
func RegisterWebhook(token, publicURL string) error {
	if strings.TrimSpace(publicURL) == "" {
		return fmt.Errorf("empty webhook url")
	}
	body := url.Values{"url": {publicURL}}.Encode()
	return botAPICall(token, "setWebhook", body)
}

// DeleteWebhook removes a previously registered webhook so long polling
// can take over.
func DeleteWebhook(token string, dropPending bool) error {
	body := "drop_pending_updates=false"
	if dropPending {
		body = "drop_pending_updates=true"
	}
	return botAPICall(token, "deleteWebhook", body)
}

func botAPICall(token, method, form string) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("empty token")
	}
	endpoint := fmt.Sprintf("https://api.telegram.org/bot%s/%s", token, method)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s status: %s", method, resp.Status)
	}
	return nil
}
