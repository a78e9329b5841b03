package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"emprendyup-catalog/internal/config"
)

const (
	iconError   = "❌"
	iconSuccess = "✅"

	telegramBaseURL = "https://api.telegram.org"
	telegramTimeout = 10 * time.Second
)

type telegramRequest struct {
	ChatId string `json:"chat_id"`
	Text   string `json:"text"`
}

type telegramNotifier struct {
	baseURL    string
	creds      config.TelegramBotConfig
	httpClient *http.Client
}

func newTelegramNotifier(cfg config.TelegramBotConfig, httpClient *http.Client) *telegramNotifier {
	if strings.TrimSpace(cfg.ChatId) == "" || strings.TrimSpace(cfg.Token) == "" {
		return nil
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: telegramTimeout}
	}
	return &telegramNotifier{
		baseURL:    telegramBaseURL,
		creds:      cfg,
		httpClient: httpClient,
	}
}

func formatMessage(icon, level, value string) string {
	return fmt.Sprintf("%s %s: %s", icon, level, clean(value))
}

func (t *telegramNotifier) Notify(value string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", strings.TrimRight(t.baseURL, "/"), t.creds.Token)

	bodyBytes, err := json.Marshal(telegramRequest{
		ChatId: t.creds.ChatId,
		Text:   value,
	})
	if err != nil {
		return err
	}

	resp, err := t.httpClient.Post(url, "application/json", bytes.NewReader(bodyBytes))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram send failed: %s: %s", resp.Status, strings.TrimSpace(string(respBody)))
	}
	return nil
}
