package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Toni1004/Derbit-JP-Test/internal/httputil"
)

// Sender posts worker alerts to an optional webhook. With no URL configured
// messages go to the log only.
type Sender struct {
	webhookURL string
	botName    string
	httpClient *httputil.Client
}

func NewSender(webhookURL, botName string) *Sender {
	if botName == "" {
		botName = "DeribitPriceWorker"
	}
	return &Sender{
		webhookURL: webhookURL,
		botName:    botName,
		httpClient: httputil.NewPooled(10 * time.Second),
	}
}

func (s *Sender) Send(msg string) {
	formatted := fmt.Sprintf("[%s] %s", s.botName, msg)
	logrus.WithField("component", "notifications").Info(formatted)

	if s.webhookURL == "" {
		return
	}

	body, err := json.Marshal(s.formatPayload(formatted))
	if err != nil {
		logrus.WithField("component", "notifications").Errorf("marshal: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		logrus.WithField("component", "notifications").Errorf("build request: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(ctx, req)
	if err != nil {
		logrus.WithField("component", "notifications").Errorf("send webhook: %v", err)
		return
	}
	resp.Body.Close()
}

func (s *Sender) formatPayload(msg string) map[string]string {
	if strings.Contains(s.webhookURL, "discord") {
		return map[string]string{
			"content":  msg,
			"username": s.botName,
		}
	}
	return map[string]string{
		"text":     fmt.Sprintf("`%s`", msg),
		"username": s.botName,
	}
}

func (s *Sender) Enabled() bool {
	return s.webhookURL != ""
}

// Close releases the sender's connection pool.
func (s *Sender) Close() {
	s.httpClient.Close()
}
