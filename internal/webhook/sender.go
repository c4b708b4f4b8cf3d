package webhook

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/printdesk/printdesk/internal/core"
)

const (
	deliveryTimeout = 10 * time.Second
	maxAttempts     = 3
	retryDelay      = 5 * time.Second
)

type Payload struct {
	Event     string      `json:"event"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

type QueueEventData struct {
	QueueNumber int64             `json:"queue_number"`
	State       core.RequestState `json:"state"`
	TotalCost   int64             `json:"total_cost"`
}

// Sender delivers lifecycle events to the configured webhook URLs. Deliveries
// are asynchronous and retried; failures are logged and never propagate back
// into queue operations.
type Sender struct {
	urls   []string
	secret string
	client *http.Client
}

func NewSender(urls []string, secret string) *Sender {
	return &Sender{
		urls:   urls,
		secret: secret,
		client: &http.Client{Timeout: deliveryTimeout},
	}
}

func (s *Sender) SendQueueEvent(event string, queueNumber int64, state core.RequestState, totalCost int64) error {
	if len(s.urls) == 0 {
		return nil
	}

	payload := Payload{
		Event:     event,
		Timestamp: time.Now().UTC(),
		Data: QueueEventData{
			QueueNumber: queueNumber,
			State:       state,
			TotalCost:   totalCost,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	for _, url := range s.urls {
		go s.deliver(url, event, body)
	}
	return nil
}

func (s *Sender) deliver(url, event string, body []byte) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := s.post(url, body); err != nil {
			lastErr = err
			time.Sleep(retryDelay * time.Duration(attempt))
			continue
		}
		return
	}
	log.Printf("webhook: giving up on %s after %d attempts for %s: %v", url, maxAttempts, event, lastErr)
}

func (s *Sender) post(url string, body []byte) error {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.secret != "" {
		req.Header.Set("X-Printdesk-Signature", Sign(s.secret, body))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook endpoint returned %d", resp.StatusCode)
	}
	return nil
}

// Sign computes the hex HMAC-SHA256 of the payload body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
