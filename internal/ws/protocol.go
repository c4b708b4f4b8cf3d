package ws

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Inbound intent names accepted from connected pages.
const (
	IntentRegisterMerchant = "registerMerchant"
	IntentRegisterClient   = "registerClient"
	IntentConfirmPayment   = "confirmPayment"
	IntentRemoveRequest    = "removeRequest"
	IntentPrintCompleted   = "printCompleted"
	IntentGetPrinters      = "getPrinters"
)

// Message is the wire envelope in both directions: an event name plus an
// event-specific payload.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type registerClientData struct {
	ClientID string `json:"clientId"`
}

type errorData struct {
	Error string `json:"error"`
}

// parseQueueNumber accepts the queue number as a bare JSON number or a string
// ("5" and 5 both arrive from the browser, depending on the page).
func parseQueueNumber(raw json.RawMessage) (int64, error) {
	if len(raw) == 0 {
		return 0, fmt.Errorf("missing queue number")
	}
	s := strings.TrimSpace(string(raw))
	s = strings.Trim(s, `"`)
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid queue number %q", s)
	}
	return n, nil
}
