package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/printdesk/printdesk/internal/core"
)

func TestSignIsStableAndKeyed(t *testing.T) {
	body := []byte(`{"event":"request_admitted"}`)
	a := Sign("secret", body)
	b := Sign("secret", body)
	if a != b {
		t.Fatalf("signature not deterministic: %s vs %s", a, b)
	}
	if Sign("other", body) == a {
		t.Fatalf("signature ignores the key")
	}

	mac := hmac.New(sha256.New, []byte("secret"))
	mac.Write(body)
	if a != hex.EncodeToString(mac.Sum(nil)) {
		t.Fatalf("signature is not hex hmac-sha256")
	}
}

func TestSendQueueEventDelivers(t *testing.T) {
	var mu sync.Mutex
	var gotBody []byte
	var gotSig string
	received := make(chan struct{}, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		gotBody, _ = io.ReadAll(r.Body)
		gotSig = r.Header.Get("X-Printdesk-Signature")
		received <- struct{}{}
	}))
	defer srv.Close()

	s := NewSender([]string{srv.URL}, "secret")
	if err := s.SendQueueEvent("request_admitted", 7, core.StatePending, 30); err != nil {
		t.Fatalf("send: %v", err)
	}

	select {
	case <-received:
	case <-time.After(5 * time.Second):
		t.Fatalf("delivery never arrived")
	}

	mu.Lock()
	defer mu.Unlock()
	var payload Payload
	if err := json.Unmarshal(gotBody, &payload); err != nil {
		t.Fatalf("payload not json: %v", err)
	}
	if payload.Event != "request_admitted" {
		t.Fatalf("wrong event: %s", payload.Event)
	}
	if gotSig != Sign("secret", gotBody) {
		t.Fatalf("signature mismatch")
	}
}

func TestNoURLsIsANoop(t *testing.T) {
	s := NewSender(nil, "")
	if err := s.SendQueueEvent("request_admitted", 1, core.StatePending, 5); err != nil {
		t.Fatalf("noop send errored: %v", err)
	}
}
