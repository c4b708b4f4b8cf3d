package core

import (
	"errors"
	"sync"
	"testing"
)

type recordedEvent struct {
	Event   string
	Session string // empty for broadcasts
	Payload interface{}
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
	// sessions the notifier claims to be able to reach
	reachable map[string]bool
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{reachable: make(map[string]bool)}
}

func (f *fakeNotifier) Broadcast(event string, payload interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{Event: event, Payload: payload})
}

func (f *fakeNotifier) Send(sessionID string, event string, payload interface{}) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.reachable[sessionID] {
		return false
	}
	f.events = append(f.events, recordedEvent{Event: event, Session: sessionID, Payload: payload})
	return true
}

func (f *fakeNotifier) byEvent(event string) []recordedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []recordedEvent
	for _, e := range f.events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

func (f *fakeNotifier) reset() {
	f.mu.Lock()
	f.events = nil
	f.mu.Unlock()
}

func newEngineForTest(t *testing.T, opts Options) (*Engine, *fakeNotifier) {
	t.Helper()
	e := NewEngine(opts)
	n := newFakeNotifier()
	e.SetNotifier(n)
	e.SetProfile(MerchantProfile{ShopName: "Campus Prints", PayoutID: "shop@upi"})
	return e, n
}

func admitPDF(t *testing.T, e *Engine, pages, copies int, mode ColorMode, owner string) PrintRequest {
	t.Helper()
	req, err := e.Admit(
		[]PrintFile{{StorageRef: "http://localhost/uploads/a.pdf", OriginalName: "a.pdf"}},
		PrinterSettings{Printer: "Front Desk", ColorMode: mode, Copies: copies},
		[]int{pages},
		owner,
	)
	if err != nil {
		t.Fatalf("admit: %v", err)
	}
	return req
}

func TestAdmitBroadcastsSnapshot(t *testing.T) {
	e, n := newEngineForTest(t, Options{})
	req := admitPDF(t, e, 2, 3, ColorModeColor, "")

	if req.TotalCost != 30 {
		t.Fatalf("expected cost 30, got %d", req.TotalCost)
	}
	if req.State != StatePending || req.PaymentConfirmed {
		t.Fatalf("fresh request in wrong state: %s confirmed=%v", req.State, req.PaymentConfirmed)
	}

	snap := e.Snapshot()
	if len(snap) != 1 || snap[0].QueueNumber != req.QueueNumber {
		t.Fatalf("snapshot does not contain the admitted request: %+v", snap)
	}

	updates := n.byEvent(EventUpdateQueue)
	if len(updates) != 1 {
		t.Fatalf("expected 1 queue broadcast, got %d", len(updates))
	}
	payload, ok := updates[0].Payload.([]PrintRequest)
	if !ok || len(payload) != 1 {
		t.Fatalf("broadcast payload is not the snapshot: %#v", updates[0].Payload)
	}
}

func TestAdmitFailuresEmitNothing(t *testing.T) {
	e, n := newEngineForTest(t, Options{})

	_, err := e.Admit(nil, PrinterSettings{ColorMode: ColorModeColor, Copies: 1}, nil, "")
	if !errors.Is(err, ErrNoFiles) {
		t.Fatalf("expected ErrNoFiles, got %v", err)
	}

	files := []PrintFile{{StorageRef: "x", OriginalName: "x.pdf"}}
	_, err = e.Admit(files, PrinterSettings{ColorMode: ColorMode("bad"), Copies: 1}, []int{1}, "")
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
	}

	e.SetProfile(MerchantProfile{})
	_, err = e.Admit(files, PrinterSettings{ColorMode: ColorModeColor, Copies: 1}, []int{1}, "")
	if !errors.Is(err, ErrMerchantNotConfigured) {
		t.Fatalf("expected ErrMerchantNotConfigured, got %v", err)
	}

	if len(n.events) != 0 {
		t.Fatalf("failed admissions emitted %d events", len(n.events))
	}
	if len(e.Snapshot()) != 0 {
		t.Fatalf("failed admission left a request behind")
	}
}

func TestRapidAdmissionsAreOrdered(t *testing.T) {
	e, _ := newEngineForTest(t, Options{})
	first := admitPDF(t, e, 1, 1, ColorModeGrayscale, "")
	second := admitPDF(t, e, 1, 1, ColorModeGrayscale, "")

	if first.QueueNumber != 1 || second.QueueNumber != 2 {
		t.Fatalf("expected queue numbers 1 and 2, got %d and %d", first.QueueNumber, second.QueueNumber)
	}
	snap := e.Snapshot()
	if snap[0].QueueNumber != 1 || snap[1].QueueNumber != 2 {
		t.Fatalf("snapshot out of admission order: %+v", snap)
	}
}

func TestConfirmPaymentIdempotent(t *testing.T) {
	e, _ := newEngineForTest(t, Options{})
	req := admitPDF(t, e, 1, 1, ColorModeColor, "")

	if err := e.ConfirmPayment(req.QueueNumber); err != nil {
		t.Fatalf("first confirm: %v", err)
	}
	if err := e.ConfirmPayment(req.QueueNumber); err != nil {
		t.Fatalf("second confirm: %v", err)
	}

	got, ok := e.Get(req.QueueNumber)
	if !ok {
		t.Fatalf("request vanished")
	}
	if !got.PaymentConfirmed || got.State != StateConfirmed {
		t.Fatalf("unexpected state after double confirm: %s confirmed=%v", got.State, got.PaymentConfirmed)
	}
}

func TestConfirmPaymentUnknown(t *testing.T) {
	e, _ := newEngineForTest(t, Options{})
	if err := e.ConfirmPayment(99); !errors.Is(err, ErrRequestNotFound) {
		t.Fatalf("expected ErrRequestNotFound, got %v", err)
	}
}

func TestTriggerPrintDispatchesToMerchant(t *testing.T) {
	e, n := newEngineForTest(t, Options{})
	n.reachable["merchant"] = true
	e.Connect("merchant")
	if err := e.RegisterMerchant("merchant"); err != nil {
		t.Fatalf("register merchant: %v", err)
	}

	req := admitPDF(t, e, 2, 1, ColorModeColor, "")
	n.reset()

	desc, err := e.TriggerPrint(req.QueueNumber)
	if err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if desc.QueueNumber != req.QueueNumber {
		t.Fatalf("descriptor for wrong request: %d", desc.QueueNumber)
	}
	if len(desc.Files) != 1 || desc.Files[0].OriginalName != "a.pdf" {
		t.Fatalf("descriptor files mismatch: %+v", desc.Files)
	}
	if desc.PrinterSettings != req.PrinterSettings {
		t.Fatalf("descriptor settings mismatch: %+v vs %+v", desc.PrinterSettings, req.PrinterSettings)
	}

	starts := n.byEvent(EventStartPrint)
	if len(starts) != 1 || starts[0].Session != "merchant" {
		t.Fatalf("dispatch not targeted at merchant: %+v", starts)
	}

	got, _ := e.Get(req.QueueNumber)
	if got.State != StatePrinting {
		t.Fatalf("expected printing state, got %s", got.State)
	}
}

func TestTriggerPrintUnknownEmitsNothing(t *testing.T) {
	e, n := newEngineForTest(t, Options{})
	_, err := e.TriggerPrint(7)
	if !errors.Is(err, ErrRequestNotFound) {
		t.Fatalf("expected ErrRequestNotFound, got %v", err)
	}
	if len(n.byEvent(EventStartPrint)) != 0 {
		t.Fatalf("dispatch emitted for missing request")
	}
}

func TestTriggerPrintStrictMode(t *testing.T) {
	e, _ := newEngineForTest(t, Options{RequireConfirmation: true})
	req := admitPDF(t, e, 1, 1, ColorModeColor, "")

	if _, err := e.TriggerPrint(req.QueueNumber); !errors.Is(err, ErrPaymentNotConfirmed) {
		t.Fatalf("expected ErrPaymentNotConfirmed, got %v", err)
	}
	if err := e.ConfirmPayment(req.QueueNumber); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if _, err := e.TriggerPrint(req.QueueNumber); err != nil {
		t.Fatalf("trigger after confirm: %v", err)
	}
}

func TestCompletePrintTargetsOwner(t *testing.T) {
	e, n := newEngineForTest(t, Options{NotifyOwnerOnly: true})
	n.reachable["owner-session"] = true
	e.Connect("owner-session")

	req := admitPDF(t, e, 1, 1, ColorModeColor, "owner-session")
	n.reset()

	if err := e.CompletePrint(req.QueueNumber); err != nil {
		t.Fatalf("complete: %v", err)
	}

	completions := n.byEvent(EventPrintCompleted)
	if len(completions) != 1 || completions[0].Session != "owner-session" {
		t.Fatalf("completion not targeted at owner: %+v", completions)
	}
	if len(e.Snapshot()) != 0 {
		t.Fatalf("completed request still in queue")
	}
}

func TestCompletePrintBroadcastsWhenOwnerGone(t *testing.T) {
	e, n := newEngineForTest(t, Options{NotifyOwnerOnly: true})
	req := admitPDF(t, e, 1, 1, ColorModeColor, "gone-session")
	n.reset()

	if err := e.CompletePrint(req.QueueNumber); err != nil {
		t.Fatalf("complete: %v", err)
	}
	completions := n.byEvent(EventPrintCompleted)
	if len(completions) != 1 || completions[0].Session != "" {
		t.Fatalf("expected broadcast fallback, got %+v", completions)
	}
}

func TestRemoveMissingLeavesOthersUntouched(t *testing.T) {
	e, _ := newEngineForTest(t, Options{})
	keep := admitPDF(t, e, 1, 1, ColorModeColor, "")

	if err := e.Cancel(55); !errors.Is(err, ErrRequestNotFound) {
		t.Fatalf("expected ErrRequestNotFound, got %v", err)
	}
	if err := e.CompletePrint(55); !errors.Is(err, ErrRequestNotFound) {
		t.Fatalf("expected ErrRequestNotFound, got %v", err)
	}

	snap := e.Snapshot()
	if len(snap) != 1 || snap[0].QueueNumber != keep.QueueNumber || snap[0].State != StatePending {
		t.Fatalf("failed removal disturbed the store: %+v", snap)
	}
}

func TestMerchantDisconnectClearsPointer(t *testing.T) {
	e, n := newEngineForTest(t, Options{})
	n.reachable["m"] = true
	e.Connect("m")
	if err := e.RegisterMerchant("m"); err != nil {
		t.Fatalf("register: %v", err)
	}
	e.Disconnect("m")

	// With no merchant left, a trigger falls back to broadcasting the dispatch.
	req := admitPDF(t, e, 1, 1, ColorModeColor, "")
	n.reset()
	if _, err := e.TriggerPrint(req.QueueNumber); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	starts := n.byEvent(EventStartPrint)
	if len(starts) != 1 || starts[0].Session != "" {
		t.Fatalf("expected broadcast dispatch after merchant left, got %+v", starts)
	}
}

// Full walk-up flow: upload, confirm, print, complete.
func TestLifecycleScenario(t *testing.T) {
	e, n := newEngineForTest(t, Options{NotifyOwnerOnly: true})
	n.reachable["merchant"] = true
	n.reachable["client"] = true
	e.Connect("merchant")
	e.Connect("client")
	if err := e.RegisterMerchant("merchant"); err != nil {
		t.Fatalf("register merchant: %v", err)
	}

	req := admitPDF(t, e, 2, 3, ColorModeColor, "client")
	if req.TotalCost != 30 {
		t.Fatalf("expected cost 2*3*5=30, got %d", req.TotalCost)
	}

	if err := e.ConfirmPayment(req.QueueNumber); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	got, _ := e.Get(req.QueueNumber)
	if !got.PaymentConfirmed || got.State != StateConfirmed {
		t.Fatalf("after confirm: %s confirmed=%v", got.State, got.PaymentConfirmed)
	}

	desc, err := e.TriggerPrint(req.QueueNumber)
	if err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if len(desc.Files) != len(req.Files) || desc.PrinterSettings != req.PrinterSettings {
		t.Fatalf("dispatch descriptor drifted from the request")
	}
	got, _ = e.Get(req.QueueNumber)
	if got.State != StatePrinting {
		t.Fatalf("after trigger: %s", got.State)
	}

	if err := e.CompletePrint(req.QueueNumber); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if len(e.Snapshot()) != 0 {
		t.Fatalf("queue not empty after completion")
	}
	completions := n.byEvent(EventPrintCompleted)
	if len(completions) != 1 || completions[0].Session != "client" {
		t.Fatalf("completion not delivered to owner: %+v", completions)
	}
}
