package core

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// Real-time event names, matching what the browser pages listen for.
const (
	EventSession        = "session"
	EventUpdateQueue    = "updateQueue"
	EventPrintInitiated = "printInitiated"
	EventStartPrint     = "startPrint"
	EventPrintCompleted = "printCompleted"
	EventPrinterInfo    = "printerInfo"
	EventRegistered     = "registered"
)

// Notifier delivers engine events to connected sessions. Implementations must
// not block: the engine emits after releasing its lock but on the caller's
// goroutine.
type Notifier interface {
	Broadcast(event string, payload interface{})
	Send(sessionID string, event string, payload interface{}) bool
}

// HistoryRecorder persists lifecycle events for the audit trail.
type HistoryRecorder interface {
	RecordEvent(event string, queueNumber int64, totalCost int64, detail string)
}

// WebhookSender pushes lifecycle events to external subscribers.
type WebhookSender interface {
	SendQueueEvent(event string, queueNumber int64, state RequestState, totalCost int64) error
}

type Options struct {
	Rates RateTable
	// RequireConfirmation gates print triggering on an explicit payment
	// confirmation. Off by default: some deployments print first and settle
	// at the counter.
	RequireConfirmation bool
	// NotifyOwnerOnly targets completion events at the owning session when it
	// can be resolved, falling back to a broadcast otherwise.
	NotifyOwnerOnly bool
}

// Engine is the only component allowed to mutate the queue store and the
// session registry. Every intent is serialized through one mutex; outbound
// notifications and collaborator hooks run after the mutation completes.
type Engine struct {
	mu       sync.Mutex
	store    *Store
	sessions *Registry
	pricer   *Pricer
	profile  MerchantProfile

	requireConfirmation bool
	notifyOwnerOnly     bool

	notifier Notifier
	history  HistoryRecorder
	webhooks WebhookSender

	now func() time.Time
}

func NewEngine(opts Options) *Engine {
	return &Engine{
		store:               NewStore(),
		sessions:            NewRegistry(),
		pricer:              NewPricer(opts.Rates),
		requireConfirmation: opts.RequireConfirmation,
		notifyOwnerOnly:     opts.NotifyOwnerOnly,
		now:                 time.Now,
	}
}

// SetNotifier attaches the real-time transport. Must be called before any
// session connects; the engine tolerates a nil notifier for headless use.
func (e *Engine) SetNotifier(n Notifier) {
	e.mu.Lock()
	e.notifier = n
	e.mu.Unlock()
}

func (e *Engine) SetHistoryRecorder(h HistoryRecorder) {
	e.mu.Lock()
	e.history = h
	e.mu.Unlock()
}

func (e *Engine) SetWebhookSender(w WebhookSender) {
	e.mu.Lock()
	e.webhooks = w
	e.mu.Unlock()
}

func (e *Engine) SetProfile(p MerchantProfile) {
	e.mu.Lock()
	e.profile = p
	e.mu.Unlock()
}

func (e *Engine) Profile() MerchantProfile {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.profile
}

// Admit creates a new print request from uploaded files and settings, assigns
// the next queue number and broadcasts the updated queue. Nothing is emitted
// if any validation or pricing step fails.
func (e *Engine) Admit(files []PrintFile, settings PrinterSettings, pageCounts []int, ownerSessionID string) (PrintRequest, error) {
	if len(files) == 0 {
		return PrintRequest{}, ErrNoFiles
	}
	if len(pageCounts) != len(files) {
		return PrintRequest{}, fmt.Errorf("%w: got %d page counts for %d files", ErrInvalidConfiguration, len(pageCounts), len(files))
	}

	e.mu.Lock()
	if e.profile.PayoutID == "" {
		e.mu.Unlock()
		return PrintRequest{}, ErrMerchantNotConfigured
	}

	cost, err := e.pricer.ComputeCost(pageCounts, settings.Copies, settings.ColorMode)
	if err != nil {
		e.mu.Unlock()
		return PrintRequest{}, err
	}

	createdAt := e.now()
	queueNumber := e.store.PeekNext()
	descriptor, err := BuildPaymentDescriptor(
		Payee{Name: e.profile.ShopName, PayoutID: e.profile.PayoutID},
		cost,
		TransactionTag(createdAt, queueNumber),
	)
	if err != nil {
		e.mu.Unlock()
		return PrintRequest{}, err
	}

	req := &PrintRequest{
		QueueNumber:       e.store.NextNumber(),
		Files:             files,
		PrinterSettings:   settings,
		TotalCost:         cost,
		PaymentConfirmed:  false,
		PaymentDescriptor: descriptor,
		OwnerSessionID:    ownerSessionID,
		State:             StatePending,
		CreatedAt:         createdAt,
	}
	e.store.Add(req)

	admitted := *req
	snapshot := e.store.Snapshot()
	notifier, history, webhooks := e.notifier, e.history, e.webhooks
	e.mu.Unlock()

	if notifier != nil {
		notifier.Broadcast(EventUpdateQueue, snapshot)
	}
	if history != nil {
		history.RecordEvent("admitted", admitted.QueueNumber, cost, describeFiles(files))
	}
	if webhooks != nil {
		webhooks.SendQueueEvent("request_admitted", admitted.QueueNumber, StatePending, cost)
	}

	return admitted, nil
}

// Connect registers a freshly attached session and resynchronizes its view.
func (e *Engine) Connect(sessionID string) {
	e.mu.Lock()
	e.sessions.Register(sessionID)
	snapshot := e.store.Snapshot()
	notifier := e.notifier
	e.mu.Unlock()

	if notifier != nil {
		notifier.Send(sessionID, EventSession, map[string]string{"sessionId": sessionID})
		notifier.Send(sessionID, EventUpdateQueue, snapshot)
	}
}

// RegisterMerchant promotes the session to the merchant console. The last
// registration wins; a previous merchant session is demoted to a client.
func (e *Engine) RegisterMerchant(sessionID string) error {
	e.mu.Lock()
	previous, ok := e.sessions.PromoteToMerchant(sessionID)
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("unknown session %s", sessionID)
	}
	snapshot := e.store.Snapshot()
	notifier := e.notifier
	e.mu.Unlock()

	if previous != "" && previous != sessionID {
		log.Printf("merchant session replaced: %s -> %s", previous, sessionID)
	}
	if notifier != nil {
		notifier.Send(sessionID, EventRegistered, map[string]string{"sessionId": sessionID})
		notifier.Send(sessionID, EventUpdateQueue, snapshot)
	}
	return nil
}

// RegisterClient binds a logical client id to the session for targeted
// completion delivery across reconnects.
func (e *Engine) RegisterClient(sessionID, clientID string) {
	e.mu.Lock()
	e.sessions.BindClient(sessionID, clientID)
	e.mu.Unlock()
}

// ConfirmPayment marks the request paid. Confirmation is idempotent: a second
// call on the same queue number succeeds without changing anything.
func (e *Engine) ConfirmPayment(queueNumber int64) error {
	e.mu.Lock()
	req, ok := e.store.Get(queueNumber)
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrRequestNotFound, queueNumber)
	}

	changed := false
	if !req.PaymentConfirmed {
		req.PaymentConfirmed = true
		changed = true
	}
	if req.State == StatePending {
		req.State = StateConfirmed
		changed = true
	}
	cost := req.TotalCost
	snapshot := e.store.Snapshot()
	notifier, history, webhooks := e.notifier, e.history, e.webhooks
	e.mu.Unlock()

	if notifier != nil {
		notifier.Broadcast(EventUpdateQueue, snapshot)
	}
	if changed {
		if history != nil {
			history.RecordEvent("payment_confirmed", queueNumber, cost, "")
		}
		if webhooks != nil {
			webhooks.SendQueueEvent("payment_confirmed", queueNumber, StateConfirmed, cost)
		}
	}
	return nil
}

// TriggerPrint moves the request to the printing state and hands the dispatch
// descriptor to the merchant session (broadcast if none is registered).
func (e *Engine) TriggerPrint(queueNumber int64) (DispatchDescriptor, error) {
	e.mu.Lock()
	req, ok := e.store.Get(queueNumber)
	if !ok {
		e.mu.Unlock()
		return DispatchDescriptor{}, fmt.Errorf("%w: %d", ErrRequestNotFound, queueNumber)
	}
	if e.requireConfirmation && !req.PaymentConfirmed {
		e.mu.Unlock()
		return DispatchDescriptor{}, fmt.Errorf("%w: request %d", ErrPaymentNotConfirmed, queueNumber)
	}

	req.State = StatePrinting
	descriptor := DispatchDescriptor{
		QueueNumber:     req.QueueNumber,
		Files:           req.Files,
		PrinterSettings: req.PrinterSettings,
	}
	cost := req.TotalCost
	merchantID, hasMerchant := e.sessions.MerchantID()
	snapshot := e.store.Snapshot()
	notifier, history, webhooks := e.notifier, e.history, e.webhooks
	e.mu.Unlock()

	if notifier != nil {
		delivered := false
		if hasMerchant {
			delivered = notifier.Send(merchantID, EventStartPrint, descriptor)
		}
		if !delivered {
			notifier.Broadcast(EventStartPrint, descriptor)
		}
		notifier.Broadcast(EventPrintInitiated, map[string]int64{"queueNumber": queueNumber})
		notifier.Broadcast(EventUpdateQueue, snapshot)
	}
	if history != nil {
		history.RecordEvent("print_triggered", queueNumber, cost, "")
	}
	if webhooks != nil {
		webhooks.SendQueueEvent("print_triggered", queueNumber, StatePrinting, cost)
	}
	return descriptor, nil
}

// CompletePrint removes the request after the merchant-side executor reports
// success and notifies the owning client. A missing queue number is tolerated
// by callers as a warning: the job may already have been cancelled.
func (e *Engine) CompletePrint(queueNumber int64) error {
	return e.remove(queueNumber, true)
}

// Cancel removes the request before completion. Same not-found tolerance as
// CompletePrint.
func (e *Engine) Cancel(queueNumber int64) error {
	return e.remove(queueNumber, false)
}

func (e *Engine) remove(queueNumber int64, completed bool) error {
	e.mu.Lock()
	req, ok := e.store.Remove(queueNumber)
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrRequestNotFound, queueNumber)
	}

	ownerSession := ""
	ownerResolvable := false
	if completed && e.notifyOwnerOnly && req.OwnerSessionID != "" {
		ownerSession, ownerResolvable = e.sessions.Resolve(req.OwnerSessionID)
	}
	cost := req.TotalCost
	snapshot := e.store.Snapshot()
	notifier, history, webhooks := e.notifier, e.history, e.webhooks
	e.mu.Unlock()

	event, state := "cancelled", RequestState("cancelled")
	if completed {
		event, state = "completed", RequestState("completed")
	}

	if completed && notifier != nil {
		payload := map[string]int64{"queueNumber": queueNumber}
		switch {
		case ownerResolvable && notifier.Send(ownerSession, EventPrintCompleted, payload):
		case e.notifyOwnerOnly && req.OwnerSessionID != "":
			log.Printf("warning: owner session %s for queue %d not reachable, broadcasting completion", req.OwnerSessionID, queueNumber)
			notifier.Broadcast(EventPrintCompleted, payload)
		default:
			notifier.Broadcast(EventPrintCompleted, payload)
		}
	}
	if notifier != nil {
		notifier.Broadcast(EventUpdateQueue, snapshot)
	}
	if history != nil {
		history.RecordEvent(event, queueNumber, cost, "")
	}
	if webhooks != nil {
		webhooks.SendQueueEvent("request_"+event, queueNumber, state, cost)
	}
	return nil
}

// Disconnect drops the session from the registry, clearing the merchant
// pointer if it held it. No notification is emitted.
func (e *Engine) Disconnect(sessionID string) {
	e.mu.Lock()
	if merchantID, ok := e.sessions.MerchantID(); ok && merchantID == sessionID {
		log.Printf("merchant session %s disconnected", sessionID)
	}
	e.sessions.Remove(sessionID)
	e.mu.Unlock()
}

// Snapshot returns the current queue in admission order.
func (e *Engine) Snapshot() []PrintRequest {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Snapshot()
}

// Get returns a copy of one request.
func (e *Engine) Get(queueNumber int64) (PrintRequest, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if req, ok := e.store.Get(queueNumber); ok {
		return *req, true
	}
	return PrintRequest{}, false
}

func (e *Engine) Stats() QueueStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Stats()
}

func (e *Engine) SessionCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessions.Len()
}

func describeFiles(files []PrintFile) string {
	if len(files) == 1 {
		return files[0].OriginalName
	}
	return fmt.Sprintf("%s (+%d more)", files[0].OriginalName, len(files)-1)
}
