package db

import (
	"context"
	"log"
	"time"
)

// Recorder adapts the history table to the engine's HistoryRecorder hook.
// Persistence failures are logged, never surfaced: the audit trail must not
// block queue operations.
type Recorder struct{}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) RecordEvent(event string, queueNumber int64, totalCost int64, detail string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := History.RecordEvent(ctx, queueNumber, event, totalCost, detail); err != nil {
		log.Printf("history: failed to record %s for queue %d: %v", event, queueNumber, err)
	}
}
