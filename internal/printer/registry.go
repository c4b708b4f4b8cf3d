package printer

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"
)

const (
	StatusUnknown = "unknown"
	StatusOnline  = "online"
	StatusOffline = "offline"
)

type Printer struct {
	Name        string     `json:"name"`
	IP          string     `json:"ip,omitempty"`
	Port        int        `json:"port,omitempty"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	LastSeenAt  *time.Time `json:"lastSeenAt,omitempty"`
}

// Registry holds the merchant's printer list for the getPrinters pass-through.
// The list is replaced wholesale by the merchant console; reachability is
// probed in the background for printers that expose a raw TCP port.
type Registry struct {
	mu       sync.RWMutex
	printers []Printer
	timeout  time.Duration
}

func NewRegistry(seed []Printer, connectionTimeout time.Duration) *Registry {
	if connectionTimeout <= 0 {
		connectionTimeout = 5 * time.Second
	}
	r := &Registry{timeout: connectionTimeout}
	r.Replace(seed)
	return r
}

func (r *Registry) Replace(printers []Printer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.printers = make([]Printer, len(printers))
	for i, p := range printers {
		if p.Status == "" {
			p.Status = StatusUnknown
		}
		r.printers[i] = p
	}
}

func (r *Registry) List() []Printer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Printer, len(r.printers))
	copy(out, r.printers)
	return out
}

// StartProbing checks printer reachability on the given interval until the
// context is cancelled.
func (r *Registry) StartProbing(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.probeAll()
			}
		}
	}()
}

func (r *Registry) probeAll() {
	r.mu.RLock()
	targets := make([]Printer, len(r.printers))
	copy(targets, r.printers)
	timeout := r.timeout
	r.mu.RUnlock()

	now := time.Now()
	for i := range targets {
		if targets[i].IP == "" || targets[i].Port == 0 {
			continue
		}
		if probe(targets[i].IP, targets[i].Port, timeout) {
			targets[i].Status = StatusOnline
			seen := now
			targets[i].LastSeenAt = &seen
		} else {
			targets[i].Status = StatusOffline
		}
	}

	r.mu.Lock()
	for i := range r.printers {
		for _, probed := range targets {
			if probed.Name == r.printers[i].Name {
				r.printers[i].Status = probed.Status
				if probed.LastSeenAt != nil {
					r.printers[i].LastSeenAt = probed.LastSeenAt
				}
			}
		}
	}
	r.mu.Unlock()
}

func probe(ip string, port int, timeout time.Duration) bool {
	addr := fmt.Sprintf("%s:%d", ip, port)
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
