package printer

import (
	"net"
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestReplaceAndList(t *testing.T) {
	r := NewRegistry([]Printer{{Name: "Front Desk"}}, time.Second)

	list := r.List()
	if len(list) != 1 || list[0].Status != StatusUnknown {
		t.Fatalf("unexpected seed list: %+v", list)
	}

	r.Replace([]Printer{{Name: "A"}, {Name: "B", Status: StatusOnline}})
	list = r.List()
	if len(list) != 2 {
		t.Fatalf("expected 2 printers, got %d", len(list))
	}
	if list[0].Status != StatusUnknown || list[1].Status != StatusOnline {
		t.Fatalf("statuses wrong after replace: %+v", list)
	}
}

func TestListIsACopy(t *testing.T) {
	r := NewRegistry([]Printer{{Name: "X"}}, time.Second)
	list := r.List()
	list[0].Name = "mutated"
	if r.List()[0].Name != "X" {
		t.Fatalf("List leaked internal slice")
	}
}

func TestProbeMarksReachablePrinterOnline(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	parts := strings.Split(ln.Addr().String(), ":")
	port, _ := strconv.Atoi(parts[len(parts)-1])

	r := NewRegistry([]Printer{
		{Name: "Real", IP: "127.0.0.1", Port: port},
		{Name: "Ghost", IP: "127.0.0.1", Port: 1}, // nothing listens here
	}, 500*time.Millisecond)
	r.probeAll()

	list := r.List()
	if list[0].Status != StatusOnline || list[0].LastSeenAt == nil {
		t.Fatalf("reachable printer not marked online: %+v", list[0])
	}
	if list[1].Status != StatusOffline {
		t.Fatalf("unreachable printer not marked offline: %+v", list[1])
	}
}
