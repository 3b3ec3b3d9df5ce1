// Package printer sends plain-text receipts to a network receipt
// printer over raw TCP. Printing is best-effort: every method returns
// whether the job was delivered, and callers treat false as a logged
// degradation, never an error.
package printer

import (
	"log/slog"
	"net"
	"time"
)

const (
	dialTimeout  = 5 * time.Second
	writeRetries = 3
)

// Printer talks to a line printer at a fixed address. An empty address
// disables printing.
type Printer struct {
	addr string
	log  *slog.Logger
}

func New(addr string, log *slog.Logger) *Printer {
	return &Printer{addr: addr, log: log}
}

func (p *Printer) print(kind, text string) bool {
	if p.addr == "" {
		return false
	}

	var lastErr error
	for attempt := 1; attempt <= writeRetries; attempt++ {
		conn, err := net.DialTimeout("tcp", p.addr, dialTimeout)
		if err != nil {
			lastErr = err
			continue
		}
		_, err = conn.Write([]byte(text))
		conn.Close()
		if err == nil {
			p.log.Info("receipt printed", "kind", kind)
			return true
		}
		lastErr = err
	}

	p.log.Warn("print failed", "kind", kind, "error", lastErr)
	return false
}
