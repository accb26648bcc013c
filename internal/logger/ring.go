package logger

import (
	"sync"
	"time"

	"github.com/op/go-logging"
)

type record struct {
	at    time.Time
	level logging.Level
	msg   string
}

func (r record) String() string {
	return r.at.Format(timeFormat) + " " + r.level.String() + " - " + r.msg
}

// ring keeps the last len(buf) records; next is the slot the following
// record overwrites.
type ring struct {
	mu   sync.Mutex
	buf  []record
	next int
	full bool
	now  func() time.Time
}

func newRing(size int) *ring {
	return &ring{buf: make([]record, size), now: time.Now}
}

func (r *ring) add(level logging.Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf[r.next] = record{at: r.now(), level: level, msg: msg}
	r.next = (r.next + 1) % len(r.buf)
	if r.next == 0 {
		r.full = true
	}
}

// tail walks backwards from the newest record. go-logging orders levels
// from CRITICAL (0) to DEBUG, so "at least threshold" is level <= threshold.
func (r *ring) tail(count int, threshold logging.Level) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := r.next
	if r.full {
		stored = len(r.buf)
	}
	var out []string
	for i := 0; i < stored && len(out) < count; i++ {
		rec := r.buf[(r.next-1-i+len(r.buf))%len(r.buf)]
		if rec.level <= threshold {
			out = append(out, rec.String())
		}
	}
	if out == nil {
		out = []string{}
	}
	return out
}
