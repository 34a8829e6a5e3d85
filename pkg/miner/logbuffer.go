package miner

import (
	"regexp"
	"sync"
	"time"
)

// logCapacity bounds each account's buffer; the oldest entry is evicted.
const logCapacity = 200

// Severity classifies a log entry for display coloring.
type Severity int

const (
	SeverityInfo Severity = iota
	SeveritySuccess
	SeverityWarn
	SeverityError
	SeverityBanner
)

// Entry is one timestamped log record.
type Entry struct {
	Time     time.Time
	Severity Severity

	// Plain is the stored record with markup spans stripped
	Plain string

	// Display keeps the original text for the live view
	Display string
}

// markupSpans matches {...} styling tags embedded in messages.
var markupSpans = regexp.MustCompile(`\{[^}]+\}`)

// LogBuffer is a bounded, append-only per-account event log. Every append
// invokes the notification hook so the display can refresh; the hook runs
// outside the buffer lock.
type LogBuffer struct {
	mu      sync.Mutex
	entries []Entry
	notify  func(Entry)
}

// NewLogBuffer creates an empty buffer. notify may be nil.
func NewLogBuffer(notify func(Entry)) *LogBuffer {
	return &LogBuffer{notify: notify}
}

// Append timestamps the message and pushes it, evicting the oldest entry
// once the buffer is full.
func (b *LogBuffer) Append(severity Severity, message string) {
	now := time.Now()
	entry := Entry{
		Time:     now,
		Severity: severity,
		Plain:    "[" + now.Format("15:04:05") + "] " + markupSpans.ReplaceAllString(message, ""),
		Display:  "[" + now.Format("15:04:05") + "] " + message,
	}

	b.mu.Lock()
	b.entries = append(b.entries, entry)
	if len(b.entries) > logCapacity {
		b.entries = b.entries[1:]
	}
	notify := b.notify
	b.mu.Unlock()

	if notify != nil {
		notify(entry)
	}
}

// Clear empties the buffer and appends the cleared marker.
func (b *LogBuffer) Clear() {
	b.mu.Lock()
	b.entries = nil
	b.mu.Unlock()

	b.Append(SeverityWarn, "Logs cleared")
}

// Entries returns a copy of the current records in arrival order.
func (b *LogBuffer) Entries() []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Entry(nil), b.entries...)
}

// Len returns the current number of records.
func (b *LogBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}
