package miner

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogBuffer_AppendFormatsAndStripsMarkup(t *testing.T) {
	buf := NewLogBuffer(nil)
	buf.Append(SeverityInfo, "hello {green-fg}world{/green-fg}")

	entries := buf.Entries()
	require.Len(t, entries, 1)

	assert.True(t, strings.HasPrefix(entries[0].Plain, "["), "expected timestamp prefix, got %q", entries[0].Plain)
	assert.Contains(t, entries[0].Plain, "hello world")
	assert.NotContains(t, entries[0].Plain, "{green-fg}")
	assert.Contains(t, entries[0].Display, "{green-fg}")
}

func TestLogBuffer_EvictsOldestBeyondCapacity(t *testing.T) {
	buf := NewLogBuffer(nil)
	for i := 0; i < logCapacity+50; i++ {
		buf.Append(SeverityInfo, fmt.Sprintf("line %d", i))
	}

	entries := buf.Entries()
	require.Len(t, entries, logCapacity)

	// The retained entries are the most recent ones, in arrival order.
	assert.Contains(t, entries[0].Plain, "line 50")
	assert.Contains(t, entries[len(entries)-1].Plain, fmt.Sprintf("line %d", logCapacity+49))
}

func TestLogBuffer_ClearAppendsMarker(t *testing.T) {
	buf := NewLogBuffer(nil)
	buf.Append(SeverityInfo, "one")
	buf.Append(SeverityInfo, "two")

	buf.Clear()

	entries := buf.Entries()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Plain, "Logs cleared")
}

func TestLogBuffer_NotifiesOnEveryAppend(t *testing.T) {
	var notified []Entry
	buf := NewLogBuffer(func(e Entry) { notified = append(notified, e) })

	buf.Append(SeverityInfo, "one")
	buf.Append(SeverityError, "two")

	require.Len(t, notified, 2)
	assert.Equal(t, SeverityError, notified[1].Severity)
}
