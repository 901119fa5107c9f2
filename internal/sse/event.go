// Package sse implements the dashboard notification fan-out: a process-wide
// registry of open Server-Sent-Events streams, tenant-scoped broadcast, and a
// periodic keep-alive.
package sse

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Event kinds written on the wire as the "event:" field.
const (
	KindConnected         = "connected"
	KindHeartbeat         = "heartbeat"
	KindNewMessage        = "new_message"
	KindChatStatusChanged = "chat_status_changed"
	KindChatUpdated       = "chat_updated"
)

// Event is an encoded notification ready to be written to a stream.
type Event struct {
	Kind string
	Data []byte
}

// NewEvent marshals payload as the event data.
func NewEvent(kind string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("sse: encode %s: %w", kind, err)
	}
	return Event{Kind: kind, Data: data}, nil
}

// Stream is the writable side of an open SSE response. gin.ResponseWriter and
// httptest.ResponseRecorder both satisfy it.
type Stream interface {
	io.Writer
	Flush()
}

// writeEvent frames ev as
//
//	event: <kind>
//	data: <json>
//
// and flushes it to the client.
func writeEvent(w Stream, ev Event) error {
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, ev.Data); err != nil {
		return err
	}
	w.Flush()
	return nil
}

// stamp returns the timestamp format used in event payloads.
func stamp(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }
