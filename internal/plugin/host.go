package plugin

import (
	"context"

	"hemtjan.st/openaq/internal/openaq"
)

// Callbacks are the hooks the runtime invokes, one at a time, on its own
// goroutine.
type Callbacks interface {
	OnStart(ctx context.Context, conn Conn) error
	OnHeartbeat(ctx context.Context)
	OnMessage(ctx context.Context, msg Message)
	OnStop()
}

// Conn is the host provided connection. Send must not block; the outcome is
// delivered later through OnMessage. It reports false when a request is
// already outstanding.
type Conn interface {
	Send(ctx context.Context, cycle string, q openaq.Query) bool
}

// Message is the outcome of one request sent through a Conn.
type Message struct {
	Cycle string
	Reply *openaq.Reply
	Err   error
}

// Registry writes values into host managed device slots.
type Registry interface {
	Update(u DeviceUpdate) error
}

// DeviceUpdate is the value written into a single slot. Unit is only set
// for pollutant slots.
type DeviceUpdate struct {
	Slot  string
	Value int
	Text  string
	Unit  string
}

const (
	SlotInfo  = "info"
	SlotAlert = "alert"
)
