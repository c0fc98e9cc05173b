// Package audit is the append-only event trail written by every step of the
// checkout and reconciliation pipeline. Recording never fails the caller.
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/labstack/gommon/log"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

type Event struct {
	Type       string
	Level      Level
	OrderID    string
	CustomerID string
	Data       map[string]any
	OccurredAt time.Time
}

type Recorder interface {
	Record(ctx context.Context, ev Event)
}

func Info(typ string, data map[string]any) Event {
	return Event{Type: typ, Level: LevelInfo, Data: data}
}

func Warning(typ string, data map[string]any) Event {
	return Event{Type: typ, Level: LevelWarning, Data: data}
}

func Error(typ string, err error, data map[string]any) Event {
	if data == nil {
		data = map[string]any{}
	}
	if err != nil {
		data["error"] = err.Error()
	}
	return Event{Type: typ, Level: LevelError, Data: data}
}

func (e Event) ForOrder(orderID string) Event {
	e.OrderID = orderID
	return e
}

func (e Event) ForCustomer(customerID string) Event {
	e.CustomerID = customerID
	return e
}

// Nop drops every event.
type Nop struct{}

func (Nop) Record(context.Context, Event) {}

// LogRecorder writes events as structured log lines.
type LogRecorder struct {
	logger *log.Logger
}

func NewLogRecorder(logger *log.Logger) *LogRecorder {
	return &LogRecorder{logger: logger}
}

func (r *LogRecorder) Record(_ context.Context, ev Event) {
	j := log.JSON{"event": ev.Type}
	if ev.OrderID != "" {
		j["order_id"] = ev.OrderID
	}
	if ev.CustomerID != "" {
		j["customer_id"] = ev.CustomerID
	}
	for k, v := range ev.Data {
		j[k] = v
	}

	switch ev.Level {
	case LevelError:
		r.logger.Errorj(j)
	case LevelWarning:
		r.logger.Warnj(j)
	default:
		r.logger.Infoj(j)
	}
}

type multi []Recorder

// Multi fans every event out to all recorders.
func Multi(recorders ...Recorder) Recorder {
	return multi(recorders)
}

func (m multi) Record(ctx context.Context, ev Event) {
	for _, r := range m {
		r.Record(ctx, ev)
	}
}

// Memory keeps events in process. Used by tests and the dev seed run.
type Memory struct {
	mu     sync.Mutex
	events []Event
}

func (m *Memory) Record(_ context.Context, ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
}

func (m *Memory) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}

// Types returns the recorded event types in order.
func (m *Memory) Types() []string {
	events := m.Events()
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.Type
	}
	return out
}
