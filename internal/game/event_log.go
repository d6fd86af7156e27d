package game

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	EventQueueSize     = 1024                   // Events waiting for the writer
	EventBudgetPerSec  = 200                    // Per event type, per simulated second
	EventBudgetBurst   = 100                    // A full expansion wipe fits in one burst
	EventFlushInterval = 100 * time.Millisecond // How often the writer flushes
)

// EventLog records simulation events to a JSONL file. The tick goroutine is
// the only producer; a writer goroutine drains the queue.
//
// Each event type has its own budget, charged against the simulation clock
// rather than the wall clock, so a paused or slowed world spends nothing and
// the same run always keeps the same events.
type EventLog struct {
	queue   chan Event
	budgets [eventTypeCount]*rate.Limiter
	seq     uint64 // producer only

	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	running  atomic.Bool

	filePath string
	file     *os.File

	logger *zap.Logger

	dropped atomic.Uint64
	total   atomic.Uint64
}

// NewEventLog creates an idle event log. Emits are ignored until Start.
func NewEventLog(logger *zap.Logger) *EventLog {
	if logger == nil {
		logger = zap.NewNop()
	}
	el := &EventLog{
		queue:    make(chan Event, EventQueueSize),
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger,
	}
	for i := range el.budgets {
		el.budgets[i] = rate.NewLimiter(EventBudgetPerSec, EventBudgetBurst)
	}
	return el
}

// Start opens filePath for append and launches the writer
func (el *EventLog) Start(filePath string) error {
	if el.running.Load() {
		return nil
	}

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open event log %s: %w", filePath, err)
	}
	el.filePath = filePath
	el.file = file

	el.running.Store(true)
	go el.writerLoop()
	return nil
}

// Stop writes out everything queued and closes the file
func (el *EventLog) Stop() {
	el.stopOnce.Do(func() {
		if !el.running.Swap(false) {
			return
		}
		close(el.stopChan)
		<-el.done
	})
}

// Record queues one event stamped with the tick and sim time. It returns
// false when the type is over budget or the queue is full.
func (el *EventLog) Record(eventType EventType, tickNum uint64, simTime float64, source string, payload interface{}) bool {
	if !el.running.Load() {
		return false
	}

	if !el.budget(eventType).AllowN(simInstant(simTime), 1) {
		el.dropped.Add(1)
		return false
	}

	ev := NewEvent(eventType, tickNum, simTime, source, payload)
	el.seq++
	ev.Sequence = el.seq

	select {
	case el.queue <- ev:
		el.total.Add(1)
		return true
	default:
		el.dropped.Add(1)
		return false
	}
}

func (el *EventLog) budget(t EventType) *rate.Limiter {
	if int(t) >= len(el.budgets) {
		t = EventTypeUnknown
	}
	return el.budgets[t]
}

// simInstant maps sim seconds onto a fixed epoch for the limiters
func simInstant(simTime float64) time.Time {
	return time.Unix(0, 0).Add(time.Duration(simTime * float64(time.Second)))
}

// writerLoop owns the file. It flushes on a timer and drains the queue on stop.
func (el *EventLog) writerLoop() {
	defer close(el.done)

	w := bufio.NewWriter(el.file)
	enc := json.NewEncoder(w)
	ticker := time.NewTicker(EventFlushInterval)
	defer ticker.Stop()

	for {
		select {
		case ev := <-el.queue:
			el.write(enc, ev)
		case <-ticker.C:
			el.flush(w)
		case <-el.stopChan:
			for {
				select {
				case ev := <-el.queue:
					el.write(enc, ev)
				default:
					el.flush(w)
					if err := el.file.Close(); err != nil {
						el.logger.Warn("⚠️ Event log close failed", zap.String("path", el.filePath), zap.Error(err))
					}
					return
				}
			}
		}
	}
}

func (el *EventLog) write(enc *json.Encoder, ev Event) {
	if err := enc.Encode(ev); err != nil {
		el.logger.Warn("⚠️ Event log write failed",
			zap.String("path", el.filePath),
			zap.Error(err))
	}
}

func (el *EventLog) flush(w *bufio.Writer) {
	if err := w.Flush(); err != nil {
		el.logger.Warn("⚠️ Event log flush failed",
			zap.String("path", el.filePath),
			zap.Error(err))
	}
}

// GetStats returns event log counters
func (el *EventLog) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"total":   el.total.Load(),
		"dropped": el.dropped.Load(),
		"pending": len(el.queue),
		"running": el.running.Load(),
	}
}
