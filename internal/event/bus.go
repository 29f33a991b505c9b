// Package event provides the pub/sub event bus using watermill.
package event

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Type identifies the kind of event.
type Type string

const (
	SessionStarted     Type = "session.started"
	SessionEnded       Type = "session.ended"
	ToolExecuted       Type = "tool.executed"
	FileEdited         Type = "file.edited"
	PermissionRequired Type = "permission.required"
	PermissionResolved Type = "permission.resolved"
	SubagentStarted    Type = "subagent.started"
	SubagentCompleted  Type = "subagent.completed"
	BranchChanged      Type = "vcs.branch_changed"
)

const busTopic = "events"

// Event carries a typed payload to subscribers.
type Event struct {
	Type Type `json:"type"`
	Data any  `json:"data"`
}

// Subscriber receives published events.
type Subscriber func(event Event)

type entry struct {
	id uint64
	fn Subscriber
}

// Bus manages pub/sub. Async publishes travel through watermill's gochannel
// so a distributed backend or middleware can be swapped in; PublishSync stays
// direct because callers rely on its ordering.
type Bus struct {
	mu sync.RWMutex

	pubsub      *gochannel.GoChannel
	cancel      context.CancelFunc
	subscribers map[Type][]entry
	global      []entry
	nextID      uint64
	closed      bool
}

var globalBus = NewBus()

// NewBus creates a new event bus and starts its dispatch loop.
func NewBus() *Bus {
	ctx, cancel := context.WithCancel(context.Background())
	b := &Bus{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 64},
			watermill.NopLogger{},
		),
		cancel:      cancel,
		subscribers: make(map[Type][]entry),
	}
	messages, err := b.pubsub.Subscribe(ctx, busTopic)
	if err == nil {
		go b.dispatch(messages)
	}
	return b
}

// Subscribe registers a subscriber for one event type on the global bus and
// returns an unsubscribe function.
func Subscribe(t Type, fn Subscriber) func() {
	return globalBus.Subscribe(t, fn)
}

func (b *Bus) Subscribe(t Type, fn Subscriber) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return func() {}
	}
	id := atomic.AddUint64(&b.nextID, 1)
	b.subscribers[t] = append(b.subscribers[t], entry{id: id, fn: fn})
	return func() { b.unsubscribe(t, id) }
}

// SubscribeAll registers a subscriber for every event on the global bus.
func SubscribeAll(fn Subscriber) func() {
	return globalBus.SubscribeAll(fn)
}

func (b *Bus) SubscribeAll(fn Subscriber) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return func() {}
	}
	id := atomic.AddUint64(&b.nextID, 1)
	b.global = append(b.global, entry{id: id, fn: fn})
	return func() { b.unsubscribeGlobal(id) }
}

func (b *Bus) unsubscribe(t Type, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subscribers[t]
	for i, e := range subs {
		if e.id == id {
			b.subscribers[t] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

func (b *Bus) unsubscribeGlobal(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, e := range b.global {
		if e.id == id {
			b.global = append(b.global[:i], b.global[i+1:]...)
			return
		}
	}
}

func (b *Bus) collect(t Type) []Subscriber {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil
	}
	subs := make([]Subscriber, 0, len(b.subscribers[t])+len(b.global))
	for _, e := range b.subscribers[t] {
		subs = append(subs, e.fn)
	}
	for _, e := range b.global {
		subs = append(subs, e.fn)
	}
	return subs
}

// Publish delivers an event asynchronously on the global bus.
func Publish(event Event) {
	globalBus.Publish(event)
}

// Publish routes the event through the gochannel. The dispatch loop fans out
// to subscribers, each in its own goroutine, so a slow consumer never blocks
// the publisher.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	closed := b.closed
	b.mu.RUnlock()
	if closed {
		return
	}

	payload, err := json.Marshal(event.Data)
	if err != nil {
		b.fanOut(event)
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("type", string(event.Type))
	if err := b.pubsub.Publish(busTopic, msg); err != nil {
		b.fanOut(event)
	}
}

func (b *Bus) dispatch(messages <-chan *message.Message) {
	for msg := range messages {
		t := Type(msg.Metadata.Get("type"))
		b.fanOut(Event{Type: t, Data: decodeData(t, msg.Payload)})
		msg.Ack()
	}
}

func (b *Bus) fanOut(event Event) {
	for _, fn := range b.collect(event.Type) {
		go fn(event)
	}
}

// decodeData restores the concrete payload struct for known event types.
func decodeData(t Type, payload []byte) any {
	var (
		data any
		err  error
	)
	switch t {
	case SessionStarted, SessionEnded:
		var d SessionData
		err = json.Unmarshal(payload, &d)
		data = d
	case ToolExecuted:
		var d ToolExecutedData
		err = json.Unmarshal(payload, &d)
		data = d
	case FileEdited:
		var d FileEditedData
		err = json.Unmarshal(payload, &d)
		data = d
	case PermissionRequired:
		var d PermissionRequiredData
		err = json.Unmarshal(payload, &d)
		data = d
	case PermissionResolved:
		var d PermissionResolvedData
		err = json.Unmarshal(payload, &d)
		data = d
	case SubagentStarted, SubagentCompleted:
		var d SubagentData
		err = json.Unmarshal(payload, &d)
		data = d
	case BranchChanged:
		var d BranchChangedData
		err = json.Unmarshal(payload, &d)
		data = d
	default:
		err = json.Unmarshal(payload, &data)
	}
	if err != nil {
		return nil
	}
	return data
}

// PublishSync delivers an event on the calling goroutine, returning after all
// subscribers have run.
func PublishSync(event Event) {
	globalBus.PublishSync(event)
}

func (b *Bus) PublishSync(event Event) {
	for _, fn := range b.collect(event.Type) {
		fn(event)
	}
}

// Close shuts the bus down; further publishes are dropped.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.subscribers = make(map[Type][]entry)
	b.global = nil
	b.mu.Unlock()
	b.cancel()
	return b.pubsub.Close()
}

// Reset replaces the global bus. Intended for tests.
func Reset() {
	_ = globalBus.Close()
	globalBus = NewBus()
}
