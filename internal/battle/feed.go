package battle

import (
	"strconv"
	"sync"
	"time"
)

const defaultFeedSize = 500

// Event is one published state transition.
type Event struct {
	ID       string   `json:"event_id"`
	Type     string   `json:"event"`
	Epoch    uint64   `json:"epoch"`
	ServerTS int64    `json:"server_ts"`
	Snapshot Snapshot `json:"snapshot"`
}

// Feed keeps the most recent transitions for replay and fans new ones out to
// subscribers. A subscriber that falls behind loses events; it can catch up
// with ReplayAfter.
type Feed struct {
	mu       sync.Mutex
	nextID   int64
	max      int
	events   []Event
	watchers map[chan Event]struct{}
	closed   bool
}

func NewFeed(max int) *Feed {
	if max <= 0 {
		max = defaultFeedSize
	}
	return &Feed{
		max:      max,
		watchers: map[chan Event]struct{}{},
	}
}

func (f *Feed) Publish(eventType string, epoch uint64, snap Snapshot) Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return Event{}
	}
	f.nextID++
	ev := Event{
		ID:       strconv.FormatInt(f.nextID, 10),
		Type:     eventType,
		Epoch:    epoch,
		ServerTS: time.Now().UnixMilli(),
		Snapshot: snap,
	}
	f.events = append(f.events, ev)
	if len(f.events) > f.max {
		f.events = f.events[len(f.events)-f.max:]
	}
	for ch := range f.watchers {
		select {
		case ch <- ev:
		default:
		}
	}
	return ev
}

// ReplayAfter returns retained events newer than lastEventID. An empty or
// unparsable id replays everything retained.
func (f *Feed) ReplayAfter(lastEventID string) []Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	last, err := strconv.ParseInt(lastEventID, 10, 64)
	if lastEventID == "" || err != nil {
		last = 0
	}
	out := make([]Event, 0, len(f.events))
	for _, ev := range f.events {
		id, _ := strconv.ParseInt(ev.ID, 10, 64)
		if id > last {
			out = append(out, ev)
		}
	}
	return out
}

func (f *Feed) Subscribe() chan Event {
	ch := make(chan Event, 32)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		close(ch)
		return ch
	}
	f.watchers[ch] = struct{}{}
	return ch
}

func (f *Feed) Unsubscribe(ch chan Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.watchers[ch]; ok {
		delete(f.watchers, ch)
		close(ch)
	}
}

func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	for ch := range f.watchers {
		close(ch)
		delete(f.watchers, ch)
	}
}
