package confine

import "sync"

// Publisher fans status values out to subscribers. Each subscriber holds a
// single slot that always contains the latest value, so Publish never blocks.
type Publisher struct {
	mu     sync.Mutex
	subs   map[int]chan Status
	next   int
	last   Status
	closed bool
}

// NewPublisher constructs a publisher primed with initial.
func NewPublisher(initial Status) *Publisher {
	return &Publisher{subs: make(map[int]chan Status), last: initial}
}

// Subscribe returns a channel that immediately holds the current value, and a
// cancel func that closes it.
func (p *Publisher) Subscribe() (<-chan Status, func()) {
	ch := make(chan Status, 1)
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		close(ch)
		return ch, func() {}
	}
	id := p.next
	p.next++
	p.subs[id] = ch
	ch <- p.last

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			if sub, ok := p.subs[id]; ok {
				delete(p.subs, id)
				close(sub)
			}
		})
	}
}

// Publish replaces the value held by every subscriber.
func (p *Publisher) Publish(s Status) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.last = s
	for _, ch := range p.subs {
		replace(ch, s)
	}
}

// Close closes every subscriber channel.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	for id, ch := range p.subs {
		delete(p.subs, id)
		close(ch)
	}
}

func replace(ch chan Status, s Status) {
	select {
	case ch <- s:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- s:
	default:
	}
}
