package events

import "sync"

// Mailbox is an unbounded FIFO. Push never blocks; a pump goroutine feeds
// items to Out in order.
type Mailbox[T any] struct {
	mu       sync.Mutex
	items    []T
	draining bool

	signal chan struct{}
	out    chan T
	done   chan struct{}
	once   sync.Once
}

// NewMailbox creates a mailbox and starts its pump
func NewMailbox[T any]() *Mailbox[T] {
	m := &Mailbox[T]{
		signal: make(chan struct{}, 1),
		out:    make(chan T),
		done:   make(chan struct{}),
	}
	go m.pump()
	return m
}

// Push appends v. It reports false once the mailbox is closed or finishing.
func (m *Mailbox[T]) Push(v T) bool {
	m.mu.Lock()
	if m.draining || m.isClosed() {
		m.mu.Unlock()
		return false
	}
	m.items = append(m.items, v)
	m.mu.Unlock()

	select {
	case m.signal <- struct{}{}:
	default:
	}
	return true
}

// Out delivers pushed items. It is closed after Close, or after Finish once
// every pending item has been received.
func (m *Mailbox[T]) Out() <-chan T {
	return m.out
}

// Finish stops accepting items and closes Out after the backlog drains
func (m *Mailbox[T]) Finish() {
	m.mu.Lock()
	m.draining = true
	m.mu.Unlock()

	select {
	case m.signal <- struct{}{}:
	default:
	}
}

// Close discards the backlog and closes Out
func (m *Mailbox[T]) Close() {
	m.once.Do(func() { close(m.done) })
}

func (m *Mailbox[T]) isClosed() bool {
	select {
	case <-m.done:
		return true
	default:
		return false
	}
}

func (m *Mailbox[T]) pump() {
	defer close(m.out)

	var zero T
	for {
		m.mu.Lock()
		if len(m.items) == 0 {
			draining := m.draining
			m.mu.Unlock()
			if draining {
				return
			}
			select {
			case <-m.signal:
				continue
			case <-m.done:
				return
			}
		}
		v := m.items[0]
		m.items[0] = zero
		m.items = m.items[1:]
		m.mu.Unlock()

		select {
		case m.out <- v:
		case <-m.done:
			return
		}
	}
}
