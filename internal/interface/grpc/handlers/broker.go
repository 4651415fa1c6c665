package handlers

import (
	"maps"
	"strings"
	"sync"
)

type listener[T any] struct {
	id     string
	topics map[string]struct{}
	ch     chan T
	done   chan struct{}
	once   *sync.Once
}

func newListener[T any](id string, topics []string) *listener[T] {
	topicsMap := make(map[string]struct{})
	for _, topic := range topics {
		if t := formatTopic(topic); t != "" {
			topicsMap[t] = struct{}{}
		}
	}
	return &listener[T]{
		id:     id,
		topics: topicsMap,
		ch:     make(chan T, 100),
		done:   make(chan struct{}),
		once:   &sync.Once{},
	}
}

// includesAny returns true if the listener has no topics (ie. subscribed to
// everything) or if any of the given topics matches.
func (l *listener[T]) includesAny(topics []string) bool {
	if len(l.topics) == 0 {
		return true
	}
	for _, topic := range topics {
		if _, ok := l.topics[formatTopic(topic)]; ok {
			return true
		}
	}
	return false
}

func (l *listener[T]) closeDone() {
	l.once.Do(func() { close(l.done) })
}

// send never blocks: the message is dropped if the listener is gone or its
// buffer is full.
func (l *listener[T]) send(msg T) bool {
	select {
	case <-l.done:
		return false
	case l.ch <- msg:
		return true
	default:
		return false
	}
}

// broker fans out messages to the listeners of the event stream.
type broker[T any] struct {
	lock      *sync.RWMutex
	listeners map[string]*listener[T]
}

func newBroker[T any]() *broker[T] {
	return &broker[T]{
		lock:      &sync.RWMutex{},
		listeners: make(map[string]*listener[T], 0),
	}
}

func (h *broker[T]) pushListener(l *listener[T]) {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.listeners[l.id] = l
}

func (h *broker[T]) removeListener(id string) {
	h.lock.Lock()
	defer h.lock.Unlock()

	listener, ok := h.listeners[id]
	if !ok {
		return
	}
	listener.closeDone()
	delete(h.listeners, id)
}

// publish delivers the message to every listener subscribed to any of the
// given topics and returns the number of listeners reached.
func (h *broker[T]) publish(msg T, topics ...string) int {
	count := 0
	for _, l := range h.getListenersCopy() {
		if !l.includesAny(topics) {
			continue
		}
		if l.send(msg) {
			count++
		}
	}
	return count
}

func (h *broker[T]) getListenersCopy() map[string]*listener[T] {
	h.lock.RLock()
	defer h.lock.RUnlock()

	listenersCopy := make(map[string]*listener[T], len(h.listeners))
	maps.Copy(listenersCopy, h.listeners)
	return listenersCopy
}

func (h *broker[T]) hasListeners() bool {
	h.lock.RLock()
	defer h.lock.RUnlock()
	return len(h.listeners) > 0
}

func formatTopic(topic string) string {
	return strings.Trim(strings.ToLower(topic), " ")
}
