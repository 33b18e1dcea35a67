package relayservice

import (
	"context"
	"errors"
	"sync"

	"github.com/propflow/messaging-relay/pkg/topic"
)

// fakeBroker records subscriptions and published messages in memory and
// routes published data to matching subscription handlers.
type fakeBroker struct {
	mu        sync.Mutex
	subs      []*fakeSubscription
	published map[string][][]byte
	subErr    error
	pubErr    error
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{published: make(map[string][][]byte)}
}

func (b *fakeBroker) Publish(subject string, data []byte) error {
	b.mu.Lock()
	if b.pubErr != nil {
		err := b.pubErr
		b.mu.Unlock()
		return err
	}
	b.published[subject] = append(b.published[subject], data)
	b.mu.Unlock()
	return nil
}

func (b *fakeBroker) Subscribe(subject string, handler func(subject string, data []byte)) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subErr != nil {
		return nil, b.subErr
	}
	sub := &fakeSubscription{broker: b, subject: subject, handler: handler}
	b.subs = append(b.subs, sub)
	return sub, nil
}

// deliver simulates the broker delivering a message on a source subject to
// every live subscription whose pattern matches it.
func (b *fakeBroker) deliver(subject string, data []byte) {
	b.mu.Lock()
	var handlers []func(string, []byte)
	for _, sub := range b.subs {
		if !sub.closed && topic.Match(subject, sub.subject) {
			handlers = append(handlers, sub.handler)
		}
	}
	b.mu.Unlock()
	for _, h := range handlers {
		h(subject, data)
	}
}

func (b *fakeBroker) messagesTo(subject string) [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.published[subject]
}

func (b *fakeBroker) openSubscriptions() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, sub := range b.subs {
		if !sub.closed {
			n++
		}
	}
	return n
}

// fakeInterest reports interest for every subject except those explicitly
// marked gone, simulating a client dropping its inbox subscriptions.
type fakeInterest struct {
	mu   sync.Mutex
	gone map[string]struct{}
	err  error
}

func newFakeInterest() *fakeInterest {
	return &fakeInterest{gone: make(map[string]struct{})}
}

func (i *fakeInterest) HasInterest(_ context.Context, subject string) (bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.err != nil {
		return false, i.err
	}
	_, dead := i.gone[subject]
	return !dead, nil
}

func (i *fakeInterest) drop(subject string) {
	i.mu.Lock()
	i.gone[subject] = struct{}{}
	i.mu.Unlock()
}

type fakeSubscription struct {
	broker  *fakeBroker
	subject string
	handler func(subject string, data []byte)
	closed  bool
}

func (s *fakeSubscription) Unsubscribe() error {
	s.broker.mu.Lock()
	defer s.broker.mu.Unlock()
	if s.closed {
		return errors.New("already unsubscribed")
	}
	s.closed = true
	return nil
}
