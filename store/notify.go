package store

import (
	"context"
	"sync"
)

// Subscription is a live query handle. C delivers the full matching document
// set on every change (snapshots per subscription are monotonically ordered;
// rapid changes may coalesce). C closes when the subscription is cancelled or
// when the stream fails; Err reports the failure, nil for a clean close.
// Every consumer must call Cancel on teardown or the subscription leaks.
type Subscription struct {
	C <-chan []Document

	cancel func()
	mu     sync.Mutex
	err    error
}

func (s *Subscription) Cancel() { s.cancel() }

func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Subscription) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

type runnerFunc func(ctx context.Context, q Query) ([]Document, error)

// notifier backs Subscribe for every store backend: each committed write
// marks the touched collections dirty, and every dirty subscription re-runs
// its query and pushes the fresh snapshot to its channel.
type notifier struct {
	run    runnerFunc
	mu     sync.Mutex
	subs   map[*watcher]struct{}
	closed bool
}

type watcher struct {
	q    Query
	sub  *Subscription
	out  chan []Document
	kick chan struct{}
	done chan struct{}
	once sync.Once
}

func newNotifier(run runnerFunc) *notifier {
	return &notifier{run: run, subs: map[*watcher]struct{}{}}
}

func (n *notifier) subscribe(q Query) (*Subscription, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return nil, ErrClosed
	}

	w := &watcher{
		q:    q,
		out:  make(chan []Document, 1),
		kick: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	w.sub = &Subscription{C: w.out}
	w.sub.cancel = func() {
		n.remove(w)
	}
	n.subs[w] = struct{}{}

	// Initial snapshot.
	w.kick <- struct{}{}
	go w.loop(n.run)
	return w.sub, nil
}

func (n *notifier) remove(w *watcher) {
	n.mu.Lock()
	delete(n.subs, w)
	n.mu.Unlock()
	w.stop()
}

// changed re-evaluates every live query watching one of the collections.
func (n *notifier) changed(collections ...string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for w := range n.subs {
		for _, c := range collections {
			if w.q.Collection == c {
				select {
				case w.kick <- struct{}{}:
				default: // already dirty, snapshots coalesce
				}
				break
			}
		}
	}
}

func (n *notifier) closeAll() {
	n.mu.Lock()
	n.closed = true
	subs := make([]*watcher, 0, len(n.subs))
	for w := range n.subs {
		subs = append(subs, w)
	}
	n.subs = map[*watcher]struct{}{}
	n.mu.Unlock()

	for _, w := range subs {
		w.sub.fail(ErrClosed)
		w.stop()
	}
}

func (w *watcher) stop() {
	w.once.Do(func() { close(w.done) })
}

func (w *watcher) loop(run runnerFunc) {
	// Only the loop closes out, so a send never races the close.
	defer close(w.out)
	for {
		select {
		case <-w.done:
			return
		case <-w.kick:
			docs, err := run(context.Background(), w.q)
			if err != nil {
				w.sub.fail(err)
				return
			}
			select {
			case w.out <- docs:
			case <-w.done:
				return
			}
		}
	}
}
