package client

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/vyrodovalexey/catalog-api/internal/model"
)

// State is the view of the item listing held by a Loader.
type State struct {
	Items      []model.Item
	Pagination *model.Pagination
	Loading    bool
	Err        error
}

// Loader keeps the latest item listing. Each Fetch supersedes the previous
// one: the earlier request is cancelled and its outcome, whenever it
// arrives, is discarded.
type Loader struct {
	client *Client
	logger *zap.Logger

	mu       sync.Mutex
	state    State
	gen      uint64
	cancel   context.CancelFunc
	onChange func(State)
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithOnChange registers a callback invoked with a copy of the state after
// every transition. It runs with the Loader's lock released.
func WithOnChange(fn func(State)) LoaderOption {
	return func(l *Loader) {
		l.onChange = fn
	}
}

// NewLoader creates a Loader backed by c.
func NewLoader(c *Client, opts ...LoaderOption) *Loader {
	l := &Loader{
		client: c,
		logger: c.logger,
		state:  State{Items: []model.Item{}},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// State returns a copy of the current state.
func (l *Loader) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshot()
}

// Fetch loads items for opts and records the outcome. A request that is
// cancelled, by ctx or by a later Fetch or Cancel, leaves the state alone
// and returns nil. Other failures are recorded and returned.
func (l *Loader) Fetch(ctx context.Context, opts Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
	}
	l.gen++
	gen := l.gen
	l.cancel = cancel
	l.state.Loading = true
	loading := l.snapshot()
	l.mu.Unlock()
	l.notify(loading)

	listing, err := l.client.FetchItems(ctx, opts)

	l.mu.Lock()
	if gen != l.gen || ctx.Err() != nil || (err != nil && IsCancellation(err)) {
		l.mu.Unlock()
		l.logger.Debug("discarding superseded item fetch", zap.Uint64("generation", gen))
		return nil
	}

	l.cancel = nil
	l.state.Loading = false
	if err != nil {
		l.state.Err = err
	} else {
		l.state.Items = listing.Items
		l.state.Pagination = listing.Pagination
		l.state.Err = nil
	}
	done := l.snapshot()
	l.mu.Unlock()
	l.notify(done)

	return err
}

// Cancel aborts the in-flight Fetch, if any. The state is left untouched.
func (l *Loader) Cancel() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.gen++
}

func (l *Loader) snapshot() State {
	s := l.state
	s.Items = make([]model.Item, len(l.state.Items))
	for i, item := range l.state.Items {
		s.Items[i] = item.Clone()
	}
	if l.state.Pagination != nil {
		p := *l.state.Pagination
		s.Pagination = &p
	}
	return s
}

func (l *Loader) notify(s State) {
	if l.onChange != nil {
		l.onChange(s)
	}
}
