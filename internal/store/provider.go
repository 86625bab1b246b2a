package store

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Provider hands out the process-wide store handle. The handle is opened
// lazily on the first request (the first caller pays the connection cost),
// shared across concurrent requests afterwards, and only torn down at
// process shutdown via Close. A failed open is not cached; the next caller
// retries.
type Provider struct {
	mu    sync.Mutex
	open  func() (Store, error)
	store Store
}

func NewProvider(open func() (Store, error)) *Provider {
	return &Provider{open: open}
}

func (p *Provider) Get() (Store, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.store != nil {
		return p.store, nil
	}
	s, err := p.open()
	if err != nil {
		return nil, err
	}
	log.Debug().Msg("Opened vector store handle")
	p.store = s
	return s, nil
}

func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.store == nil {
		return nil
	}
	err := p.store.Close()
	p.store = nil
	return err
}
