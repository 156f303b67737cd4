package services_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/prxgr4mmer/price-delta-service/internal/domain"
)

var errStoreDown = errors.New("connection refused")

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func asset(id, symbol string, prices map[string]float64) domain.Asset {
	return domain.Asset{ID: id, Symbol: symbol, Prices: prices}
}

// failingStore fails every operation
type failingStore[T any] struct{}

func (failingStore[T]) FindOne(ctx context.Context, id string) (T, error) {
	var zero T
	return zero, errStoreDown
}

func (failingStore[T]) Save(ctx context.Context, id string, doc T) error { return errStoreDown }

func (failingStore[T]) Insert(ctx context.Context, doc T) (string, error) { return "", errStoreDown }

func (failingStore[T]) Ping(ctx context.Context) error { return errStoreDown }

// fakeQuotes serves canned prices per provider name
type fakeQuotes struct {
	mu       sync.Mutex
	assets   map[string]map[string]domain.Asset
	errs     map[string]error
	calls    int
	inFlight int
	maxSeen  int
	delay    time.Duration
}

func newFakeQuotes() *fakeQuotes {
	return &fakeQuotes{
		assets: make(map[string]map[string]domain.Asset),
		errs:   make(map[string]error),
	}
}

func (f *fakeQuotes) set(provider string, assets ...domain.Asset) {
	f.mu.Lock()
	defer f.mu.Unlock()

	m := make(map[string]domain.Asset, len(assets))
	for _, a := range assets {
		m[a.ID] = a
	}
	f.assets[provider] = m
}

func (f *fakeQuotes) fail(provider string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[provider] = err
}

func (f *fakeQuotes) FetchPrices(ctx context.Context, provider domain.Provider) (map[string]domain.Asset, error) {
	f.mu.Lock()
	f.calls++
	f.inFlight++
	if f.inFlight > f.maxSeen {
		f.maxSeen = f.inFlight
	}
	delay := f.delay
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight--

	if err := f.errs[provider.Name]; err != nil {
		return nil, err
	}

	out := make(map[string]domain.Asset, len(f.assets[provider.Name]))
	for id, a := range f.assets[provider.Name] {
		out[id] = a.Clone()
	}
	return out, nil
}

func (f *fakeQuotes) Ping(ctx context.Context, provider domain.Provider) error {
	return nil
}

// fakeDirectories returns a fixed directory, or an error once err is set
type fakeDirectories struct {
	mu    sync.Mutex
	dir   *domain.ProviderDirectory
	err   error
	loads int
}

func (f *fakeDirectories) Load() (*domain.ProviderDirectory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.loads++
	if f.err != nil {
		return nil, f.err
	}
	return f.dir, nil
}

func directory(providers ...domain.Provider) *domain.ProviderDirectory {
	d := &domain.ProviderDirectory{
		ReferenceCurrency: "usd",
		Providers:         make(map[string]domain.Provider, len(providers)),
	}
	for _, p := range providers {
		d.Providers[p.Name] = p
	}
	return d
}

func provider(name string, coins map[string]string) domain.Provider {
	return domain.Provider{
		Name:       name,
		Coins:      coins,
		Currencies: []string{"usd", "eur"},
		BaseRoute:  "https://" + name + ".example.com",
		Routes:     map[string]string{domain.RouteSimplePrice: "/simple/price"},
	}
}
