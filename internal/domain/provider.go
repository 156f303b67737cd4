package domain

import (
	"sort"
	"strings"
)

// Route names used by the quote source
const (
	RouteSimplePrice = "simple_price"
	RoutePing        = "ping"
)

// DefaultReferenceCurrency is the currency used for change detection when
// the directory does not name one
const DefaultReferenceCurrency = "usd"

// Provider describes a remote quote service and the assets it is polled for
type Provider struct {
	Name       string            `toml:"name"`
	Coins      map[string]string `toml:"coins"`
	Currencies []string          `toml:"currencies"`
	BaseRoute  string            `toml:"base_route"`
	Routes     map[string]string `toml:"routes"`
}

// URI joins the base route with the named route template
func (p Provider) URI(route string) (string, error) {
	r, ok := p.Routes[route]
	if !ok {
		return "", ErrRouteNotFound
	}
	return strings.TrimRight(p.BaseRoute, "/") + r, nil
}

// CoinIDs returns the configured asset ids in sorted order
func (p Provider) CoinIDs() []string {
	ids := make([]string, 0, len(p.Coins))
	for id := range p.Coins {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Symbol returns the display symbol of an asset id
func (p Provider) Symbol(id string) (string, bool) {
	s, ok := p.Coins[id]
	return s, ok
}

// ProviderDirectory is the set of providers polled by the service and the
// currency used to decide whether a price changed
type ProviderDirectory struct {
	ReferenceCurrency string
	Providers         map[string]Provider
}

// Names returns provider names in sorted order
func (d ProviderDirectory) Names() []string {
	names := make([]string, 0, len(d.Providers))
	for name := range d.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Assets returns every configured asset id mapped to its symbol.
// When two providers list the same id the first one in name order wins.
func (d ProviderDirectory) Assets() map[string]string {
	out := make(map[string]string)
	for _, name := range d.Names() {
		for id, symbol := range d.Providers[name].Coins {
			if _, ok := out[id]; !ok {
				out[id] = symbol
			}
		}
	}
	return out
}
