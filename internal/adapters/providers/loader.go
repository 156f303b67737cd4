package providers

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/prxgr4mmer/price-delta-service/internal/domain"
	"github.com/prxgr4mmer/price-delta-service/internal/ports"
)

// fileConfig is the layout of the providers TOML file
type fileConfig struct {
	ReferenceCurrency string                     `toml:"reference_currency"`
	Providers         map[string]domain.Provider `toml:"providers"`
}

// Loader reads the provider directory from a TOML file on every Load
type Loader struct {
	path             string
	enabled          []string
	defaultReference string
	logger           *slog.Logger
}

// NewLoader creates a loader for the given file.
// Only the enabled providers are kept in the loaded directory.
func NewLoader(path string, enabled []string, defaultReference string, logger *slog.Logger) *Loader {
	return &Loader{
		path:             path,
		enabled:          enabled,
		defaultReference: defaultReference,
		logger:           logger.With("component", "provider_loader"),
	}
}

// Load parses and validates the provider file
func (l *Loader) Load() (*domain.ProviderDirectory, error) {
	v := viper.New()
	v.SetConfigFile(l.path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read providers file %s: %w", l.path, err)
	}

	var fc fileConfig
	if err := v.Unmarshal(&fc, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "toml"
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, fmt.Errorf("failed to parse providers file %s: %w", l.path, err)
	}

	reference := strings.ToLower(strings.TrimSpace(fc.ReferenceCurrency))
	if reference == "" {
		reference = l.defaultReference
	}

	dir := &domain.ProviderDirectory{
		ReferenceCurrency: reference,
		Providers:         make(map[string]domain.Provider, len(l.enabled)),
	}

	for _, name := range l.enabled {
		p, ok := fc.Providers[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrProviderNotFound, name)
		}
		if p.Name == "" {
			p.Name = name
		}
		p = normalize(p)
		if err := validate(p); err != nil {
			return nil, err
		}
		dir.Providers[p.Name] = p
	}

	l.logger.Debug("provider directory loaded",
		"providers", len(dir.Providers),
		"assets", len(dir.Assets()),
		"reference_currency", dir.ReferenceCurrency,
	)

	return dir, nil
}

func normalize(p domain.Provider) domain.Provider {
	coins := make(map[string]string, len(p.Coins))
	for id, symbol := range p.Coins {
		coins[domain.NormalizeAssetID(id)] = strings.ToLower(strings.TrimSpace(symbol))
	}
	p.Coins = coins

	currencies := make([]string, 0, len(p.Currencies))
	for _, c := range p.Currencies {
		if c = strings.ToLower(strings.TrimSpace(c)); c != "" {
			currencies = append(currencies, c)
		}
	}
	p.Currencies = currencies

	return p
}

func validate(p domain.Provider) error {
	invalid := func(reason string) error {
		return domain.NewDomainError(domain.ErrInvalidProvider,
			fmt.Sprintf("provider %s: %s", p.Name, reason), "INVALID_PROVIDER")
	}

	if p.BaseRoute == "" {
		return invalid("base_route is required")
	}
	if _, ok := p.Routes[domain.RouteSimplePrice]; !ok {
		return invalid("routes." + domain.RouteSimplePrice + " is required")
	}
	if len(p.Coins) == 0 {
		return invalid("at least one coin is required")
	}
	for id := range p.Coins {
		if err := domain.ValidateAssetID(id); err != nil {
			return invalid(fmt.Sprintf("coin id %q is invalid", id))
		}
	}
	if len(p.Currencies) == 0 {
		return invalid("at least one currency is required")
	}

	return nil
}

// Ensure Loader implements ports.DirectorySource
var _ ports.DirectorySource = (*Loader)(nil)
