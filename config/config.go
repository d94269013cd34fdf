package config

import "github.com/caarlos0/env/v11"

// Config is parsed from the environment. Every field has a usable default,
// so the binary runs with no environment at all.
type Config struct {
	// CatalogURL overrides where the static venue/event document is fetched.
	CatalogURL string `env:"FESTMAP_CATALOG_URL"`
	// DetailBaseURL overrides the base of the live detail endpoint.
	DetailBaseURL string `env:"FESTMAP_DETAIL_URL"`
	// FetchAttempts bounds attempts per request. The default is a single
	// attempt; fetches degrade to an empty view instead of retrying.
	FetchAttempts int `env:"FESTMAP_FETCH_ATTEMPTS" envDefault:"1"`
	// ProximityGate enables the near-center marker gate. Off by default:
	// the current behavior shows every matching marker regardless of the
	// viewport.
	ProximityGate bool `env:"FESTMAP_PROXIMITY_GATE" envDefault:"false"`
	// NoCache bypasses the on-disk catalog cache.
	NoCache bool `env:"FESTMAP_NO_CACHE" envDefault:"false"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
