package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Reference holds the static lookup data a run depends on: display-name to
// identifier maps, the set of collector-agency issuer IDs, and the per-instrument
// overlay policies. It is supplied as a YAML file, never derived.
//
// Example file:
//
//	issuers:
//	  "МФК Займер": 4
//	issues:
//	  "Займер-01-об": 21
//	collector_ids: [12, 13, 15]
//	overlays:
//	  - isin: RU000A105N25
//	    currency: CNY
//	    board: TQIR
type Reference struct {
	Issuers      map[string]int64 `mapstructure:"issuers"`
	Issues       map[string]int64 `mapstructure:"issues"`
	CollectorIDs []int64          `mapstructure:"collector_ids"`
	Overlays     []OverlayConfig  `mapstructure:"overlays"`
}

// OverlayConfig configures the weekly-aggregate correction for one instrument:
// which ISIN it applies to, the currency its secondary totals are quoted in,
// and the trading board the secondary rows are restricted to.
type OverlayConfig struct {
	ISIN     string `mapstructure:"isin"`
	Currency string `mapstructure:"currency"`
	Board    string `mapstructure:"board"`
}

// LoadReference reads and decodes the reference file at path.
//
// Unlike LoadConfig it returns errors instead of exiting: a missing or malformed
// reference file is an ordinary startup failure reported by the caller.
func LoadReference(path string) (*Reference, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read reference file %s: %w", path, err)
	}

	var ref Reference
	if err := v.Unmarshal(&ref); err != nil {
		return nil, fmt.Errorf("decode reference file %s: %w", path, err)
	}

	if len(ref.Issuers) == 0 || len(ref.Issues) == 0 {
		return nil, fmt.Errorf("reference file %s: issuers and issues maps are required", path)
	}

	return &ref, nil
}
