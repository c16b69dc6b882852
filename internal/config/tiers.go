package config

import (
	"os"

	"github.com/Laisky/errors/v2"
	"gopkg.in/yaml.v3"
)

const (
	TierFree    = "free"
	TierPro     = "pro"
	TierPremium = "premium"
)

const gib int64 = 1 << 30

// MaxTierSizeBytes caps max_total_size_bytes (1 PiB).
const MaxTierSizeBytes int64 = 1 << 50

// Tier bounds a transfer's total size and lifetime.
type Tier struct {
	MaxTotalSizeBytes int64 `yaml:"max_total_size_bytes" json:"maxTotalSizeBytes"`
	MaxExpiryDays     int   `yaml:"max_expiry_days" json:"maxExpiryDays"`
	ShowAds           bool  `yaml:"show_ads" json:"showAds"`
	CustomBranding    bool  `yaml:"custom_branding" json:"customBranding"`
}

// Tiers is keyed by tier name.
type Tiers map[string]Tier

// DefaultTiers returns the built-in free/pro/premium table.
func DefaultTiers() Tiers {
	return Tiers{
		TierFree: {
			MaxTotalSizeBytes: 2 * gib,
			MaxExpiryDays:     7,
			ShowAds:           true,
		},
		TierPro: {
			MaxTotalSizeBytes: 20 * gib,
			MaxExpiryDays:     30,
		},
		TierPremium: {
			MaxTotalSizeBytes: 100 * gib,
			MaxExpiryDays:     90,
			CustomBranding:    true,
		},
	}
}

// LoadTiersFile reads a YAML document of the form
//
//	tiers:
//	  free:
//	    max_total_size_bytes: 2147483648
//	    max_expiry_days: 7
//	    show_ads: true
func LoadTiersFile(path string) (Tiers, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read tiers file")
	}
	return ParseTiers(raw)
}

// ParseTiers decodes and validates a YAML tier table.
func ParseTiers(raw []byte) (Tiers, error) {
	var doc struct {
		Tiers Tiers `yaml:"tiers"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrap(err, "parse tiers yaml")
	}
	if len(doc.Tiers) == 0 {
		return nil, errors.New("tiers file defines no tiers")
	}
	for name, t := range doc.Tiers {
		if t.MaxTotalSizeBytes <= 0 || t.MaxTotalSizeBytes > MaxTierSizeBytes {
			return nil, errors.Errorf("tier %q: max_total_size_bytes must be in (0, %d]", name, MaxTierSizeBytes)
		}
		if t.MaxExpiryDays <= 0 {
			return nil, errors.Errorf("tier %q: max_expiry_days must be positive", name)
		}
	}
	return doc.Tiers, nil
}
