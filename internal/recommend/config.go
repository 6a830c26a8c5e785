// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package recommend

import (
	"fmt"
	"time"
)

// Config contains all configuration for the recommendation engine.
type Config struct {
	// SimilarTopK is the default result count for similar products.
	// Default: 6.
	SimilarTopK int `json:"similar_top_k" koanf:"similar_top_k"`

	// BoughtTogetherTopK is the default result count for frequently bought together.
	// Default: 4.
	BoughtTogetherTopK int `json:"bought_together_top_k" koanf:"bought_together_top_k"`

	// PersonalizedTopK is the default result count for personalized requests.
	// Default: 10.
	PersonalizedTopK int `json:"personalized_top_k" koanf:"personalized_top_k"`

	// SignalTopK bounds the viewed, purchased and category signals.
	// Default: 3.
	SignalTopK int `json:"signal_top_k" koanf:"signal_top_k"`

	// TwoTowerTopK bounds the embedded user summary search.
	// Default: 5.
	TwoTowerTopK int `json:"two_tower_top_k" koanf:"two_tower_top_k"`

	// TwoTowerBoost multiplies two-tower scores.
	// Default: 1.2.
	TwoTowerBoost float64 `json:"two_tower_boost" koanf:"two_tower_boost"`

	// CategoryAffinityWeight multiplies category affinity match scores.
	// Default: 0.5.
	CategoryAffinityWeight float64 `json:"category_affinity_weight" koanf:"category_affinity_weight"`

	// DiversityFactor is applied when a request does not set one.
	// Default: 0.3.
	DiversityFactor float64 `json:"diversity_factor" koanf:"diversity_factor"`

	// VoiceTopK is the number of items read out by voice responses.
	// Default: 3.
	VoiceTopK int `json:"voice_top_k" koanf:"voice_top_k"`

	// DefaultLanguage is used when neither the request nor the profile has one.
	// Default: "fr".
	DefaultLanguage string `json:"default_language" koanf:"default_language"`

	// EmbedTimeout bounds the embedding call of a personalized request.
	// Default: 5s.
	EmbedTimeout time.Duration `json:"embed_timeout" koanf:"embed_timeout"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() *Config {
	return &Config{
		SimilarTopK:            6,
		BoughtTogetherTopK:     4,
		PersonalizedTopK:       10,
		SignalTopK:             3,
		TwoTowerTopK:           5,
		TwoTowerBoost:          1.2,
		CategoryAffinityWeight: 0.5,
		DiversityFactor:        0.3,
		VoiceTopK:              3,
		DefaultLanguage:        LanguageFrench,
		EmbedTimeout:           5 * time.Second,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	counts := []struct {
		name  string
		value int
	}{
		{"similar_top_k", c.SimilarTopK},
		{"bought_together_top_k", c.BoughtTogetherTopK},
		{"personalized_top_k", c.PersonalizedTopK},
		{"signal_top_k", c.SignalTopK},
		{"two_tower_top_k", c.TwoTowerTopK},
		{"voice_top_k", c.VoiceTopK},
	}
	for _, n := range counts {
		if n.value < 1 {
			return fmt.Errorf("%s must be positive, got %d", n.name, n.value)
		}
	}

	if c.TwoTowerBoost <= 0 {
		return fmt.Errorf("two_tower_boost must be positive, got %f", c.TwoTowerBoost)
	}
	if c.CategoryAffinityWeight <= 0 {
		return fmt.Errorf("category_affinity_weight must be positive, got %f", c.CategoryAffinityWeight)
	}
	if c.DiversityFactor < 0 || c.DiversityFactor > 1 {
		return fmt.Errorf("diversity_factor must be in [0, 1], got %f", c.DiversityFactor)
	}
	if !SupportedLanguage(c.DefaultLanguage) {
		return fmt.Errorf("default_language %q is not supported", c.DefaultLanguage)
	}
	if c.EmbedTimeout <= 0 {
		return fmt.Errorf("embed_timeout must be positive, got %v", c.EmbedTimeout)
	}
	return nil
}
