package config

// FilterConfig controls the C4 skip-rule thresholds (spec §4.4, §6).
type FilterConfig struct {
	MinChars             int `yaml:"min_chars"`
	CompilationThreshold int `yaml:"compilation_threshold"`
}

// DefaultFilterConfig returns the built-in filter defaults.
func DefaultFilterConfig() *FilterConfig {
	return &FilterConfig{
		MinChars:             20,
		CompilationThreshold: 5,
	}
}

// EnrichmentConfig controls the deterministic post-processing steps of C6.
type EnrichmentConfig struct {
	GeocodingEnabled bool   `yaml:"geocoding_enabled"`
	GeocodingURL     string `yaml:"geocoding_url,omitempty"`

	// DuplicateWindowMinutes bounds how far back duplicate detection looks for a
	// matching structural fingerprint (spec §4.6 step 7).
	DuplicateWindowMinutes int `yaml:"duplicate_window_minutes"`

	// DuplicateConfidenceThreshold is the score above which P6's scenario 6
	// considers two fingerprints a confirmed duplicate pair.
	DuplicateConfidenceThreshold float64 `yaml:"duplicate_confidence_threshold"`
}

// DefaultEnrichmentConfig returns the built-in enrichment defaults.
func DefaultEnrichmentConfig() *EnrichmentConfig {
	return &EnrichmentConfig{
		GeocodingEnabled:             true,
		GeocodingURL:                "https://www.onemap.gov.sg/api/common/elastic/search",
		DuplicateWindowMinutes:       180,
		DuplicateConfidenceThreshold: 0.85,
	}
}

// DeliveryConfig controls the two best-effort side effects of C9.
type DeliveryConfig struct {
	BroadcastEnabled bool `yaml:"broadcast_enabled"`
	DMsEnabled       bool `yaml:"dms_enabled"`

	MatcherURL      string  `yaml:"matcher_url,omitempty"`
	MinMatchScore   float64 `yaml:"min_match_score"`
	JSONLSinkPath   string  `yaml:"jsonl_sink_path,omitempty"`
	DMRateLimitPerS float64 `yaml:"dm_rate_limit_per_s"`
}

// DefaultDeliveryConfig returns the built-in delivery defaults.
func DefaultDeliveryConfig() *DeliveryConfig {
	return &DeliveryConfig{
		BroadcastEnabled: true,
		DMsEnabled:       true,
		MinMatchScore:    0.6,
		JSONLSinkPath:    "./data/delivery-failures.jsonl",
		DMRateLimitPerS:  5,
	}
}
