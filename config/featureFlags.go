package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// SynthesizerEnabled gates the generative step. When disabled (or no API key is
// configured) agent runs go straight through the deterministic default path.
//
// Set via env:
// - SYNTHESIZER_ENABLED=true (default true when ANTHROPIC_API_KEY is set)
func SynthesizerEnabled() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("SYNTHESIZER_ENABLED")))
	if v != "" {
		return v == "1" || v == "true" || v == "yes" || v == "y"
	}
	return strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")) != ""
}

// SynthesizerTimeout bounds a single generation call. The agent run does not
// fail when the deadline passes; it degrades to the default parsing path.
//
// Env: SYNTHESIZER_TIMEOUT_SECONDS (default 30)
func SynthesizerTimeout() time.Duration {
	sec := 30
	if v := strings.TrimSpace(os.Getenv("SYNTHESIZER_TIMEOUT_SECONDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			sec = n
		}
	}
	return time.Duration(sec) * time.Second
}

// ImpactCacheEnabled toggles the Redis cache in front of impact aggregation.
//
// Env: ENABLE_IMPACT_CACHE
func ImpactCacheEnabled() bool {
	v := strings.TrimSpace(os.Getenv("ENABLE_IMPACT_CACHE"))
	return v == "1" || strings.EqualFold(v, "true") || strings.EqualFold(v, "yes") || strings.EqualFold(v, "on")
}

// ImpactCacheTTL returns the impact report cache TTL.
//
// Env: IMPACT_CACHE_TTL_SECONDS (default 120s)
func ImpactCacheTTL() time.Duration {
	ttl := 120
	if v := strings.TrimSpace(os.Getenv("IMPACT_CACHE_TTL_SECONDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			ttl = n
		}
	}
	return time.Duration(ttl) * time.Second
}
