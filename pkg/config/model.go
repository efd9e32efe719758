package config

import (
	"os"
	"strconv"
)

// DefaultModel is the fallback LLM model when none is specified.
const DefaultModel = "google/gemini-3-flash-preview"

// ResolveModel returns the model to use, checking the explicit value first,
// then the MODEL_NAME environment variable, and finally the default.
func ResolveModel(model string) string {
	if model != "" {
		return model
	}
	if env := os.Getenv("MODEL_NAME"); env != "" {
		return env
	}
	return DefaultModel
}

// ResolveAPIKey returns the OpenRouter API key, checking the explicit value
// first and then the OPENROUTER_API_KEY environment variable. Empty means
// semantic classification is unavailable.
func ResolveAPIKey(key string) string {
	if key != "" {
		return key
	}
	return os.Getenv("OPENROUTER_API_KEY")
}

// ResolveFloat returns the explicit value when non-zero, then the named
// environment variable when it parses, and finally the default.
func ResolveFloat(explicit float64, envVar string, def float64) float64 {
	if explicit != 0 {
		return explicit
	}
	if env := os.Getenv(envVar); env != "" {
		if v, err := strconv.ParseFloat(env, 64); err == nil {
			return v
		}
	}
	return def
}

// ResolveInt returns the explicit value when non-zero, then the named
// environment variable when it parses, and finally the default.
func ResolveInt(explicit int, envVar string, def int) int {
	if explicit != 0 {
		return explicit
	}
	if env := os.Getenv(envVar); env != "" {
		if v, err := strconv.Atoi(env); err == nil {
			return v
		}
	}
	return def
}
