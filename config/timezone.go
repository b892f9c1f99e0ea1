package config

import (
	"log"
	"time"
)

// Location resolves the configured Timezone, falling back to UTC.
func (c AppConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		log.Printf("unknown timezone %q, using UTC: %v", c.Timezone, err)
		return time.UTC
	}
	return loc
}

// AITimeout is the bound applied to a single text-generation call.
func (c AppConfig) AITimeout() time.Duration {
	if c.AITimeoutSec <= 0 {
		return 20 * time.Second
	}
	return time.Duration(c.AITimeoutSec) * time.Second
}
