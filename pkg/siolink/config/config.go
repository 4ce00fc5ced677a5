// Package config loads HCL endpoint profiles for the siolink CLI.
//
// A profile file holds named endpoint blocks:
//
//	endpoint "staging" {
//	  url       = "wss://staging.example.com/"
//	  namespace = "/chat"
//	  auth      = "{\"token\":\"t\"}"
//	  headers   = { "X-API-Key" = "key123" }
//
//	  backoff {
//	    initial_delay = "500ms"
//	    max_delay     = "10s"
//	    factor        = 1.5
//	  }
//	}
package config

import (
	"fmt"
	"time"

	"github.com/hashicorp/hcl/v2/hclsimple"
)

// Config is a parsed profile file.
type Config struct {
	Endpoints []*Endpoint `hcl:"endpoint,block"`
}

// Endpoint is one named connection profile.
type Endpoint struct {
	Name      string            `hcl:"name,label"`
	URL       string            `hcl:"url"`
	Namespace string            `hcl:"namespace,optional"`
	Auth      string            `hcl:"auth,optional"`
	Headers   map[string]string `hcl:"headers,optional"`
	Backoff   *Backoff          `hcl:"backoff,block"`
}

// Backoff overrides the reconnection schedule for an endpoint. Durations
// use Go syntax ("500ms", "10s").
type Backoff struct {
	InitialDelay string  `hcl:"initial_delay,optional"`
	MaxDelay     string  `hcl:"max_delay,optional"`
	Factor       float64 `hcl:"factor,optional"`
}

// Load parses and validates a profile file.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := hclsimple.DecodeFile(path, nil, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}

	seen := make(map[string]bool, len(cfg.Endpoints))
	for _, ep := range cfg.Endpoints {
		if ep.URL == "" {
			return nil, fmt.Errorf("endpoint %q: url is required", ep.Name)
		}
		if ep.Namespace != "" && ep.Namespace[0] != '/' {
			return nil, fmt.Errorf("endpoint %q: namespace must begin with '/'", ep.Name)
		}
		if seen[ep.Name] {
			return nil, fmt.Errorf("duplicate endpoint %q", ep.Name)
		}
		seen[ep.Name] = true

		if ep.Backoff != nil {
			if _, _, err := ep.Backoff.Delays(); err != nil {
				return nil, fmt.Errorf("endpoint %q: %w", ep.Name, err)
			}
			if ep.Backoff.Factor != 0 && ep.Backoff.Factor < 1.1 {
				return nil, fmt.Errorf("endpoint %q: backoff factor must be >= 1.1", ep.Name)
			}
		}
	}
	return &cfg, nil
}

// Endpoint returns the profile with the given name.
func (c *Config) Endpoint(name string) (*Endpoint, error) {
	for _, ep := range c.Endpoints {
		if ep.Name == name {
			return ep, nil
		}
	}
	return nil, fmt.Errorf("no endpoint %q in config", name)
}

// Delays parses the configured backoff durations. Zero values mean
// "keep the engine default".
func (b *Backoff) Delays() (initial, max time.Duration, err error) {
	if b.InitialDelay != "" {
		initial, err = time.ParseDuration(b.InitialDelay)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid initial_delay: %w", err)
		}
	}
	if b.MaxDelay != "" {
		max, err = time.ParseDuration(b.MaxDelay)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid max_delay: %w", err)
		}
	}
	return initial, max, nil
}
