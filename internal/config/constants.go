package config

import "time"

const (
	// DefaultAPIBaseURL is the local development address of the generation service
	DefaultAPIBaseURL = "http://localhost:8000"

	// DefaultConfigFile is read from the working directory when present
	DefaultConfigFile = "sitegen.toml"

	// DefaultOutputDir receives downloaded artifacts
	DefaultOutputDir = "./generated_websites"

	DefaultPollInterval     = 2 * time.Second
	DefaultProgressInterval = 500 * time.Millisecond
	DefaultCacheTTL         = 10 * time.Minute
)
