package config

import (
	"fmt"
	"strings"

	"github.com/Netflix/go-env"
)

// Environment holds the process settings read from EBICS_* variables
type Environment struct {
	ConfigFile  string `env:"EBICS_CONFIG,default=ebics.yaml"`
	LogLevel    string `env:"EBICS_LOG_LEVEL,default=info"`
	Environment string `env:"EBICS_ENVIRONMENT,default=dev"`
}

var validEnvs = map[string]bool{
	"dev":     true,
	"test":    true,
	"prod":    true,
	"staging": true,
}

var validLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// NewEnvironment loads the EBICS_* environment variables
func NewEnvironment() (*Environment, error) {
	var e Environment

	if _, err := env.UnmarshalFromEnviron(&e); err != nil {
		return nil, fmt.Errorf("failed to unmarshal environment variables: %w", err)
	}

	if err := e.validate(); err != nil {
		return nil, err
	}
	return &e, nil
}

func (e *Environment) validate() error {
	e.LogLevel = strings.ToLower(e.LogLevel)
	if !validLevels[e.LogLevel] {
		return fmt.Errorf("invalid EBICS_LOG_LEVEL: %s", e.LogLevel)
	}
	if !validEnvs[e.Environment] {
		return fmt.Errorf("invalid EBICS_ENVIRONMENT: %s", e.Environment)
	}
	return nil
}
