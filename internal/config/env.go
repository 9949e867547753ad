package config

import (
	"fmt"
	"os"
	"strconv"
)

// envVarPrefix is the prefix for all coderefine environment variables.
const envVarPrefix = "CODEREFINE_"

type envFieldType int

const (
	envTypeString envFieldType = iota
	envTypeInt
)

type envMapping struct {
	field string
	typ   envFieldType
}

// envMappings maps environment variable names (without prefix) to config fields.
var envMappings = map[string]envMapping{
	"BASE_URL":     {field: "server.base_url", typ: envTypeString},
	"TIMEOUT":      {field: "server.timeout", typ: envTypeInt},
	"MODEL":        {field: "analysis.model", typ: envTypeString},
	"LANGUAGE":     {field: "analysis.language", typ: envTypeString},
	"SESSION_FILE": {field: "session.file", typ: envTypeString},
	"LOG_LEVEL":    {field: "log.level", typ: envTypeString},
	"LOG_FILE":     {field: "log.file", typ: envTypeString},
	"JOBS":         {field: "check.jobs", typ: envTypeInt},
}

// LoadFromEnv applies environment variable overrides to the configuration.
// Environment variables are prefixed with CODEREFINE_ (e.g., CODEREFINE_BASE_URL).
func LoadFromEnv(cfg *Config) error {
	if cfg == nil {
		return nil
	}

	for suffix, mapping := range envMappings {
		envVar := envVarPrefix + suffix
		value := os.Getenv(envVar)
		if value == "" {
			continue
		}

		switch mapping.typ {
		case envTypeInt:
			i, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("invalid integer for %s: %q", envVar, value)
			}
			if err := setIntField(cfg, mapping.field, i); err != nil {
				return err
			}
		default:
			if err := setStringField(cfg, mapping.field, value); err != nil {
				return err
			}
		}
	}

	return nil
}

func setStringField(cfg *Config, field, value string) error {
	switch field {
	case "server.base_url":
		cfg.Server.BaseURL = value
	case "analysis.model":
		cfg.Analysis.Model = value
	case "analysis.language":
		cfg.Analysis.Language = value
	case "session.file":
		cfg.Session.File = value
	case "log.level":
		cfg.Log.Level = value
	case "log.file":
		cfg.Log.File = value
	default:
		return fmt.Errorf("unknown string field: %s", field)
	}
	return nil
}

func setIntField(cfg *Config, field string, value int) error {
	switch field {
	case "server.timeout":
		cfg.Server.Timeout = value
	case "check.jobs":
		cfg.Check.Jobs = value
	default:
		return fmt.Errorf("unknown integer field: %s", field)
	}
	return nil
}

// ListEnvVars returns every supported environment variable with a description.
func ListEnvVars() map[string]string {
	return map[string]string{
		"CODEREFINE_BASE_URL":     "Analysis service base URL",
		"CODEREFINE_TIMEOUT":      "Request timeout in seconds",
		"CODEREFINE_MODEL":        "Model identifier sent with each request",
		"CODEREFINE_LANGUAGE":     "Default language tag",
		"CODEREFINE_SESSION_FILE": "Path of the persisted session state",
		"CODEREFINE_LOG_LEVEL":    "Log level: debug, info, warn, error",
		"CODEREFINE_LOG_FILE":     "Log file for the interactive UI",
		"CODEREFINE_JOBS":         "Concurrent analyses for check",
	}
}
