package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/spf13/pflag"
)

// configSchema constrains the shape of a `bnfgen gen --config` file:
// every field is optional, so a config only needs to override the
// flags it cares about.
const configSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "start":        { "type": "string", "minLength": 1 },
    "seed":         { "type": "integer" },
    "count":        { "type": "integer", "minimum": 1 },
    "max_steps":    { "type": "integer", "minimum": 0 },
    "max_attempts": { "type": "integer", "minimum": 1 },
    "strict":       { "type": "boolean" }
  }
}`

var compiledConfigSchema *jsonschema.Schema

func init() {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("schema://bnfgen-config.json", strings.NewReader(configSchema)); err != nil {
		panic(fmt.Sprintf("cmd/bnfgen: invalid embedded config schema: %v", err))
	}
	schema, err := compiler.Compile("schema://bnfgen-config.json")
	if err != nil {
		panic(fmt.Sprintf("cmd/bnfgen: failed to compile embedded config schema: %v", err))
	}
	compiledConfigSchema = schema
}

// genConfig is the decoded, schema-validated shape of a --config file.
// Every field is a pointer so applyDefaults can tell "absent" from
// "explicitly zero".
type genConfig struct {
	Start       *string `json:"start"`
	Seed        *int64  `json:"seed"`
	Count       *int    `json:"count"`
	MaxSteps    *int    `json:"max_steps"`
	MaxAttempts *int    `json:"max_attempts"`
	Strict      *bool   `json:"strict"`
}

func loadConfig(path string) (*genConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if err := compiledConfigSchema.Validate(generic); err != nil {
		return nil, fmt.Errorf("config does not match schema: %w", err)
	}

	var cfg genConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults overrides each flag variable whose config field was
// set, unless that flag was passed explicitly on the command line
// (checked via flags.Changed), in which case the explicit
// flag wins. This makes config values act as new defaults rather than
// silently overriding a value the user typed.
func (c *genConfig) applyDefaults(flags *pflag.FlagSet, start *string, seed *int64, count, maxSteps, maxAttempts *int, strict *bool) {
	if c.Start != nil && !flags.Changed("start") {
		*start = *c.Start
	}
	if c.Seed != nil && !flags.Changed("seed") {
		*seed = *c.Seed
	}
	if c.Count != nil && !flags.Changed("count") {
		*count = *c.Count
	}
	if c.MaxSteps != nil && !flags.Changed("max-steps") {
		*maxSteps = *c.MaxSteps
	}
	if c.MaxAttempts != nil && !flags.Changed("max-attempts") {
		*maxAttempts = *c.MaxAttempts
	}
	if c.Strict != nil && !flags.Changed("strict") {
		*strict = *c.Strict
	}
}
