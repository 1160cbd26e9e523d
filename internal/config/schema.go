package config

import _ "embed"

// configSchema is the JSON Schema every configuration document must satisfy
// before decoding.
//
//go:embed config.schema.json
var configSchema []byte
