package main

import _ "embed"

// embeddedConfig holds the default YAML configuration compiled into the binary.
//
//go:embed embed_config.yaml
var embeddedConfig []byte
