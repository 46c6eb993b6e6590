// Package api carries the OpenAPI description of the ridekit HTTP API.
package api

import _ "embed"

// OpenAPI is the YAML document served at /docs/openapi.yaml.
//
//go:embed openapi.yaml
var OpenAPI []byte
