// Package embedded carries the starter verify.yaml written by `verify init`.
package embedded

import _ "embed"

// Template is the starter verify.yaml content.
//
//go:embed verify.yaml
var Template []byte
