// Package config handles YAML config file loading for stockpipe run.
package config

import (
	"os"
	"regexp"
)

// envVarPattern matches the two expansion forms allowed in
// stockpipe.yaml values:
//
//	url: ${STOCKPIPE_WEBHOOK_URL}
//	region: ${AWS_REGION:-us-east-1}
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// ExpandEnv substitutes ${VAR} and ${VAR:-default} references in a raw
// config document before YAML parsing. Bare $VAR is left untouched.
//
// An unset variable without a default expands to the empty string
// rather than failing; a missing required value (an adapter URL, an S3
// bucket) then surfaces through the run command's validation.
func ExpandEnv(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 3 {
			return match
		}
		return lookupOrDefault(groups[1], groups[2])
	})
}

// lookupOrDefault resolves one variable reference. An empty value falls
// through to the default, matching shell ${VAR:-default} semantics.
func lookupOrDefault(name, fallback string) string {
	if value, ok := os.LookupEnv(name); ok && value != "" {
		return value
	}
	return fallback
}
