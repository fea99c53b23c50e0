package mcpserver

import (
	"os"
	"strings"
)

// SessionIDEnvVar overrides session identity derivation when set.
const SessionIDEnvVar = "ASKUSER_SESSION_ID"

// DeriveSessionID resolves the session identity for a request. Precedence:
// the explicit working directory argument, the ASKUSER_SESSION_ID
// environment variable, the caller's PWD, then this process's working
// directory. Trailing slashes are trimmed so the same directory always maps
// to the same identity.
func DeriveSessionID(workingDir string) string {
	if id := normalizeSessionID(workingDir); id != "" {
		return id
	}
	if id := normalizeSessionID(os.Getenv(SessionIDEnvVar)); id != "" {
		return id
	}
	if id := normalizeSessionID(os.Getenv("PWD")); id != "" {
		return id
	}
	if wd, err := os.Getwd(); err == nil {
		return normalizeSessionID(wd)
	}
	return ""
}

func normalizeSessionID(s string) string {
	s = strings.TrimSpace(s)
	for len(s) > 1 && strings.HasSuffix(s, "/") {
		s = strings.TrimSuffix(s, "/")
	}
	return s
}
