// Package runconfig resolves the invocation payload shared by the dispatcher,
// monitor, and audit ingester: a flat key/value map that may come from the
// process environment (Lambda-style invocation) or from an in-process map
// (library/event invocation).
package runconfig

import (
	"os"
	"strconv"
	"strings"

	"github.com/NetApp/FSx-ONTAP-monitoring/infrastructure/svcerr"
)

// Payload is the flat key/value invocation envelope. Environment-style
// invocation and event-map invocation both normalize down to this shape.
type Payload map[string]string

// FromEnviron builds a Payload from os.Environ(), keeping only keys present
// in allowed if allowed is non-empty; pass nil to keep everything.
func FromEnviron(allowed map[string]struct{}) Payload {
	p := Payload{}
	for _, kv := range os.Environ() {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key, value := parts[0], parts[1]
		if allowed != nil {
			if _, ok := allowed[key]; !ok {
				continue
			}
		}
		p[key] = value
	}
	return p
}

// Get returns the value for key, or defaultValue if absent or blank.
func (p Payload) Get(key, defaultValue string) string {
	if v, ok := p[key]; ok && strings.TrimSpace(v) != "" {
		return v
	}
	return defaultValue
}

// Require returns the value for key, or a svcerr.CodeConfiguration error if
// it is absent or blank.
func (p Payload) Require(key string) (string, error) {
	v, ok := p[key]
	if !ok || strings.TrimSpace(v) == "" {
		return "", svcerr.New(svcerr.CodeConfiguration, "missing required key "+key)
	}
	return v, nil
}

// GetBool parses key as a bool, defaulting to defaultValue on absence or
// parse failure.
func (p Payload) GetBool(key string, defaultValue bool) bool {
	v, ok := p[key]
	if !ok {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return defaultValue
	}
	return parsed
}

// GetInt parses key as an int, defaulting to defaultValue on absence or
// parse failure.
func (p Payload) GetInt(key string, defaultValue int) int {
	v, ok := p[key]
	if !ok {
		return defaultValue
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return defaultValue
	}
	return parsed
}

// WithPrefix returns the subset of keys carrying the given prefix; each key
// is kept unchanged, prefix included. Used for the "initial*"-prefixed
// bootstrap keys the dispatcher forwards to first-run invocations.
func (p Payload) WithPrefix(prefix string) Payload {
	out := Payload{}
	for k, v := range p {
		if strings.HasPrefix(k, prefix) {
			out[k] = v
		}
	}
	return out
}
