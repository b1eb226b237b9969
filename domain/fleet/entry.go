// Package fleet parses the fleet descriptor: one line per managed cluster,
// "host,secretRef[,key=value,...]".
package fleet

import (
	"strings"
)

// Entry is one parsed fleet descriptor line.
type Entry struct {
	Host      string
	SecretRef string
	Overrides map[string]string
}

// knownOverrideKeys lists the override keys a descriptor line may set.
// Anything else is a warn-and-ignore.
var knownOverrideKeys = map[string]struct{}{
	"timeoutSeconds":       {},
	"secretUsernameKey":    {},
	"secretPasswordKey":    {},
	"webhookSeverity":      {},
	"maxAllowedFailures":   {},
	"stalledTransferSecs":  {},
}

// Warning is a non-fatal issue found while parsing one line.
type Warning struct {
	Line    int
	Message string
}

// Parse reads the fleet descriptor text and returns the valid entries plus
// any warnings for skipped or partially-ignored lines. Lines starting with
// "#" and blank lines (after trimming) are silently ignored, not warned.
func Parse(text string) ([]Entry, []Warning) {
	var entries []Entry
	var warnings []Warning

	for i, rawLine := range strings.Split(text, "\n") {
		lineNo := i + 1
		line := strings.TrimSpace(rawLine)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, ",")
		if len(fields) < 2 {
			warnings = append(warnings, Warning{Line: lineNo, Message: "fewer than 2 fields, skipping: " + line})
			continue
		}

		entry := Entry{
			Host:      strings.TrimSpace(fields[0]),
			SecretRef: strings.TrimSpace(fields[1]),
			Overrides: map[string]string{},
		}

		for _, kv := range fields[2:] {
			kv = strings.TrimSpace(kv)
			if kv == "" {
				continue
			}
			parts := strings.SplitN(kv, "=", 2)
			if len(parts) != 2 {
				warnings = append(warnings, Warning{Line: lineNo, Message: "malformed override, ignoring: " + kv})
				continue
			}
			key := strings.TrimSpace(parts[0])
			if _, known := knownOverrideKeys[key]; !known {
				warnings = append(warnings, Warning{Line: lineNo, Message: "unknown override key, ignoring: " + key})
				continue
			}
			entry.Overrides[key] = strings.TrimSpace(parts[1])
		}

		entries = append(entries, entry)
	}

	return entries, warnings
}
