package config

import (
	"fmt"
	"strings"
)

const OptionClassesDir = "classes_dir"

// ParseAgentOptions parses the single optional agent argument. An empty
// string yields zero options; otherwise exactly one key=value pair is
// accepted and the only known key is classes_dir.
func ParseAgentOptions(raw string) (AgentOptions, error) {
	var opts AgentOptions

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return opts, nil
	}

	if strings.Contains(raw, ",") {
		return opts, fmt.Errorf("only a single key=value option is supported: %s", raw)
	}

	key, value, found := strings.Cut(raw, "=")
	if !found {
		return opts, fmt.Errorf("option must have the form key=value: %s", raw)
	}

	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)

	switch key {
	case OptionClassesDir:
		if value == "" {
			return opts, fmt.Errorf("%s must not be empty", OptionClassesDir)
		}
		opts.ClassesDir = value
	default:
		return opts, fmt.Errorf("unknown option %q", key)
	}

	return opts, nil
}

// String renders the options back into agent argument form.
func (o AgentOptions) String() string {
	if o.ClassesDir == "" {
		return ""
	}
	return OptionClassesDir + "=" + o.ClassesDir
}
