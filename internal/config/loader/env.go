package loader

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvLoader loads configuration from environment variables.
//
// Variables listed in the mapping go to their mapped path. Other variables
// with the prefix are converted by splitting on underscores: the first word
// names a section and the rest form a camelCase key, so
// HIGHLIGHTER_STYLE_FILL_OPACITY becomes style.fillOpacity.
type EnvLoader struct {
	prefix  string            // includes the trailing underscore
	mapping map[string]string // env var -> config path
	environ func() []string
}

// NewEnvLoader creates an environment loader with the default mapping.
// The prefix should include the trailing underscore (e.g. "HIGHLIGHTER_").
func NewEnvLoader(prefix string) *EnvLoader {
	return NewEnvLoaderWithMapping(prefix, DefaultEnvMapping(prefix))
}

// NewEnvLoaderWithMapping creates a loader with custom mappings.
func NewEnvLoaderWithMapping(prefix string, mapping map[string]string) *EnvLoader {
	return &EnvLoader{
		prefix:  prefix,
		mapping: mapping,
		environ: os.Environ,
	}
}

// DefaultEnvMapping maps the top-level settings whose names contain
// underscores.
func DefaultEnvMapping(prefix string) map[string]string {
	return map[string]string{
		prefix + "POSITION":       "position",
		prefix + "PIXEL_RATIO":    "pixelRatio",
		prefix + "DELAY":          "delay",
		prefix + "FILL":           "style.fill",
		prefix + "FILL_OPACITY":   "style.fillOpacity",
		prefix + "STROKE":         "style.stroke",
		prefix + "STROKE_WIDTH":   "style.strokeWidth",
		prefix + "STROKE_OPACITY": "style.strokeOpacity",
		prefix + "LOG_LEVEL":      "log.level",
		prefix + "LOG_FORMAT":     "log.format",
	}
}

// Load reads the environment and returns a configuration map. Empty
// values count as set.
func (l *EnvLoader) Load() (map[string]any, error) {
	config := make(map[string]any)

	for _, env := range l.environ() {
		name, value, ok := strings.Cut(env, "=")
		if !ok || !strings.HasPrefix(name, l.prefix) {
			continue
		}
		path, mapped := l.mapping[name]
		if !mapped {
			path = l.envToPath(name)
		}
		if path == "" {
			continue
		}
		setByPath(config, path, parseValue(value))
	}

	return config, nil
}

// AddMapping adds a custom environment variable mapping.
func (l *EnvLoader) AddMapping(envVar, configPath string) {
	if l.mapping == nil {
		l.mapping = make(map[string]string)
	}
	l.mapping[envVar] = configPath
}

// envToPath converts PREFIX_SECTION_SOME_KEY to section.someKey.
func (l *EnvLoader) envToPath(env string) string {
	name := strings.TrimPrefix(env, l.prefix)
	parts := strings.FieldsFunc(name, func(r rune) bool { return r == '_' })
	if len(parts) == 0 {
		return ""
	}

	section := strings.ToLower(parts[0])
	if len(parts) == 1 {
		return section
	}

	key := strings.ToLower(parts[1])
	for _, part := range parts[2:] {
		key += strings.ToUpper(part[:1]) + strings.ToLower(part[1:])
	}
	return section + "." + key
}

// parseValue converts a variable's text to the most specific type: bool,
// int64, float64, time.Duration, or string. Numeric strings stay numeric;
// "1" and "0" are not treated as booleans.
func parseValue(s string) any {
	if s == "" {
		return s
	}

	switch strings.ToLower(s) {
	case "true", "yes", "on":
		return true
	case "false", "no", "off":
		return false
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if strings.ContainsAny(s, ".eE") {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return s
}

// setByPath sets a value in a nested map using a dot-separated path.
func setByPath(data map[string]any, path string, value any) {
	parts := strings.Split(path, ".")
	current := data

	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
}

// GetByPath reads a value from a nested map using a dot-separated path.
func GetByPath(data map[string]any, path string) (any, bool) {
	parts := strings.Split(path, ".")
	current := data

	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			return nil, false
		}
		current = next
	}
	v, ok := current[parts[len(parts)-1]]
	return v, ok
}
