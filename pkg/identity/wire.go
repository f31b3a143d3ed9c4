package identity

import "github.com/PavelPerna/prefsync/pkg/prefs"

// The preference resource uses snake_case field names on the wire.  Older
// deployments of the identity service already answered in camelCase, so
// reads accept either; writes always produce the canonical snake_case form.
const wireDarkMode = "dark_mode"

// fromWire maps a wire-format preference record to internal keys.
func fromWire(body map[string]any) prefs.Map {
	m := make(prefs.Map, len(body))
	for k, v := range body {
		if k == wireDarkMode {
			k = prefs.KeyDarkMode
		}
		m[k] = v
	}
	return m
}

// toWire maps internal preference keys to the wire format.
func toWire(m prefs.Map) map[string]any {
	body := make(map[string]any, len(m))
	for k, v := range m {
		if k == prefs.KeyDarkMode {
			k = wireDarkMode
		}
		body[k] = v
	}
	return body
}
