// Package prefs defines the preference data model shared by the local and
// remote stores: the preference map, its defaults, and value validation.
package prefs

// Preference keys recognized by the platform.  Unknown keys are passed
// through the stores unvalidated.
const (
	KeyLanguage = "language"
	KeyDarkMode = "darkMode"
)

// DefaultLanguage is used when no language preference is stored, or when a
// stored code is not supported.
const DefaultLanguage = "en"

// supportedLanguages holds the UI languages shipped with the platform.
var supportedLanguages = map[string]struct{}{
	"en": {},
	"cs": {},
	"de": {},
	"es": {},
	"fr": {},
	"sk": {},
}

// Map holds preference values keyed by preference name.  Known keys carry
// string or bool values.
type Map map[string]any

// Defaults returns a new Map populated with the default value for every
// known preference key.
func Defaults() Map {
	return Map{
		KeyLanguage: DefaultLanguage,
		KeyDarkMode: false,
	}
}

// Clone returns a shallow copy of m.
func (m Map) Clone() Map {
	c := make(Map, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

// Merge returns a copy of m with every missing known key filled from the
// defaults.  The result always contains language and darkMode; callers never
// observe an absent key.
func Merge(m Map) Map {
	out := Defaults()
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Language returns the language value of m, or the default when missing or
// not a string.
func (m Map) Language() string {
	if v, ok := m[KeyLanguage].(string); ok {
		return v
	}
	return DefaultLanguage
}

// DarkMode returns the darkMode value of m, or false when missing or not a
// bool.
func (m Map) DarkMode() bool {
	v, _ := m[KeyDarkMode].(bool)
	return v
}

// ValidLanguage reports whether code is one of the supported UI languages.
func ValidLanguage(code string) bool {
	_, ok := supportedLanguages[code]
	return ok
}

// SanitizeLanguage returns code if supported, otherwise the default
// language.  Invalid values are coerced rather than rejected so a bad stored
// code can never break preference reads.
func SanitizeLanguage(code string) string {
	if ValidLanguage(code) {
		return code
	}
	return DefaultLanguage
}

// Sanitize returns a copy of m with known keys coerced to safe values:
// unsupported or non-string languages become the default language,
// non-bool darkMode becomes false.  Unknown keys are preserved as-is.
func Sanitize(m Map) Map {
	out := m.Clone()
	if v, ok := out[KeyLanguage]; ok {
		s, isStr := v.(string)
		if !isStr || !ValidLanguage(s) {
			out[KeyLanguage] = DefaultLanguage
		}
	}
	if v, ok := out[KeyDarkMode]; ok {
		if _, isBool := v.(bool); !isBool {
			out[KeyDarkMode] = false
		}
	}
	return out
}
