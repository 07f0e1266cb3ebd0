package parser

import "sort"

// knownFunctions is the fixed registry of built-in function names. The
// parser rejects any other identifier at parse time, so a typo never
// survives into generation.
var knownFunctions = map[string]struct{}{
	"rand.regex":             {},
	"rand.range":             {},
	"rand.range_inclusive":   {},
	"rand.uniform":           {},
	"rand.uniform_inclusive": {},
	"rand.bool":              {},
	"rand.zipf":              {},
	"rand.log_normal":        {},
	"rand.finite_f32":        {},
	"rand.finite_f64":        {},
	"rand.uuid":              {},
	"rand.u31_timestamp":     {},
	"rand.shuffle":           {},
	"rand.weighted":          {},
	"substring":              {},
	"overlay":                {},
	"octet_length":           {},
	"char_length":            {},
	"character_length":       {},
	"to_hex":                 {},
	"from_hex":               {},
	"to_base64":              {},
	"from_base64":            {},
	"to_base64url":           {},
	"from_base64url":         {},
	"greatest":               {},
	"least":                  {},
	"round":                  {},
	"div":                    {},
	"mod":                    {},
	"coalesce":               {},
	"generate_series":        {},
	"debug.panic":            {},
}

// FunctionNames lists every recognized built-in, sorted.
func FunctionNames() []string {
	names := make([]string, 0, len(knownFunctions))
	for name := range knownFunctions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// KnownFunction reports whether the (normalized) name is a built-in.
func KnownFunction(name string) bool {
	_, ok := knownFunctions[name]
	return ok
}

// canonicalName folds alias names onto their primary built-in.
func canonicalName(name string) string {
	switch name {
	case "character_length":
		return "char_length"
	case "from_base64url":
		return "from_base64"
	}
	return name
}
