package eval

import "github.com/mmrzaf/dumpgen/internal/value"

// builtins maps every function and operator name the parser can emit to
// its implementation. AND, OR and the statement sequence are missing on
// purpose: they compile into dedicated plan nodes.
var builtins = map[string]Function{
	// operators
	"neg":    funcOf(fnNeg),
	"~":      funcOf(fnBitNot),
	"+":      arith("+", value.Value.Add),
	"-":      arith("-", value.Value.Sub),
	"*":      arith("*", value.Value.Mul),
	"/":      arith("/", value.Value.FloatDiv),
	"||":     funcOf(fnConcat),
	"=":      compare("=", false, true, false),
	"<>":     compare("<>", true, false, true),
	"<":      compare("<", true, false, false),
	">":      compare(">", false, false, true),
	"<=":     compare("<=", true, true, false),
	">=":     compare(">=", false, true, true),
	"is":     identical("is", true),
	"is not": identical("is not", false),
	"not":    funcOf(fnNot),
	"&":      bitwise("&", func(a, b int64) int64 { return a & b }),
	"|":      bitwise("|", func(a, b int64) int64 { return a | b }),
	"^":      bitwise("^", func(a, b int64) int64 { return a ^ b }),
	"[]":     funcOf(fnSubscript),

	// numeric
	"div":      funcOf(fnDiv),
	"mod":      funcOf(fnMod),
	"round":    funcOf(fnRound),
	"greatest": extremum("greatest", 1),
	"least":    extremum("least", -1),
	"coalesce": funcOf(fnCoalesce),

	// strings
	"substring":        funcOf(fnSubstring),
	"substring_octets": funcOf(fnSubstringOctets),
	"overlay":          funcOf(fnOverlay),
	"overlay_octets":   funcOf(fnOverlayOctets),
	"char_length":      funcOf(fnCharLength),
	"octet_length":     funcOf(fnOctetLength),

	// codecs
	"to_hex":       funcOf(fnToHex),
	"from_hex":     funcOf(fnFromHex),
	"to_base64":    funcOf(fnToBase64),
	"to_base64url": funcOf(fnToBase64URL),
	"from_base64":  funcOf(fnFromBase64),

	// arrays
	"array":           funcOf(fnArray),
	"generate_series": funcOf(fnGenerateSeries),

	// time
	"timestamp":                funcOf(fnTimestamp),
	"timestamp with time zone": funcOf(fnTimestampTZ),

	// random
	"rand.regex":             funcOf(fnRandRegex),
	"rand.range":             randRange("rand.range", false),
	"rand.range_inclusive":   randRange("rand.range_inclusive", true),
	"rand.uniform":           randUniform("rand.uniform", false),
	"rand.uniform_inclusive": randUniform("rand.uniform_inclusive", true),
	"rand.bool":              funcOf(fnRandBool),
	"rand.zipf":              funcOf(fnRandZipf),
	"rand.log_normal":        funcOf(fnRandLogNormal),
	"rand.finite_f32":        funcOf(fnRandFiniteF32),
	"rand.finite_f64":        funcOf(fnRandFiniteF64),
	"rand.u31_timestamp":     funcOf(fnRandU31Timestamp),
	"rand.uuid":              funcOf(fnRandUUID),
	"rand.shuffle":           funcOf(fnRandShuffle),
	"rand.weighted":          funcOf(fnRandWeighted),

	// debugging
	"debug.panic": funcOf(fnPanic),
}
