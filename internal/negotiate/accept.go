// Package negotiate implements §4.6: encoding negotiation, the
// static precompressed-variant lookup, and on-the-fly compression.
// Grounded on modules/caddyhttp/encode.acceptedEncodings (q-factor
// parsing) and caddyhttp/staticfiles.FileServer's static
// staticEncoding/staticEncodingPriority lookup, generalized from
// {br, gzip} to {br, zstd, gzip, deflate}.
package negotiate

import (
	"sort"
	"strconv"
	"strings"
)

// pref pairs an encoding token with its client-stated q-factor.
type pref struct {
	encoding string
	q        float64
}

// ParseAcceptEncoding returns the encodings acceptable to the client, in
// descending order of client preference (ties broken by header order).
// Encodings with q=0 are excluded, matching RFC 7231 §5.3.4.
func ParseAcceptEncoding(header string) []string {
	if header == "" {
		return nil
	}

	var prefs []pref
	for _, accepted := range strings.Split(header, ",") {
		parts := strings.Split(accepted, ";")
		name := strings.ToLower(strings.TrimSpace(parts[0]))
		if name == "" {
			continue
		}

		q := 1.0
		if len(parts) > 1 {
			qs := strings.ToLower(strings.TrimSpace(parts[1]))
			if strings.HasPrefix(qs, "q=") {
				if f, err := strconv.ParseFloat(qs[2:], 64); err == nil && f >= 0 && f <= 1 {
					q = f
				}
			}
		}
		if q < 0.00001 {
			continue
		}
		prefs = append(prefs, pref{encoding: name, q: q})
	}

	sort.SliceStable(prefs, func(i, j int) bool { return prefs[i].q > prefs[j].q })

	names := make([]string, len(prefs))
	for i, p := range prefs {
		names[i] = p.encoding
	}
	return names
}

// accepts reports whether encoding (or "*") appears in the client's
// preference list.
func accepts(prefs []string, encoding string) bool {
	for _, p := range prefs {
		if p == encoding || p == "*" {
			return true
		}
	}
	return false
}

// tiebreak is the fixed server-side preference order used when the client
// expresses no relative preference among acceptable encodings (
// §4.6: "br > zstd > gzip > deflate").
var tiebreak = []string{"br", "zstd", "gzip", "deflate"}

// staticTiebreak is the subset and order used for precompressed sibling
// lookup (§4.6: "{br, zstd, gzip}").
var staticTiebreak = []string{"br", "zstd", "gzip"}

var staticExtension = map[string]string{
	"br":   ".br",
	"zstd": ".zst",
	"gzip": ".gz",
}
