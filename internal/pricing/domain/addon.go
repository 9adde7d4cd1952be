package domain

import "strings"

// addonAliases maps legacy or marketing addon codes onto catalog codes.
// This is the only alias table; pricing and catalog linkage both read it.
var addonAliases = map[string]string{
	"boost":            "highlighted",
	"visibility-boost": "highlighted",
	"highlight":        "highlighted",
	"social-boost":     "social-media-promotion",
	"email-blast":      "social-media-promotion",
	"extended":         "top-of-search",
}

// NormalizeAddonCode returns the canonical catalog code for an addon.
// Unknown codes pass through trimmed and lower-cased.
func NormalizeAddonCode(code string) string {
	key := strings.ToLower(strings.TrimSpace(code))
	if canonical, ok := addonAliases[key]; ok {
		return canonical
	}
	return key
}

// NormalizeAddonCodes normalizes every code, preserving order and duplicates.
func NormalizeAddonCodes(codes []string) []string {
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		out = append(out, NormalizeAddonCode(code))
	}
	return out
}

// AddonAliases returns a copy of the alias table.
func AddonAliases() map[string]string {
	out := make(map[string]string, len(addonAliases))
	for k, v := range addonAliases {
		out[k] = v
	}
	return out
}
