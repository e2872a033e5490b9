package runner

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// normalizeText folds a DOM text for exact comparison: NFC form, runs of
// whitespace (nbsp included) collapsed to one space, ends trimmed.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

// exactText reports whether got equals want after normalization.
func exactText(got, want string) bool {
	return normalizeText(got) == normalizeText(want)
}

func hasClass(classes []string, want string) bool {
	for _, c := range classes {
		if c == want {
			return true
		}
	}
	return false
}
