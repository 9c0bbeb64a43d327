package override

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/John-Robertt/override-go/internal/profile"
)

// Classifier reports whether a proxy belongs to the region identified by
// filterCode.
type Classifier func(proxyName, filterCode string) bool

// MatchSubstring is a case-insensitive substring test. An empty code matches
// every proxy.
func MatchSubstring(proxyName, filterCode string) bool {
	return strings.Contains(strings.ToLower(proxyName), strings.ToLower(filterCode))
}

// MatchWord matches when the words of filterCode appear as consecutive whole
// words of proxyName, ignoring case. Words are runs of letters and digits, so
// "US" matches "US-01" and "🇺🇸 US 01" but not "Russia".
func MatchWord(proxyName, filterCode string) bool {
	code := words(filterCode)
	if len(code) == 0 {
		return true
	}
	name := words(proxyName)
	for i := 0; i+len(code) <= len(name); i++ {
		hit := true
		for j := range code {
			if name[i+j] != code[j] {
				hit = false
				break
			}
		}
		if hit {
			return true
		}
	}
	return false
}

func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// ClassifierFor resolves a profile "match" value. Empty means substring.
func ClassifierFor(name string) (Classifier, error) {
	switch name {
	case "", profile.MatchSubstring:
		return MatchSubstring, nil
	case profile.MatchWord:
		return MatchWord, nil
	default:
		return nil, fmt.Errorf("unknown classifier %q", name)
	}
}
