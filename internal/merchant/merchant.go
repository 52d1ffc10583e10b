// Package merchant maps transaction descriptions to merchant logos.
package merchant

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

type entry struct {
	key  string
	logo string
}

// known is searched in order; the first partial match wins.
var known = []entry{
	{"chase", "https://logo.clearbit.com/chase.com"},
	{"wells fargo", "https://logo.clearbit.com/wellsfargo.com"},
	{"bank of america", "https://logo.clearbit.com/bankofamerica.com"},
	{"citibank", "https://logo.clearbit.com/citibank.com"},
	{"capital one", "https://logo.clearbit.com/capitalone.com"},
	{"amazon", "https://logo.clearbit.com/amazon.com"},
	{"walmart", "https://logo.clearbit.com/walmart.com"},
	{"target", "https://logo.clearbit.com/target.com"},
	{"apple", "https://logo.clearbit.com/apple.com"},
	{"netflix", "https://logo.clearbit.com/netflix.com"},
	{"spotify", "https://logo.clearbit.com/spotify.com"},
	{"uber", "https://logo.clearbit.com/uber.com"},
	{"lyft", "https://logo.clearbit.com/lyft.com"},
	{"doordash", "https://logo.clearbit.com/doordash.com"},
	{"grubhub", "https://logo.clearbit.com/grubhub.com"},
}

// minAbbrev is the shortest word tried as an abbreviation of a merchant.
const minAbbrev = 4

// Logo returns the logo URL for the merchant named in description.
//
// Matching is case-insensitive and tried in three passes:
//  1. the whole description equals a merchant name
//  2. the description contains a merchant name, or is part of one
//  3. a word of the description abbreviates a merchant name
//     ("AMZN MKTP" -> amazon): same first letter, letters in order,
//     at most half the name dropped
func Logo(description string) (string, bool) {
	name := strings.ToLower(strings.Join(strings.Fields(description), " "))
	if name == "" {
		return "", false
	}

	for _, e := range known {
		if name == e.key {
			return e.logo, true
		}
	}
	for _, e := range known {
		if strings.Contains(name, e.key) || strings.Contains(e.key, name) {
			return e.logo, true
		}
	}
	for _, word := range strings.Fields(name) {
		if len(word) < minAbbrev {
			continue
		}
		for _, e := range known {
			if word[0] != e.key[0] {
				continue
			}
			if d := fuzzy.RankMatchFold(word, e.key); d >= 0 && d <= len(e.key)/2 {
				return e.logo, true
			}
		}
	}
	return "", false
}
