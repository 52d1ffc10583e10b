// Package site maps a page URL to the bank label used as a transaction's
// input source.
package site

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Generic is the label for pages no rule matches.
const Generic = "Generic"

// Rule labels every URL containing Pattern.
type Rule struct {
	Pattern string `yaml:"pattern"`
	Label   string `yaml:"label"`
}

type rulesFile struct {
	Sites []Rule `yaml:"sites"`
}

// DefaultRules returns the built-in bank domains.
func DefaultRules() []Rule {
	return []Rule{
		{Pattern: "chase.com", Label: "Chase"},
		{Pattern: "bankofamerica.com", Label: "Bank of America"},
		{Pattern: "wellsfargo.com", Label: "Wells Fargo"},
		{Pattern: "capitalone.com", Label: "Capital One"},
		{Pattern: "citibank.com", Label: "Citibank"},
	}
}

// Detect returns the label of the first rule whose pattern occurs in url,
// compared case-insensitively, or Generic.
func Detect(url string, rules []Rule) string {
	u := strings.ToLower(url)
	for _, r := range rules {
		p := strings.ToLower(strings.TrimSpace(r.Pattern))
		if p != "" && strings.Contains(u, p) {
			return r.Label
		}
	}
	return Generic
}

// LoadRules reads a YAML rules file:
//
//	sites:
//	  - pattern: tangerine.ca
//	    label: Tangerine
//
// Loaded rules come first; DefaultRules are appended so they still apply.
func LoadRules(path string) ([]Rule, error) {
	if path == "" {
		return nil, errors.New("rules path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}

	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	if err := validate(f.Sites); err != nil {
		return nil, err
	}

	return append(f.Sites, DefaultRules()...), nil
}

func validate(rules []Rule) error {
	for i, r := range rules {
		if strings.TrimSpace(r.Pattern) == "" {
			return fmt.Errorf("sites[%d].pattern is required", i)
		}
		if strings.TrimSpace(r.Label) == "" {
			return fmt.Errorf("sites[%d] (%s) must define label", i, r.Pattern)
		}
	}
	return nil
}
