package delegate

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// rulesFile is the on-disk shape of a rules.yaml override:
//
//	rules:
//	  - category: code_rewrite
//	    keywords: [fix, hotfix, patch]
type rulesFile struct {
	Rules []struct {
		Category string   `yaml:"category"`
		Keywords []string `yaml:"keywords"`
	} `yaml:"rules"`
}

// LoadRules reads an ordered rule table from a YAML file. A missing file
// is not an error: the built-in DefaultRules are returned so a workspace
// without an override behaves identically to the defaults.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultRules(), nil
		}
		return nil, fmt.Errorf("read rules file %s: %w", path, err)
	}

	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse rules file %s: %w", path, err)
	}
	if len(f.Rules) == 0 {
		return nil, fmt.Errorf("rules file %s defines no rules", path)
	}

	rules := make([]Rule, 0, len(f.Rules))
	for i, r := range f.Rules {
		c := Category(r.Category)
		if !ValidCategory(c) {
			return nil, fmt.Errorf("rules file %s: rule %d has unknown category %q", path, i, r.Category)
		}
		if len(r.Keywords) == 0 {
			return nil, fmt.Errorf("rules file %s: rule %d (%s) has no keywords", path, i, r.Category)
		}
		rules = append(rules, Rule{Category: c, Keywords: r.Keywords})
	}
	return rules, nil
}
