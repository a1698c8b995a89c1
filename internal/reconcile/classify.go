package reconcile

import (
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Default hierarchy levels per source section when no rule matches the
// position title. Smaller is higher rank.
const (
	DefaultLevelHeadOffice = 4
	DefaultLevelDistrict   = 5
	DefaultLevelBranch     = 7
)

// Rule maps position-title keywords to a hierarchy level. Rules are checked
// in order; the first rule with a matching keyword wins, so more specific
// qualifiers (deputy, assistant) must precede the titles they qualify.
type Rule struct {
	Keywords []string `yaml:"keywords"`
	Level    int      `yaml:"level"`
	IsHead   bool     `yaml:"is_head"`
}

// Classifier derives hierarchy level and head-of-institution status from a
// position title.
type Classifier struct {
	rules []Rule
}

// DefaultRules covers the common Sri Lankan public-institution titles.
func DefaultRules() []Rule {
	return []Rule{
		{Keywords: []string{"deputy", "additional", "vice"}, Level: 2},
		{Keywords: []string{"assistant", "acting"}, Level: 3},
		{
			Keywords: []string{
				"director general", "chairman", "chairperson", "secretary",
				"general manager", "commissioner general", "governor",
				"managing director", "chief executive", "postmaster general",
				"surveyor general",
			},
			Level:  1,
			IsHead: true,
		},
		{Keywords: []string{"director", "commissioner", "registrar", "controller", "chief"}, Level: 2},
	}
}

// NewClassifier builds a Classifier; nil rules means DefaultRules.
func NewClassifier(rules []Rule) *Classifier {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Classifier{rules: rules}
}

// LoadRules parses a YAML rule list, letting deployments override the
// built-in title taxonomy without a rebuild.
func LoadRules(raw []byte) ([]Rule, error) {
	var rules []Rule
	if err := yaml.Unmarshal(raw, &rules); err != nil {
		return nil, eris.Wrap(err, "reconcile: parse classifier rules")
	}
	if len(rules) == 0 {
		return nil, eris.New("reconcile: classifier rules empty")
	}
	return rules, nil
}

// Classify returns the hierarchy level and head flag for a position title.
// Unmatched titles get defaultLevel and are never heads.
func (c *Classifier) Classify(position string, defaultLevel int) (int, bool) {
	title := strings.ToLower(position)
	for _, r := range c.rules {
		for _, kw := range r.Keywords {
			if strings.Contains(title, kw) {
				return r.Level, r.IsHead
			}
		}
	}
	return defaultLevel, false
}
