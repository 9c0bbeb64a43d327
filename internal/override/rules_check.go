package override

import (
	"errors"

	"github.com/John-Robertt/override-go/internal/model"
	"github.com/John-Robertt/override-go/internal/rules"
)

// DanglingTarget is a rule whose target names nothing in the config.
type DanglingTarget struct {
	Line   int // 1-based position in rules
	Rule   string
	Target string
}

// CheckRuleTargets reports rules pointing at unknown groups or proxies.
// Lines that do not parse are returned separately and not checked.
// SUB-RULE targets name sub-rule sets, not policies, and are skipped.
func CheckRuleTargets(cfg model.Config) (dangling []DanglingTarget, unparsed []*rules.ParseError) {
	known := knownTargets(cfg)
	for i, raw := range cfg.Rules {
		r, err := rules.ParseAt(i+1, raw)
		if err != nil {
			var pe *rules.ParseError
			if errors.As(err, &pe) {
				unparsed = append(unparsed, pe)
			}
			continue
		}
		if r.Type == "SUB-RULE" {
			continue
		}
		if _, ok := known[r.Target]; !ok {
			dangling = append(dangling, DanglingTarget{Line: i + 1, Rule: raw, Target: r.Target})
		}
	}
	return dangling, unparsed
}
