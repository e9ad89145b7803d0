package prompt

import "strings"

// Category identifies one of the fixed topical domains used to select a
// prompt fragment for the model.
type Category string

const (
	CategoryDefinition           Category = "definition"
	CategoryRights               Category = "rights"
	CategoryRegistration         Category = "registration"
	CategoryCollectiveBargaining Category = "collective_bargaining"
	CategoryStrike               Category = "strike"
	CategoryDisputeResolution    Category = "dispute_resolution"
	CategoryCompliance           Category = "compliance"
	CategoryHistorical           Category = "historical"
	CategoryPractical            Category = "practical"
)

type rule struct {
	category Category
	keywords []string
}

// rules is the classification priority table. Order matters: the keyword
// sets overlap, and the first matching entry wins.
var rules = []rule{
	{CategoryDefinition, []string{"define", "meaning", "what is", "explain term"}},
	{CategoryRights, []string{"right", "protection", "employee", "employer"}},
	{CategoryRegistration, []string{"register", "registration", "certificate"}},
	{CategoryCollectiveBargaining, []string{"collective", "bargaining", "agreement"}},
	{CategoryStrike, []string{"strike", "lock-out", "industrial action"}},
	{CategoryDisputeResolution, []string{"dispute", "mediation", "arbitration"}},
	{CategoryCompliance, []string{"compliance", "penalty", "law", "enforce"}},
	{CategoryHistorical, []string{"history", "historical", "background"}},
	{CategoryPractical, []string{"example", "scenario", "case", "practical"}},
}

// Categories returns every category in priority order.
func Categories() []Category {
	out := make([]Category, 0, len(rules))
	for _, r := range rules {
		out = append(out, r.category)
	}
	return out
}

// Classify scans message case-insensitively against the priority table and
// returns the first category whose keyword set matches. ok is false when no
// keyword matches; the caller then assembles with the system prompt alone.
func Classify(message string) (cat Category, ok bool) {
	lower := strings.ToLower(message)
	for _, r := range rules {
		for _, k := range r.keywords {
			if strings.Contains(lower, k) {
				return r.category, true
			}
		}
	}
	return "", false
}
