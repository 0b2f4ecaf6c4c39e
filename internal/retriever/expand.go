package retriever

import "strings"

// maxLLMVariants caps model-generated expansions per query.
const maxLLMVariants = 3

// expansionRule maps trigger words in a query to formal document phrasings
// that the corpus is more likely to contain. Rules cover the recurring query
// shapes of regulatory and curriculum documents; the model fallback handles
// everything else.
type expansionRule struct {
	triggers []string
	variants []string
}

var expansionRules = []expansionRule{
	{
		triggers: []string{"elective", "electives", "wahlpflicht"},
		variants: []string{
			"elective modules catalog",
			"list of elective modules",
			"Wahlpflichtmodule",
		},
	},
	{
		triggers: []string{"module", "modules", "course", "courses"},
		variants: []string{
			"module handbook module descriptions",
			"module catalog overview",
		},
	},
	{
		triggers: []string{"thesis", "abschlussarbeit", "master thesis", "bachelor thesis"},
		variants: []string{
			"thesis registration requirements",
			"final thesis examination regulations",
		},
	},
	{
		triggers: []string{"internship", "praktikum", "placement"},
		variants: []string{
			"internship requirements and duration",
			"practical phase regulations",
		},
	},
	{
		triggers: []string{"exam", "examination", "prüfung", "retake"},
		variants: []string{
			"examination regulations",
			"exam registration and repetition rules",
		},
	},
	{
		triggers: []string{"credit", "credits", "ects"},
		variants: []string{
			"ECTS credit points requirements",
			"credit distribution per semester",
		},
	},
	{
		triggers: []string{"admission", "enrol", "enroll", "zulassung"},
		variants: []string{
			"admission requirements",
			"enrollment prerequisites",
		},
	},
}

// ruleExpansions returns the variants of the first matching rule, or nil
// when no rule applies.
func ruleExpansions(query string) []string {
	q := strings.ToLower(query)
	for _, rule := range expansionRules {
		for _, t := range rule.triggers {
			if strings.Contains(q, t) {
				return rule.variants
			}
		}
	}
	return nil
}
