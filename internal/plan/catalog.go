package plan

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/felixgeelhaar/agentplan/pkg/agentplan/types"
)

// department is one entry of the functional department catalog
type department struct {
	Name     string
	Mandate  string
	Keywords []string
	Themes   []string
}

// departmentCatalog lists the functional departments in their default
// order. QA is deliberately absent: verification is injected separately.
var departmentCatalog = []department{
	{
		Name:     "Research",
		Mandate:  "validates the problem and gathers the evidence the other departments build on",
		Keywords: []string{"research", "study", "experiment", "insight", "explore", "llm", "model"},
		Themes:   []string{"Problem Discovery", "Prior Art Review", "Experiment Design", "User Interviews", "Feasibility Study", "Insight Synthesis"},
	},
	{
		Name:     "Product",
		Mandate:  "turns the idea into scoped, prioritized outcomes",
		Keywords: []string{"product", "user", "customer", "feature", "roadmap", "recommend", "app"},
		Themes:   []string{"Requirements", "Roadmap", "User Journeys", "Scope and Prioritization", "Success Metrics", "Release Planning"},
	},
	{
		Name:     "Design",
		Mandate:  "shapes how people experience the result",
		Keywords: []string{"design", "ui", "ux", "interface", "brand", "visual", "page", "mobile"},
		Themes:   []string{"Information Architecture", "Interaction Design", "Visual System", "Prototyping", "Usability Testing", "Accessibility"},
	},
	{
		Name:     "Engineering",
		Mandate:  "builds and integrates the working system",
		Keywords: []string{"build", "platform", "api", "backend", "system", "code", "service", "agent", "integrat", "tool"},
		Themes:   []string{"Core Services", "API Layer", "Data Model", "Integrations", "Developer Tooling", "Performance"},
	},
	{
		Name:     "Data",
		Mandate:  "sources, prepares and measures the data the system depends on",
		Keywords: []string{"data", "dataset", "pipeline", "analytics", "metric", "train", "recommend", "search"},
		Themes:   []string{"Data Sourcing", "Pipelines", "Feature Engineering", "Model Evaluation", "Analytics", "Data Quality"},
	},
	{
		Name:     "Operations",
		Mandate:  "keeps the system deployed, observable and affordable",
		Keywords: []string{"deploy", "infra", "ops", "scale", "reliab", "monitor", "cloud", "process"},
		Themes:   []string{"Infrastructure", "Deployment", "Observability", "Incident Response", "Cost Management", "Runbooks"},
	},
	{
		Name:     "Security",
		Mandate:  "protects users, data and the organization from misuse",
		Keywords: []string{"secur", "privacy", "auth", "compliance", "risk", "safety", "payment"},
		Themes:   []string{"Threat Modeling", "Access Control", "Privacy Review", "Secrets Management", "Compliance", "Security Testing"},
	},
	{
		Name:     "Growth",
		Mandate:  "brings the result to its audience and learns from them",
		Keywords: []string{"growth", "marketing", "launch", "sales", "pricing", "community", "business", "startup"},
		Themes:   []string{"Positioning", "Launch Campaign", "Onboarding", "Pricing", "Community", "Feedback Loops"},
	},
}

// phrasePools holds the title phrases per level for one lineage
type phrasePools struct {
	Projects []string
	Tasks    []string
	Steps    []string
}

var standardPhrases = phrasePools{
	Projects: []string{"Discovery", "Foundations", "Core Build", "Integration", "Hardening", "Launch Readiness"},
	Tasks: []string{
		"Define the requirements brief",
		"Design the interface contract",
		"Implement the core workflow",
		"Write the evaluation plan",
		"Set up monitoring hooks",
		"Document the runbook",
	},
	Steps: []string{
		"Draft the outline",
		"List open questions",
		"Write the first version",
		"Check the draft against the brief",
		"Record decisions and trade-offs",
		"Prepare the handoff note",
		"Create sample inputs",
		"Summarize findings",
	},
}

var qaPhrases = phrasePools{
	Projects: []string{"Test Planning", "Regression Suite", "Acceptance Review", "Release Verification", "Defect Triage"},
	Tasks: []string{
		"Write test cases",
		"Run the regression pass",
		"Review acceptance evidence",
		"Verify fixed defects",
		"Audit coverage gaps",
	},
	Steps: []string{
		"Write one test case",
		"Execute the checklist",
		"Log defects found",
		"Re-test a fix",
		"Capture evidence screenshots",
		"Compare output with expectations",
	},
}

// qaTheme is the title phrase of the QA program injected under a department
const qaTheme = "Verification"

// departmentRoles selects n departments for the idea. Departments are ranked
// by keyword relevance (ties keep catalog order); once the catalog is
// exhausted, roles are reused with a numeric suffix.
func departmentRoles(idea string, n int) []department {
	words := strings.FieldsFunc(strings.ToLower(idea), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	ranked := make([]department, len(departmentCatalog))
	copy(ranked, departmentCatalog)
	scores := make(map[string]int, len(ranked))
	for _, d := range ranked {
		for _, kw := range d.Keywords {
			if matchesPrefix(words, kw) {
				scores[d.Name]++
			}
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return scores[ranked[i].Name] > scores[ranked[j].Name]
	})

	out := make([]department, 0, n)
	for i := 0; i < n; i++ {
		d := ranked[i%len(ranked)]
		if round := i / len(ranked); round > 0 {
			d.Name = fmt.Sprintf("%s %d", d.Name, round+1)
		}
		out = append(out, d)
	}
	return out
}

// matchesPrefix reports whether any word starts with the keyword stem
func matchesPrefix(words []string, stem string) bool {
	for _, w := range words {
		if strings.HasPrefix(w, stem) {
			return true
		}
	}
	return false
}

// pick returns the phrase for sibling slot i, rotating through the pool
// from a per-parent offset so siblings never repeat while the pool lasts.
func pick(pool []string, offset, i int) string {
	return pool[(offset+i)%len(pool)]
}

// phraseFor returns the title phrase for a node of type t in the lineage
func (ln lineage) phraseFor(t types.NodeType, offset, i int) string {
	pools := standardPhrases
	if ln.qa {
		pools = qaPhrases
	}
	switch t {
	case types.NodeTypeProgram:
		return pick(ln.themes, offset, i)
	case types.NodeTypeProject:
		return pick(pools.Projects, offset, i)
	case types.NodeTypeTask:
		return pick(pools.Tasks, offset, i)
	default:
		return pick(pools.Steps, offset, i)
	}
}
