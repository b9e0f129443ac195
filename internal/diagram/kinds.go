// Package diagram implements the per-blog diagram workflow: viability
// analysis, structure generation, and schema validation, each a single
// model call, plus persistence of the validated result.
package diagram

import "strings"

// Kind is one of the supported diagram shapes. The set is closed; each
// kind pairs a generation prompt with a structural validator.
type Kind string

// Supported diagram kinds.
const (
	KindFlowchart Kind = "flowchart"
	KindSequence  Kind = "sequence"
	KindClass     Kind = "class"
	KindER        Kind = "er"
	KindState     Kind = "state"
	KindMindmap   Kind = "mindmap"
	KindPie       Kind = "pie"
	KindTimeline  Kind = "timeline"
)

// kindAliases maps loose model output to canonical kinds. The analysis
// prompt offers "gantt" as a label; those land on the timeline shape.
var kindAliases = map[string]Kind{
	"flowchart":           KindFlowchart,
	"sequence":            KindSequence,
	"class":               KindClass,
	"er":                  KindER,
	"entity":              KindER,
	"entity relationship": KindER,
	"state":               KindState,
	"mindmap":             KindMindmap,
	"pie":                 KindPie,
	"timeline":            KindTimeline,
	"gantt":               KindTimeline,
}

// ParseKind resolves a case-insensitive, alias-tolerant type string.
func ParseKind(s string) (Kind, bool) {
	k, ok := kindAliases[strings.ToLower(strings.TrimSpace(s))]
	return k, ok
}

// Display returns the capitalized kind name used in diagram titles.
func (k Kind) Display() string {
	s := string(k)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
