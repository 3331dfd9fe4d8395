package lint

import (
	"regexp"
	"strings"

	"github.com/jingkaihe/specforge/pkg/markdown"
)

var (
	componentRE    = regexp.MustCompile(`(?im)^###[ \t]+Component:[ \t]+(.+?)[ \t]*$`)
	statelessRE    = regexp.MustCompile(`(?i)State machine:\s*N/A`)
	rollbackWordRE = regexp.MustCompile(`(?i)\brollback\b`)
)

func checkComponentStateMachines(doc *Document) []Finding {
	comps := componentRE.FindAllStringSubmatchIndex(doc.Text, -1)

	var out []Finding
	for i, m := range comps {
		end := len(doc.Text)
		if i+1 < len(comps) {
			end = comps[i+1][0]
		}
		blk := doc.Text[m[0]:end]
		if strings.Contains(blk, "stateDiagram") || statelessRE.MatchString(blk) {
			continue
		}
		out = append(out, newFinding(SeverityWarn, CodeComponentStateMachine, markdown.LineAt(doc.Text, m[0]),
			"Component '%s' missing state machine (stateDiagram) or 'State machine: N/A (stateless)'.",
			doc.Text[m[2]:m[3]]))
	}
	return out
}

func checkDeploymentRollback(doc *Document) []Finding {
	h, sec, ok := doc.Section("deployment")
	if !ok || rollbackWordRE.MatchString(sec) {
		return nil
	}
	return []Finding{newFinding(SeverityWarn, CodeDeploymentRollback, h.Line,
		"Deployment section missing explicit rollback strategy.")}
}
