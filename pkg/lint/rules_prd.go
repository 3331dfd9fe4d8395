package lint

import (
	"regexp"
	"sort"
	"strings"

	"github.com/jingkaihe/specforge/pkg/markdown"
)

var (
	// Story blocks for prose checks. Unlike the compiler this accepts
	// stories without an ID so that unnumbered drafts are still checked.
	storyStartRE = regexp.MustCompile(`(?im)^[ \t]*(?:(?:\d+[\).]|[-*])[ \t]*(?:\*\*Story\b[^*\n]*:\*\*|Story:)|###[ \t]*STORY-\d+)`)

	storyFormatRE = regexp.MustCompile(`(?is)\bAs an?\b.*?\bI want\b.*?\bso that\b`)
	storyACRE     = regexp.MustCompile(`(?i)Acceptance criteria`)
	storyBoxRE    = regexp.MustCompile(`(?m)^[ \t]*[-*][ \t]*\[[ xX]?\][ \t]+\S`)
	metricDigitRE = regexp.MustCompile(`\d`)
)

// implLeakKeywords are technology names that suggest a PRD is prescribing
// HOW instead of WHAT/WHY/WHO.
var implLeakKeywords = []string{
	"postgres", "mysql", "sqlite", "mongodb", "dynamodb", "redis", "memcached",
	"kubernetes", "k8s", "helm", "docker", "terraform", "pulumi",
	"aws", "gcp", "azure", "lambda", "cloudformation",
	"grpc", "protobuf", "kafka", "rabbitmq", "kinesis", "pubsub",
}

type span struct {
	start, end, line int
}

func storySpans(text string, headings []markdown.Heading) []span {
	starts := storyStartRE.FindAllStringIndex(text, -1)
	spans := make([]span, 0, len(starts))
	for i, m := range starts {
		end := len(text)
		if i+1 < len(starts) {
			end = starts[i+1][0]
		}
		for _, h := range headings {
			if h.Start > m[0] && h.Level <= 2 {
				if h.Start < end {
					end = h.Start
				}
				break
			}
		}
		spans = append(spans, span{start: m[0], end: end, line: markdown.LineAt(text, m[0])})
	}
	return spans
}

func checkStoryQuality(doc *Document) []Finding {
	spans := storySpans(doc.Text, doc.Headings)
	if len(spans) == 0 {
		var out []Finding
		if !storyFormatRE.MatchString(doc.Text) {
			out = append(out, newFinding(SeverityWarn, CodeNoStories, 0,
				"No recognizable user story blocks found. Consider using 'Story:' blocks for linting."))
		}
		if !storyACRE.MatchString(doc.Text) {
			out = append(out, newFinding(SeverityWarn, CodeNoAcceptanceCriteria, 0,
				"No 'Acceptance criteria' found anywhere."))
		}
		return out
	}

	var out []Finding
	for _, s := range spans {
		blk := doc.Text[s.start:s.end]
		if !storyFormatRE.MatchString(blk) {
			out = append(out, newFinding(SeverityError, CodeStoryFormat, s.line,
				"User story missing required 'As a..., I want..., so that...' format."))
		}
		if !storyACRE.MatchString(blk) {
			out = append(out, newFinding(SeverityError, CodeStoryACMissing, s.line,
				"User story missing 'Acceptance criteria:' section."))
		}
		if !storyBoxRE.MatchString(blk) {
			out = append(out, newFinding(SeverityError, CodeStoryACEmpty, s.line,
				"Acceptance criteria missing checkbox items '- [ ] ...'."))
		}
	}
	return out
}

func checkStoryIDs(doc *Document) []Finding {
	firstLine := map[string]int{}
	var out []Finding
	for _, b := range doc.Stories {
		if line, ok := firstLine[b.ID]; ok {
			out = append(out, newFinding(SeverityError, CodeStoryDuplicateID, b.Line,
				"Duplicate story id %s (first defined at L%d).", b.ID, line))
			continue
		}
		firstLine[b.ID] = b.Line
	}
	return out
}

func checkNumericMetrics(doc *Document) []Finding {
	key, msg := "success_metrics",
		"Success metrics section contains no digits. Add numeric targets (or mark clearly as placeholder)."
	if doc.Type == DocTech {
		key, msg = "performance",
			"Performance section contains no digits. Add numeric latency/throughput/availability targets."
	}

	h, sec, ok := doc.Section(key)
	if !ok || metricDigitRE.MatchString(sec) {
		return nil
	}
	return []Finding{newFinding(SeverityWarn, CodeMetricsNoDigits, h.Line, "%s", msg)}
}

func checkImplLeak(doc *Document) []Finding {
	lower := strings.ToLower(doc.Text)
	var hits []string
	for _, kw := range implLeakKeywords {
		if strings.Contains(lower, kw) {
			hits = append(hits, kw)
		}
	}
	if len(hits) == 0 {
		return nil
	}
	sort.Strings(hits)
	return []Finding{newFinding(SeverityWarn, CodePRDImplLeak, 0,
		"Possible implementation details present in PRD (keep PRD WHAT/WHY/WHO). Found: %s",
		strings.Join(hits, ", "))}
}
