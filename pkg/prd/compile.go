package prd

import (
	"context"
	"strings"
	"time"

	"github.com/jingkaihe/specforge/pkg/logger"
	"github.com/jingkaihe/specforge/pkg/markdown"
	"github.com/jingkaihe/specforge/pkg/spec"
	"github.com/jingkaihe/specforge/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

const (
	// TimeFormat is the generatedAt layout: UTC, second precision, Z suffix
	TimeFormat = "2006-01-02T15:04:05Z"
	// UnknownProject is used when neither an override nor a "# PRD:" title exists
	UnknownProject = "UNKNOWN"
)

// Options controls a compile run. The prior document is passed to Compile
// explicitly; resolving where it comes from is the caller's job.
type Options struct {
	// ProjectName overrides the "# PRD: <name>" title
	ProjectName string
	BranchName  string
	SpecRef     string
	// FinalTests replaces the prior document's final tests when non-empty
	FinalTests []string
	// Strict turns missing titles, stories, priorities and acceptance
	// criteria into structural errors.
	Strict bool
	// DropRemoved omits prior stories that no longer appear in the spec
	// instead of keeping them with status "removed".
	DropRemoved bool
	// Now stamps generatedAt; defaults to time.Now
	Now func() time.Time
}

// Compile extracts stories from text and merges execution state from prior,
// which may be nil. On error no document is returned.
func Compile(ctx context.Context, text string, prior *Document, opts Options) (*Document, error) {
	var doc *Document
	err := telemetry.WithSpan(ctx, "prd.compile", func(ctx context.Context) error {
		var err error
		doc, err = compile(ctx, text, prior, opts)
		if err == nil {
			telemetry.SetAttributes(ctx, attribute.Int("prd.stories", len(doc.UserStories)))
		}
		return err
	}, attribute.Bool("prd.strict", opts.Strict), attribute.String("prd.spec_ref", opts.SpecRef))
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func compile(ctx context.Context, text string, prior *Document, opts Options) (*Document, error) {
	log := logger.G(ctx)
	text = markdown.Normalize(text)

	project := strings.TrimSpace(opts.ProjectName)
	if project == "" {
		project, _ = spec.ProjectName(text)
	}
	if opts.Strict && project == "" {
		return nil, spec.Structuralf(0, `missing "# PRD: <Product / Feature Name>" heading`)
	}
	if project == "" {
		project = UnknownProject
	}

	stories, err := spec.ExtractStories(text, spec.ExtractOptions{Strict: opts.Strict})
	if err != nil {
		return nil, err
	}
	if err := spec.CheckUniqueIDs(stories); err != nil {
		return nil, err
	}

	previous := map[string]UserStory{}
	var previousOrder []string
	if prior != nil {
		for _, s := range prior.UserStories {
			if _, seen := previous[s.ID]; !seen {
				previousOrder = append(previousOrder, s.ID)
			}
			previous[s.ID] = s
		}
	}

	compiled := make([]UserStory, 0, len(stories)+len(previous))
	fresh := make(map[string]struct{}, len(stories))
	preserved := 0
	for _, s := range stories {
		us := UserStory{
			ID:                 s.ID,
			Title:              s.Title,
			Priority:           s.Priority,
			AcceptanceCriteria: s.AcceptanceCriteria,
			Tests:              s.Tests,
			ExecutionState:     DefaultState(),
		}
		if p, ok := previous[s.ID]; ok {
			us.ExecutionState = p.ExecutionState.clone()
			preserved++
		}
		fresh[s.ID] = struct{}{}
		compiled = append(compiled, us)
	}

	removed := 0
	if !opts.DropRemoved {
		for _, id := range previousOrder {
			if _, ok := fresh[id]; ok {
				continue
			}
			r := previous[id]
			r.ExecutionState = r.ExecutionState.clone()
			r.Status = StatusRemoved
			compiled = append(compiled, r)
			removed++
		}
	}

	SortStories(compiled)

	finalTests := opts.FinalTests
	if len(finalTests) == 0 && prior != nil {
		finalTests = prior.FinalTests
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	log.WithField("stories", len(stories)).
		WithField("preserved", preserved).
		WithField("removed", removed).
		Debug("compiled prd document")

	return &Document{
		ProjectName: project,
		BranchName:  opts.BranchName,
		SpecRef:     opts.SpecRef,
		GeneratedAt: now().UTC().Format(TimeFormat),
		FinalTests:  nonNil(finalTests),
		UserStories: compiled,
	}, nil
}
