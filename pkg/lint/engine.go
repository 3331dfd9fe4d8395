package lint

import (
	"context"

	"github.com/gobwas/glob"
	"github.com/jingkaihe/specforge/pkg/logger"
	"github.com/jingkaihe/specforge/pkg/telemetry"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

// Engine runs a rule registry over documents and applies the severity policy
type Engine struct {
	registry *Registry
	policy   *Policy
	strict   bool
	disabled []glob.Glob
}

// Option configures an Engine
type Option func(*Engine) error

// WithRegistry replaces the default rule registry
func WithRegistry(r *Registry) Option {
	return func(e *Engine) error {
		e.registry = r
		return nil
	}
}

// WithStrict selects the strict policy. It is overridden by WithPolicy.
func WithStrict(strict bool) Option {
	return func(e *Engine) error {
		e.strict = strict
		if strict {
			e.policy = StrictPolicy()
		} else {
			e.policy = LenientPolicy()
		}
		return nil
	}
}

// WithPolicy sets a custom severity policy
func WithPolicy(p *Policy) Option {
	return func(e *Engine) error {
		e.policy = p
		return nil
	}
}

// WithDisabled drops findings whose code matches any of the glob patterns,
// e.g. "EVIDENCE_*".
func WithDisabled(patterns ...string) Option {
	return func(e *Engine) error {
		for _, p := range patterns {
			if p == "" {
				continue
			}
			g, err := glob.Compile(p)
			if err != nil {
				return errors.Wrapf(err, "invalid disable pattern %q", p)
			}
			e.disabled = append(e.disabled, g)
		}
		return nil
	}
}

// NewEngine creates a lenient engine over the default registry unless
// options say otherwise.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{
		registry: DefaultRegistry(),
		policy:   LenientPolicy(),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Run validates text as docType. An empty docType is inferred. Content
// problems are reported as findings, never as errors.
func (e *Engine) Run(ctx context.Context, text string, docType DocType) Result {
	if docType == "" {
		docType = InferDocType(text)
	}

	var result Result
	telemetry.WithSpanFunc(ctx, "lint.run", func(ctx context.Context) {
		result = e.run(ctx, NewDocument(text, docType))
		telemetry.SetAttributes(ctx,
			attribute.Int("lint.errors", result.Count(SeverityError)),
			attribute.Int("lint.warnings", result.Count(SeverityWarn)),
		)
	}, attribute.String("lint.type", string(docType)), attribute.Bool("lint.strict", e.strict))
	return result
}

// RunDocument validates an already parsed document
func (e *Engine) RunDocument(ctx context.Context, doc *Document) Result {
	return e.run(ctx, doc)
}

func (e *Engine) run(ctx context.Context, doc *Document) Result {
	log := logger.G(ctx).WithField("type", doc.Type)

	result := Result{Type: doc.Type, Strict: e.strict, Findings: []Finding{}}
	for _, rule := range e.registry.Rules(doc.Type) {
		findings := rule.Check(doc)
		log.WithField("rule", rule.ID).WithField("findings", len(findings)).Debug("rule checked")

		for _, f := range findings {
			if e.isDisabled(f.Code) {
				continue
			}
			f.Severity = e.policy.Apply(f)
			result.Findings = append(result.Findings, f)
		}
	}
	return result
}

func (e *Engine) isDisabled(code string) bool {
	for _, g := range e.disabled {
		if g.Match(code) {
			return true
		}
	}
	return false
}
