package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/TobiSchelling/perspost/internal/fetch"
	"github.com/TobiSchelling/perspost/internal/llm"
	"github.com/TobiSchelling/perspost/internal/metrics"
	"github.com/TobiSchelling/perspost/internal/post"
	"github.com/TobiSchelling/perspost/internal/prompt"
)

// ErrExtraction is the message returned when a URL yields no text.
const ErrExtraction = "Could not extract content from URL"

// ErrNoProvider is returned when no generation backend is configured.
var ErrNoProvider = errors.New("no generation provider configured")

// Extractor turns a URL into plain text, returning "" on failure.
type Extractor interface {
	Extract(ctx context.Context, url string) string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithPromptOptions sets the persona, topic, platform and output format.
func WithPromptOptions(o prompt.Options) Option {
	return func(p *Pipeline) { p.prompt = o }
}

// WithDefaultPerspectives sets the perspectives used when a request has none.
func WithDefaultPerspectives(perspectives []string) Option {
	return func(p *Pipeline) { p.perspectives = append([]string(nil), perspectives...) }
}

// WithMaxTokens caps the generated response length.
func WithMaxTokens(n int) Option {
	return func(p *Pipeline) { p.maxTokens = n }
}

// WithTimeout bounds each generation call.
func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) { p.timeout = d }
}

// Pipeline runs fetch -> prompt -> generate -> parse for one request. It is
// immutable after construction and safe for concurrent use.
type Pipeline struct {
	provider     llm.Provider
	extractor    Extractor
	prompt       prompt.Options
	perspectives []string
	maxTokens    int
	timeout      time.Duration
	logger       *zap.Logger
	metrics      *metrics.Metrics
}

// New creates a new pipeline. A nil extractor gets a default fetcher.
func New(provider llm.Provider, extractor Extractor, opts ...Option) *Pipeline {
	p := &Pipeline{
		provider:  provider,
		extractor: extractor,
		prompt:    prompt.DefaultOptions(),
		maxTokens: 1024,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.extractor == nil {
		p.extractor = fetch.New(fetch.Options{Logger: p.logger})
	}
	return p
}

// WithPerspectives returns a copy of the pipeline whose default perspective
// set is perspectives. The receiver is not modified.
func (p *Pipeline) WithPerspectives(perspectives []string) *Pipeline {
	clone := *p
	clone.perspectives = append([]string(nil), perspectives...)
	return &clone
}

// Perspectives returns the default perspective set.
func (p *Pipeline) Perspectives() []string {
	return append([]string(nil), p.perspectives...)
}

// Provider returns the generation provider, which may be nil.
func (p *Pipeline) Provider() llm.Provider {
	return p.provider
}

// DryRun resolves the article and returns the prompt Generate would send,
// without calling the provider. ok is false when extraction failed.
func (p *Pipeline) DryRun(ctx context.Context, req post.Request) (instruction string, ok bool) {
	instruction, _, ok = p.prepare(ctx, req)
	return instruction, ok
}

// Generate produces a post for req. Extraction failures and unparseable
// responses are reported through Result.Error; only a failed generation
// call returns an error.
func (p *Pipeline) Generate(ctx context.Context, req post.Request) (*post.Result, error) {
	// Steps 1-2: resolve article text and build prompt
	instruction, perspectives, ok := p.prepare(ctx, req)
	if !ok {
		p.metrics.Generation(metrics.OutcomeFetchFailed)
		return &post.Result{Error: ErrExtraction}, nil
	}

	// Step 3: generate
	if p.provider == nil {
		p.metrics.Generation(metrics.OutcomeError)
		return nil, ErrNoProvider
	}
	genCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	start := time.Now()
	raw, err := p.provider.Generate(genCtx, instruction, p.maxTokens)
	p.metrics.Observe("generate", time.Since(start))
	if err != nil {
		p.metrics.Generation(metrics.OutcomeError)
		return nil, fmt.Errorf("generating post: %w", err)
	}
	p.logger.Debug("generation complete",
		zap.String("provider", p.provider.Name()),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("response_chars", len(raw)),
	)

	// Step 4: parse
	result := post.Parse(raw, perspectives)
	if result.ConfidenceScore < 0.7 || result.ConfidenceScore > 0.95 {
		p.logger.Debug("confidence outside instructed range", zap.Float64("score", result.ConfidenceScore))
	}
	if result.Degraded() {
		p.logger.Warn("model response parsed on fallback path", zap.String("reason", result.Error))
		p.metrics.Generation(metrics.OutcomeDegraded)
	} else {
		p.metrics.Generation(metrics.OutcomeOK)
	}
	p.metrics.Confidence(result.ConfidenceScore)

	return &result, nil
}

func (p *Pipeline) prepare(ctx context.Context, req post.Request) (string, []string, bool) {
	perspectives := req.Perspectives
	if len(perspectives) == 0 {
		perspectives = p.perspectives
	}
	wordCount := req.WordCount
	if wordCount <= 0 {
		wordCount = post.DefaultWordCount
	}

	article := req.Content
	if req.IsURL {
		start := time.Now()
		article = p.extractor.Extract(ctx, req.Content)
		p.metrics.Observe("fetch", time.Since(start))
		p.metrics.Fetch(article != "")
		if article == "" {
			p.logger.Warn("no content extracted", zap.String("url", req.Content))
			return "", perspectives, false
		}
		p.logger.Debug("extracted article", zap.String("url", req.Content), zap.Int("chars", len(article)))
	}

	return p.prompt.Build(article, wordCount, perspectives), perspectives, true
}
