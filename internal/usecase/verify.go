package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"linecheck/internal/domain"
	"linecheck/internal/logger"
	"linecheck/internal/port"
)

type StepStatus string

const (
	StatusPass StepStatus = "PASS"
	StatusFail StepStatus = "FAIL"
	StatusSkip StepStatus = "SKIP"
)

// StepResult is the outcome of one checklist item.
type StepResult struct {
	Name   string     `json:"name"`
	Status StepStatus `json:"status"`
	Detail string     `json:"detail"`
	Err    string     `json:"error,omitempty"`
}

// Report is the outcome of a full checklist run, in execution order.
type Report struct {
	Steps []StepResult `json:"steps"`
}

// Failed reports whether any step failed.
func (r Report) Failed() bool {
	for _, s := range r.Steps {
		if s.Status == StatusFail {
			return true
		}
	}
	return false
}

// Step returns the named step result.
func (r Report) Step(name string) (StepResult, bool) {
	for _, s := range r.Steps {
		if s.Name == name {
			return s, true
		}
	}
	return StepResult{}, false
}

// VerifyOptions carries the expectations checked by the runner.
type VerifyOptions struct {
	ExpectedDimension int
	SliceLength       int
	FindLimit         int
	NumCandidates     int
	SearchLimit       int
}

// Checklist step names, in run order.
const (
	StepCount      = "count"
	StepSample     = "sample"
	StepProjection = "projection"
	StepEmbedding  = "embedding"
	StepDimension  = "dimension"
	StepSearch     = "search"
	StepStats      = "stats"
	StepFind       = "find"
	StepIndexes    = "indexes"
)

// VerifyUseCase runs the checklist top to bottom. Each check is a single
// store call; a failing check never aborts the run, but checks that need an
// earlier result (an embedded sample) are skipped without it.
type VerifyUseCase struct {
	store port.LineStore
	opts  VerifyOptions
}

func NewVerifyUseCase(store port.LineStore, opts VerifyOptions) *VerifyUseCase {
	return &VerifyUseCase{store: store, opts: opts}
}

type verifyState struct {
	sample   *domain.Line
	embedded *domain.Line
}

func (u *VerifyUseCase) Run(ctx context.Context) Report {
	log := logger.FromContext(ctx)
	var st verifyState
	var report Report

	checks := []struct {
		name string
		run  func(context.Context, *verifyState) StepResult
	}{
		{StepCount, u.checkCount},
		{StepSample, u.checkSample},
		{StepProjection, u.checkProjection},
		{StepEmbedding, u.checkEmbedding},
		{StepDimension, u.checkDimension},
		{StepSearch, u.checkSearch},
		{StepStats, u.checkStats},
		{StepFind, u.checkFind},
		{StepIndexes, u.checkIndexes},
	}

	for _, c := range checks {
		res := c.run(ctx, &st)
		res.Name = c.name
		log.Debug("checklist step",
			zap.String("step", res.Name),
			zap.String("status", string(res.Status)),
			zap.String("detail", res.Detail),
		)
		report.Steps = append(report.Steps, res)
	}
	return report
}

func pass(format string, args ...any) StepResult {
	return StepResult{Status: StatusPass, Detail: fmt.Sprintf(format, args...)}
}

func fail(err error, format string, args ...any) StepResult {
	r := StepResult{Status: StatusFail, Detail: fmt.Sprintf(format, args...)}
	if err != nil {
		r.Err = err.Error()
	}
	return r
}

func skip(format string, args ...any) StepResult {
	return StepResult{Status: StatusSkip, Detail: fmt.Sprintf(format, args...)}
}

func (u *VerifyUseCase) checkCount(ctx context.Context, _ *verifyState) StepResult {
	n, err := u.store.Count(ctx)
	if err != nil {
		return fail(err, "count failed")
	}
	if n == 0 {
		return fail(nil, "collection is empty")
	}
	return pass("%d documents", n)
}

func (u *VerifyUseCase) checkSample(ctx context.Context, st *verifyState) StepResult {
	l, err := u.store.Sample(ctx)
	if err != nil {
		return fail(err, "sample failed")
	}
	st.sample = &l

	var missing []string
	if l.Book == "" {
		missing = append(missing, domain.FieldBook)
	}
	if l.Text == "" {
		missing = append(missing, domain.FieldText)
	}
	if len(missing) > 0 {
		return fail(nil, "sample is missing %s", strings.Join(missing, ", "))
	}
	return pass("book=%q lineNo=%d", l.Book, l.LineNo)
}

func (u *VerifyUseCase) checkProjection(ctx context.Context, _ *verifyState) StepResult {
	l, err := u.store.SampleProjected(ctx, u.opts.SliceLength)
	if err != nil {
		return fail(err, "projected sample failed")
	}
	if len(l.Embedding) > u.opts.SliceLength {
		return fail(nil, "projection returned %d embedding values, want at most %d", len(l.Embedding), u.opts.SliceLength)
	}
	return pass("embedding sliced to %d values", len(l.Embedding))
}

func (u *VerifyUseCase) checkEmbedding(ctx context.Context, st *verifyState) StepResult {
	l, err := u.store.SampleWithEmbedding(ctx)
	if errors.Is(err, domain.ErrNoDocument) {
		return fail(err, "no document has an embedding field")
	}
	if err != nil {
		return fail(err, "embedding sample failed")
	}
	if len(l.Embedding) == 0 {
		return fail(nil, "%s:%d has an embedding field with no values", l.Book, l.LineNo)
	}
	st.embedded = &l
	return pass("%s:%d has an embedding", l.Book, l.LineNo)
}

func (u *VerifyUseCase) checkDimension(ctx context.Context, _ *verifyState) StepResult {
	report, err := u.store.EmbeddingDimension(ctx)
	if err != nil {
		return fail(err, "dimension check failed")
	}
	if err := domain.CheckDimension(report.EmbeddingLength, u.opts.ExpectedDimension); err != nil {
		return fail(err, "book %q", report.Book)
	}
	return pass("embedding length %d", report.EmbeddingLength)
}

// checkSearch queries with the sampled embedding; the sampled line is its own
// nearest neighbour, so it has to share the top score.
func (u *VerifyUseCase) checkSearch(ctx context.Context, st *verifyState) StepResult {
	if st.embedded == nil {
		return skip("no embedded sample to query with")
	}
	params := domain.SearchParams{
		Vector:        st.embedded.Embedding,
		NumCandidates: u.opts.NumCandidates,
		Limit:         u.opts.SearchLimit,
	}
	results, err := u.store.Search(ctx, params)
	if err != nil {
		return fail(err, "vector search failed (is the vector index built?)")
	}
	if len(results) == 0 {
		return fail(nil, "vector search returned no results (is the vector index built?)")
	}

	const eps = 1e-6
	top := results[0].Score
	found := false
	for _, r := range results {
		if math.IsNaN(r.Score) || math.IsInf(r.Score, 0) {
			return fail(nil, "result %s:%d has no usable score", r.Line.Book, r.Line.LineNo)
		}
		if r.Line.Book == st.embedded.Book && r.Line.LineNo == st.embedded.LineNo && r.Score >= top-eps {
			found = true
		}
	}
	if !found {
		return fail(nil, "sampled line %s:%d was not ranked first", st.embedded.Book, st.embedded.LineNo)
	}
	return pass("%d results, top score %.3f", len(results), top)
}

func (u *VerifyUseCase) checkStats(ctx context.Context, _ *verifyState) StepResult {
	stats, err := u.store.Stats(ctx)
	if err != nil {
		return fail(err, "stats failed")
	}
	return pass("%s count=%d size=%d storageSize=%d", stats.Namespace, stats.Count, stats.Size, stats.StorageSize)
}

func (u *VerifyUseCase) checkFind(ctx context.Context, st *verifyState) StepResult {
	if st.sample == nil || st.sample.Book == "" {
		return skip("no sampled book to filter on")
	}
	book := st.sample.Book
	lines, err := u.store.FindByField(ctx, domain.FieldBook, book, u.opts.FindLimit)
	if err != nil {
		return fail(err, "find failed")
	}
	if len(lines) == 0 {
		return fail(nil, "no lines found for sampled book %q", book)
	}
	if u.opts.FindLimit > 0 && len(lines) > u.opts.FindLimit {
		return fail(nil, "find returned %d lines, limit is %d", len(lines), u.opts.FindLimit)
	}
	for _, l := range lines {
		if l.Book != book {
			return fail(nil, "find returned line from %q, want %q", l.Book, book)
		}
	}
	return pass("%d lines of %q", len(lines), book)
}

func (u *VerifyUseCase) checkIndexes(ctx context.Context, _ *verifyState) StepResult {
	indexes, err := u.store.Indexes(ctx)
	if err != nil {
		return fail(err, "listing indexes failed")
	}
	names := make([]string, 0, len(indexes))
	for _, idx := range indexes {
		names = append(names, idx.Name)
	}
	return pass("%d standard indexes: %s", len(indexes), strings.Join(names, ", "))
}
