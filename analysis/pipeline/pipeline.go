// Package pipeline wires together every stage of one analysis run — index
// construction, per-function IR/baseline/summary (cache-backed), call-graph
// mapping, the interprocedural fixpoint, and fact/witness/explain assembly
// — the way analysis/analyzers.go's RunIntraProcedural/RunInterProcedural
// orchestrate the teacher's own multi-stage pass over an AnalyzerState.
package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jsflow-dev/jsflow/analysis/cache"
	"github.com/jsflow-dev/jsflow/analysis/callgraph"
	"github.com/jsflow-dev/jsflow/analysis/canon"
	"github.com/jsflow-dev/jsflow/analysis/cheap"
	"github.com/jsflow-dev/jsflow/analysis/config"
	"github.com/jsflow-dev/jsflow/analysis/diagnostics"
	"github.com/jsflow-dev/jsflow/analysis/explain"
	"github.com/jsflow-dev/jsflow/analysis/facts"
	"github.com/jsflow-dev/jsflow/analysis/fixpoint"
	"github.com/jsflow-dev/jsflow/analysis/frontend"
	"github.com/jsflow-dev/jsflow/analysis/ids"
	"github.com/jsflow-dev/jsflow/analysis/index"
	"github.com/jsflow-dev/jsflow/analysis/ir"
	"github.com/jsflow-dev/jsflow/analysis/summary"
	"github.com/jsflow-dev/jsflow/analysis/witness"
	"golang.org/x/sync/errgroup"
)

// Result is everything one run produces, ready for the CLI to serialize.
type Result struct {
	Facts       *facts.Writer
	Witnesses   []witness.Record
	Explain     []explain.FunctionEntry
	Diagnostics *diagnostics.Bag
	Steps       int
}

// Run executes the full pipeline over prog and cg under cfg. store is
// consulted for every function's summary before falling back to computing
// it; pass cache.NewMemStore() to disable persistence.
func Run(cfg *config.AnalysisConfig, log *config.LogGroup, store cache.Store, prog *frontend.Program, cg *callgraph.ExternalGraph) (*Result, error) {
	idx, err := index.Build(prog)
	if err != nil {
		return nil, fmt.Errorf("pipeline: building indexes: %w", err)
	}
	log.Infof("indexed %d function(s)", len(idx.Funcs.All()))

	mapper := callgraph.NewMapper(idx, cfg.ResolutionMode())
	mapped, diags, err := mapper.Map(cg)
	if err != nil {
		return nil, fmt.Errorf("pipeline: mapping call graph: %w", err)
	}
	log.Infof("mapped %d call edge(s), %d diagnostic(s)", len(mapped), diags.Len())

	funcSet := map[ids.FuncId]bool{}
	for _, fe := range idx.Funcs.All() {
		funcSet[fe.ID] = true
	}
	for _, e := range mapped {
		funcSet[e.CallerFuncId] = true
		funcSet[e.CalleeFuncId] = true
	}

	var wanted []*index.FuncEntry
	for _, fe := range idx.Funcs.All() {
		if funcSet[fe.ID] {
			wanted = append(wanted, fe)
		}
	}

	// IR construction, the cheap pass, and cache-backed summarization are
	// independent per function once the call graph is mapped, so they can
	// be sharded across workers (spec.md §5: "a conforming implementation
	// may shard IR construction and cheap-pass computation across worker
	// threads... provided outputs are merged via canonical sort; the
	// fixpoint itself must run single-threaded"). Results land in
	// index-aligned slices and are only merged into maps after every
	// worker returns, so no goroutine ever writes a shared map.
	firs := make([]*ir.FuncIR, len(wanted))
	results := make([]*cheap.Result, len(wanted))
	fsums := make([]*summary.FuncSummary, len(wanted))

	var g errgroup.Group
	for i, fe := range wanted {
		i, fe := i, fe
		g.Go(func() error {
			fir, err := ir.Build(fe.ID, fe.Node)
			if err != nil {
				return fmt.Errorf("pipeline: building IR for %s: %w", fe.ID, err)
			}
			if err := ir.Validate(fir); err != nil {
				return fmt.Errorf("pipeline: validating IR for %s: %w", fe.ID, err)
			}
			fir = ir.Canonicalize(fir)

			baseline := cheap.Run(fir)

			fsum, err := loadOrComputeSummary(store, cfg, fir, baseline)
			if err != nil {
				return fmt.Errorf("pipeline: summarizing %s: %w", fe.ID, err)
			}

			firs[i], results[i], fsums[i] = fir, baseline, fsum
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	irs := make(map[ids.FuncId]*ir.FuncIR, len(wanted))
	baselines := make(map[ids.FuncId]*cheap.Result, len(wanted))
	summaries := make(map[ids.FuncId]*summary.FuncSummary, len(wanted))
	for i, fe := range wanted {
		irs[fe.ID] = firs[i]
		baselines[fe.ID] = results[i]
		summaries[fe.ID] = fsums[i]
	}

	result, err := fixpoint.Run(&fixpoint.Inputs{
		Mapped:    mapped,
		IRs:       irs,
		Summaries: summaries,
		Baselines: baselines,
		Cfg:       cfg,
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline: running fixpoint: %w", err)
	}
	log.Infof("fixpoint converged in %d step(s)", result.Steps)

	fw := facts.NewWriter()
	funcs := canon.StableSort(idx.Funcs.All(), func(a, b *index.FuncEntry) bool { return a.ID.Compare(b.ID) < 0 })
	for _, fe := range funcs {
		if st := result.States[fe.ID]; st != nil {
			fw.AddAll(fe.ID, st.Facts)
		}
	}

	within := callgraph.StronglyConnectedComponents(mapped)
	records := witness.Build(mapped, within)

	entries := make([]explain.FunctionEntry, 0, len(funcs))
	for _, fe := range funcs {
		if fsum, ok := summaries[fe.ID]; ok {
			entries = append(entries, explain.FunctionEntry{FuncID: fe.ID, IR: irs[fe.ID], Summary: fsum})
		}
	}

	return &Result{
		Facts:       fw,
		Witnesses:   records,
		Explain:     entries,
		Diagnostics: diags,
		Steps:       result.Steps,
	}, nil
}

// loadOrComputeSummary consults store by content-addressed key before
// running the normalizer; a cache hit skips summary.Normalize entirely
// (spec.md §4.7: summaries are immutable once written, so a cached entry
// never needs re-validation).
func loadOrComputeSummary(store cache.Store, cfg *config.AnalysisConfig, fir *ir.FuncIR, baseline *cheap.Result) (*summary.FuncSummary, error) {
	key, err := cache.Key(cfg.EffectiveConfigVersion(), fir)
	if err != nil {
		return nil, fmt.Errorf("computing cache key: %w", err)
	}

	if raw, err := store.Get(key); err == nil {
		var fsum summary.FuncSummary
		if err := json.Unmarshal(raw, &fsum); err != nil {
			return nil, fmt.Errorf("parsing cached summary for %s: %w", fir.FuncID, err)
		}
		return &fsum, nil
	} else if !errors.Is(err, cache.ErrNotFound) {
		return nil, fmt.Errorf("reading cache for %s: %w", fir.FuncID, err)
	}

	fsum, err := summary.Normalize(fir, baseline, baseline.Edges, cfg)
	if err != nil {
		return nil, fmt.Errorf("normalizing %s: %w", fir.FuncID, err)
	}
	raw, err := json.Marshal(fsum)
	if err != nil {
		return nil, fmt.Errorf("marshaling summary for %s: %w", fir.FuncID, err)
	}
	if err := store.Put(key, raw); err != nil {
		return nil, fmt.Errorf("caching summary for %s: %w", fir.FuncID, err)
	}
	return fsum, nil
}
