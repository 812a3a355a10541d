// Package explain writes the per-run explain bundles spec.md §6 describes:
// a manifest.json plus one functions/<hash>.json per analyzed function,
// each carrying the normalized IR, normalized summary, and the config
// versions in effect, for a human or a downstream tool to inspect how a
// fact was derived. Grounded on the teacher's analysis/render package: one
// file per analyzed unit, written with the same temp-file+rename discipline
// as the summary cache (spec.md §4.7, §5).
package explain

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jsflow-dev/jsflow/analysis/canon"
	"github.com/jsflow-dev/jsflow/analysis/config"
	"github.com/jsflow-dev/jsflow/analysis/ids"
	"github.com/jsflow-dev/jsflow/analysis/ir"
	"github.com/jsflow-dev/jsflow/analysis/summary"
)

// SchemaVersion is the current explain-bundle schema version.
const SchemaVersion = 1

// FunctionEntry is one function's explain material.
type FunctionEntry struct {
	FuncID  ids.FuncId
	IR      *ir.FuncIR
	Summary *summary.FuncSummary
}

type functionBundleWire struct {
	SchemaVersion int             `json:"schemaVersion"`
	FuncID        string          `json:"funcId"`
	ConfigVersion int             `json:"configVersion"`
	IR            json.RawMessage `json:"ir"`
	Summary       json.RawMessage `json:"summary"`
	// BaselineCoverage mirrors the invariant summary.Normalize already
	// enforces on every stored FuncSummary: there is no code path that
	// produces a summary violating baseline coverage, so this is a derived
	// constant rather than a measured value (spec.md §9).
	BaselineCoverage string `json:"baselineCoverage"`
}

type manifestWire struct {
	SchemaVersion int    `json:"schemaVersion"`
	ConfigVersion int    `json:"configVersion"`
	FunctionCount int    `json:"functionCount"`
	ContentHash   string `json:"contentHash"`
}

// FuncHash returns the content-addressed filename stem for fid's bundle.
func FuncHash(fid ids.FuncId) string {
	return canon.HashBytes([]byte(fid.String()))
}

// WriteBundle clears dir's managed subtree (functions/ and manifest.json)
// and rewrites it from entries: one functions/<hash>.json per entry plus a
// manifest.json summarizing the run. Entries are processed in canonical
// FuncId order so the manifest's content hash is reproducible across runs
// with the same inputs.
func WriteBundle(dir string, cfg *config.AnalysisConfig, entries []FunctionEntry) error {
	sorted := canon.StableSort(entries, func(a, b FunctionEntry) bool { return a.FuncID.Compare(b.FuncID) < 0 })

	functionsDir := filepath.Join(dir, "functions")
	if err := os.RemoveAll(functionsDir); err != nil {
		return fmt.Errorf("explain: clearing functions dir: %w", err)
	}
	if err := os.MkdirAll(functionsDir, 0o755); err != nil {
		return fmt.Errorf("explain: creating functions dir: %w", err)
	}

	configVersion := cfg.EffectiveConfigVersion()
	hashes := make([]string, 0, len(sorted))
	for _, e := range sorted {
		irJSON, err := marshalIR(e.IR)
		if err != nil {
			return err
		}
		summaryJSON, err := json.Marshal(e.Summary)
		if err != nil {
			return fmt.Errorf("explain: marshaling summary for %s: %w", e.FuncID, err)
		}

		body, err := json.Marshal(functionBundleWire{
			SchemaVersion:    SchemaVersion,
			FuncID:           e.FuncID.String(),
			ConfigVersion:    configVersion,
			IR:               irJSON,
			Summary:          summaryJSON,
			BaselineCoverage: "ok",
		})
		if err != nil {
			return fmt.Errorf("explain: marshaling bundle for %s: %w", e.FuncID, err)
		}

		hash := FuncHash(e.FuncID)
		hashes = append(hashes, hash)
		if err := writeAtomic(filepath.Join(functionsDir, hash+".json"), body); err != nil {
			return err
		}
	}

	manifestBody, err := json.Marshal(manifestWire{
		SchemaVersion: SchemaVersion,
		ConfigVersion: configVersion,
		FunctionCount: len(sorted),
		ContentHash:   canon.HashBytes([]byte(strings.Join(hashes, ","))),
	})
	if err != nil {
		return fmt.Errorf("explain: marshaling manifest: %w", err)
	}
	return writeAtomic(filepath.Join(dir, "manifest.json"), manifestBody)
}

func marshalIR(f *ir.FuncIR) (json.RawMessage, error) {
	b, err := canon.MarshalCanonical(f.CanonicalValue())
	if err != nil {
		return nil, fmt.Errorf("explain: marshaling IR for %s: %w", f.FuncID, err)
	}
	return json.RawMessage(b), nil
}

func writeAtomic(path string, body []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".explain-*.tmp")
	if err != nil {
		return fmt.Errorf("explain: creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			os.Remove(tmpPath)
		}
	}()

	if _, err = tmp.Write(body); err != nil {
		tmp.Close()
		return fmt.Errorf("explain: writing %s: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("explain: closing temp file: %w", err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("explain: renaming into place: %w", err)
	}
	return nil
}
