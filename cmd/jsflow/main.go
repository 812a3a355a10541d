// Command jsflow runs the possible-flow fact generator over a pre-parsed
// JS/TS program document and an external call-graph input document,
// writing the results to the paths given on the command line. Dispatch
// follows the teacher's cmd/argot/main.go convention: a hardcoded
// -help/-version check ahead of flag parsing, then a single subcommand.
package main

import (
	"fmt"
	"os"

	"github.com/jsflow-dev/jsflow/analysis/cache"
	"github.com/jsflow-dev/jsflow/analysis/callgraph"
	"github.com/jsflow-dev/jsflow/analysis/config"
	"github.com/jsflow-dev/jsflow/analysis/explain"
	"github.com/jsflow-dev/jsflow/analysis/facts"
	"github.com/jsflow-dev/jsflow/analysis/frontend"
	"github.com/jsflow-dev/jsflow/analysis/pipeline"
	"github.com/jsflow-dev/jsflow/analysis/witness"
	"github.com/jsflow-dev/jsflow/cmd/jsflow/tools"
)

// Version is jsflow's release version, stamped at build time in a real
// release pipeline; kept as a plain constant here as the teacher's own
// -version flag prints a constant rather than VCS-embedded build info.
const Version = "0.1.0"

const usage = `jsflow: deterministic JS/TS possible-flow fact generator
Usage:
  jsflow analyze [options]
Options:
  -repo/-tsconfig  path to a pre-parsed program document (required)
  -callgraph       path to the external call-graph input document (required)
  -out             output path for the flow-facts JSONL (required)
  -witness         output path for the witness JSONL (optional)
  -explain         output directory for the explain bundle (optional)
  -config          analysis config file path (optional)
Example:
  jsflow analyze -repo=program.json -callgraph=callgraph.json -out=facts.jsonl`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "error: expected subcommand\n%s\n", usage)
		os.Exit(1)
	}

	if snd := os.Args[1]; snd == "-help" || snd == "--help" {
		fmt.Println(usage)
		return
	}
	if snd := os.Args[1]; snd == "-version" || snd == "--version" {
		fmt.Println(Version)
		return
	}

	args := os.Args[2:]
	switch cmd := os.Args[1]; cmd {
	case "analyze":
		flags, err := tools.NewCommonFlags("analyze", args, usage)
		if err != nil {
			errExit(err)
		}
		if err := runAnalyze(flags); err != nil {
			errExit(err)
		}
	default:
		fmt.Fprintf(os.Stderr, "error: unexpected command: %v\n", cmd)
		fmt.Fprintf(os.Stderr, "usage:\n%s\n", usage)
		os.Exit(1)
	}
}

func runAnalyze(flags tools.CommonFlags) error {
	programPath := flags.ProgramPath()
	if programPath == "" {
		return fmt.Errorf("missing -repo/-tsconfig")
	}
	if flags.CallGraph == "" {
		return fmt.Errorf("missing -callgraph")
	}
	if flags.Out == "" {
		return fmt.Errorf("missing -out")
	}

	cfg, err := config.Load(flags.ConfigPath)
	if err != nil {
		return err
	}
	log := config.NewLogGroup(cfg)
	defer log.Sync()

	progData, err := os.ReadFile(programPath)
	if err != nil {
		return fmt.Errorf("reading program document %s: %w", programPath, err)
	}
	prog, err := frontend.Decode(progData)
	if err != nil {
		return fmt.Errorf("failed to parse program document: %w", err)
	}

	cgData, err := os.ReadFile(flags.CallGraph)
	if err != nil {
		return fmt.Errorf("reading call-graph document %s: %w", flags.CallGraph, err)
	}
	cg, err := callgraph.Parse(cgData)
	if err != nil {
		return fmt.Errorf("failed to parse call-graph document: %w", err)
	}

	var store cache.Store = cache.NewMemStore()
	if cfg.CacheRoot != "" {
		store = cache.NewDiskStore(cfg.CacheRoot)
	}

	result, err := pipeline.Run(cfg, log, store, prog, cg)
	if err != nil {
		return err
	}
	for _, d := range result.Diagnostics.Sorted() {
		fmt.Fprintf(os.Stderr, "%s:%d:%d: %s: %s\n", d.FilePath, d.Start, d.End, d.Level, d.Message)
	}
	if result.Diagnostics.HasErrors() {
		return fmt.Errorf("call-graph mapping reported errors, see above")
	}

	if err := facts.WriteFile(flags.Out, result.Facts); err != nil {
		return fmt.Errorf("writing facts: %w", err)
	}
	log.Infof("wrote %d fact(s) to %s", len(result.Facts.Sorted()), flags.Out)

	if flags.Witness != "" {
		if err := witness.WriteFile(flags.Witness, result.Witnesses); err != nil {
			return fmt.Errorf("writing witnesses: %w", err)
		}
		log.Infof("wrote %d witness record(s) to %s", len(result.Witnesses), flags.Witness)
	}

	if flags.Explain != "" {
		if err := os.MkdirAll(flags.Explain, 0o755); err != nil {
			return fmt.Errorf("creating explain directory: %w", err)
		}
		if err := explain.WriteBundle(flags.Explain, cfg, result.Explain); err != nil {
			return fmt.Errorf("writing explain bundle: %w", err)
		}
		log.Infof("wrote explain bundle for %d function(s) to %s", len(result.Explain), flags.Explain)
	}

	return nil
}

func errExit(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	if hint := tools.HintForErrorMessage(err.Error()); hint != "" {
		fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
	}
	os.Exit(1)
}
