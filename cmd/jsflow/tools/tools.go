// Package tools contains the flag-parsing helpers shared by jsflow's
// sub-commands, adapted from the teacher's cmd/argot/tools package: a
// flag.FlagSet per sub-command, a SetUsage helper that prints a usage
// string followed by each flag's documentation, and a HintForErrorMessage
// lookup for common mistakes.
package tools

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

// CommonFlags are the flags every jsflow sub-command accepts.
type CommonFlags struct {
	FlagSet    *flag.FlagSet
	Repo       string
	TSConfig   string
	ConfigPath string
	CallGraph  string
	Out        string
	Witness    string
	Explain    string
}

// NewCommonFlags returns a parsed flag set for name. cmdUsage is printed
// ahead of the flag documentation on --help or a parse error.
func NewCommonFlags(name string, args []string, cmdUsage string) (CommonFlags, error) {
	cmd := flag.NewFlagSet(name, flag.ContinueOnError)
	repo := cmd.String("repo", "", "path to a pre-parsed program document (see analysis/frontend.Decode)")
	tsconfig := cmd.String("tsconfig", "", "alternate path to the pre-parsed program document; equivalent to -repo")
	configPath := cmd.String("config", "", "analysis config file path (yaml)")
	callgraph := cmd.String("callgraph", "", "path to the external call-graph input document (required)")
	out := cmd.String("out", "", "output path for the flow-facts JSONL (required)")
	witness := cmd.String("witness", "", "output path for the witness JSONL (optional)")
	explain := cmd.String("explain", "", "output directory for the explain bundle (optional)")
	SetUsage(cmd, cmdUsage)
	if err := cmd.Parse(args); err != nil {
		return CommonFlags{}, fmt.Errorf("failed to parse command %s with args %v: %w", name, args, err)
	}
	return CommonFlags{
		FlagSet:    cmd,
		Repo:       *repo,
		TSConfig:   *tsconfig,
		ConfigPath: *configPath,
		CallGraph:  *callgraph,
		Out:        *out,
		Witness:    *witness,
		Explain:    *explain,
	}, nil
}

// ProgramPath returns whichever of -repo/-tsconfig was given, preferring
// -repo when both are set.
func (f CommonFlags) ProgramPath() string {
	if f.Repo != "" {
		return f.Repo
	}
	return f.TSConfig
}

// SetUsage sets cmd's usage (for --help) to cmdUsage followed by each
// flag's documentation.
func SetUsage(cmd *flag.FlagSet, cmdUsage string) {
	cmd.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s\n", cmdUsage)
		fmt.Fprintf(os.Stderr, "Options:\n")
		cmd.VisitAll(func(f *flag.Flag) {
			fmt.Fprintf(os.Stderr, "  -%s: %s (default: %q)\n", f.Name, f.Usage, f.DefValue)
		})
	}
}

// HintForErrorMessage returns a one-line suggestion for a handful of
// common mistakes, or "" if none apply.
func HintForErrorMessage(msg string) string {
	switch {
	case strings.Contains(msg, "failed to parse program document"):
		return "pass a pre-parsed program document to -repo or -tsconfig; jsflow does not parse JS/TS source itself"
	case strings.Contains(msg, "schema validation"):
		return "check the document against the schemaVersion 1 shape documented in analysis/frontend and analysis/callgraph"
	case strings.Contains(msg, "-callgraph"):
		return "pass the external call-graph input document path with -callgraph"
	case strings.Contains(msg, "-out"):
		return "pass an output path for the flow-facts JSONL with -out"
	}
	return ""
}
