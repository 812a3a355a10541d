package tools_test

import (
	"testing"

	"github.com/jsflow-dev/jsflow/cmd/jsflow/tools"
)

func TestNewCommonFlagsParsesEveryFlag(t *testing.T) {
	flags, err := tools.NewCommonFlags("analyze", []string{
		"-repo=program.json",
		"-callgraph=callgraph.json",
		"-out=facts.jsonl",
		"-witness=witness.jsonl",
		"-explain=explain/",
		"-config=jsflow.yaml",
	}, "usage")
	if err != nil {
		t.Fatalf("NewCommonFlags: %v", err)
	}
	if flags.Repo != "program.json" || flags.CallGraph != "callgraph.json" || flags.Out != "facts.jsonl" ||
		flags.Witness != "witness.jsonl" || flags.Explain != "explain/" || flags.ConfigPath != "jsflow.yaml" {
		t.Fatalf("unexpected flags: %+v", flags)
	}
	if got := flags.ProgramPath(); got != "program.json" {
		t.Fatalf("expected ProgramPath to prefer -repo, got %q", got)
	}
}

func TestProgramPathFallsBackToTSConfig(t *testing.T) {
	flags, err := tools.NewCommonFlags("analyze", []string{"-tsconfig=program.json"}, "usage")
	if err != nil {
		t.Fatalf("NewCommonFlags: %v", err)
	}
	if got := flags.ProgramPath(); got != "program.json" {
		t.Fatalf("expected ProgramPath to fall back to -tsconfig, got %q", got)
	}
}

func TestHintForErrorMessage(t *testing.T) {
	if hint := tools.HintForErrorMessage("missing -out"); hint == "" {
		t.Fatalf("expected a hint for a missing -out error")
	}
	if hint := tools.HintForErrorMessage("something unrelated"); hint != "" {
		t.Fatalf("expected no hint for an unrelated error, got %q", hint)
	}
}
