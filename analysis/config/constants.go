package config

// ConfigVersion is the pipeline-wide constant that participates in every
// summary cache key (spec.md §9 design note: "the config version is the
// only pipeline-wide constant"). Bump it whenever a change to this binary
// could change a function's normalized summary for the same IR.
const ConfigVersion = 1

// Default bounds, spec.md §3/§4.6.
const (
	DefaultMaxEdges            = 25000
	DefaultMaxFanoutPerSource  = 5000
	DefaultMaxSteps            = 1_000_000
)

// ResolutionMode selects how the call-graph mapper matches an external
// node's file path against the indexed source set, spec.md §4.8.
type ResolutionMode int

const (
	// ResolutionStrict requires an exact indexed file path match.
	ResolutionStrict ResolutionMode = iota
	// ResolutionLenient applies path normalization and suffix-match
	// fallbacks, each emitting a warning diagnostic.
	ResolutionLenient
)

// String renders the resolution mode as used in the yaml config file.
func (m ResolutionMode) String() string {
	if m == ResolutionLenient {
		return "lenient"
	}
	return "strict"
}
