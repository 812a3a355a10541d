// Package ids implements the canonical, parseable identifier algebra described
// in the flow-fact specification: FuncId, StmtId, CallsiteId, VarId and
// HeapId. Every identifier has exactly one canonical string form; parsing
// rejects anything that is not byte-identical to that form.
package ids

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ErrInvalidID is returned (wrapped) whenever an identifier string is
// malformed or not in canonical form. There are no partial parses: a failing
// Parse call returns the zero value and a non-nil error.
var ErrInvalidID = errors.New("invalid id")

// Kind tags the variant of an identifier or graph-node label.
type Kind int

const (
	// KindFunc identifies a FuncId.
	KindFunc Kind = iota
	// KindStmt identifies a StmtId (a CallsiteId is a StmtId at a call site).
	KindStmt
	// KindHeap identifies a HeapId.
	KindHeap
	// KindVar identifies a VarId.
	KindVar
	// KindReturn identifies the function-return pseudo-node.
	KindReturn
)

// FuncId identifies a function by its source span. It is immutable once
// constructed: created during indexing from the function's syntactic span.
type FuncId struct {
	FilePath   string
	StartOff   int
	EndOff     int
}

// NewFuncId validates and constructs a FuncId.
func NewFuncId(filePath string, start, end int) (FuncId, error) {
	if err := validateSpan(filePath, start, end); err != nil {
		return FuncId{}, err
	}
	return FuncId{FilePath: filePath, StartOff: start, EndOff: end}, nil
}

func validateSpan(filePath string, start, end int) error {
	if filePath == "" {
		return fmt.Errorf("%w: empty filePath", ErrInvalidID)
	}
	if strings.Contains(filePath, "\\") {
		return fmt.Errorf("%w: filePath %q uses non-/ separator", ErrInvalidID, filePath)
	}
	for _, seg := range strings.Split(filePath, "/") {
		if seg == "." || seg == ".." {
			return fmt.Errorf("%w: filePath %q contains a %q segment", ErrInvalidID, filePath, seg)
		}
	}
	if start < 0 || end < 0 {
		return fmt.Errorf("%w: negative offset in (%d,%d)", ErrInvalidID, start, end)
	}
	if end < start {
		return fmt.Errorf("%w: endOffset %d < startOffset %d", ErrInvalidID, end, start)
	}
	return nil
}

// String returns the canonical form f:<urlenc(path)>:<start>:<end>.
func (f FuncId) String() string {
	return fmt.Sprintf("f:%s:%d:%d", url.QueryEscape(f.FilePath), f.StartOff, f.EndOff)
}

// ParseFuncId parses a canonical FuncId string, failing on any non-canonical
// encoding (e.g. a path that would re-encode differently).
func ParseFuncId(s string) (FuncId, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 4 || parts[0] != "f" {
		return FuncId{}, fmt.Errorf("%w: malformed FuncId %q", ErrInvalidID, s)
	}
	path, err := decodePathStrict(parts[1])
	if err != nil {
		return FuncId{}, fmt.Errorf("%w: %v", ErrInvalidID, err)
	}
	start, err := parseCanonicalInt(parts[2])
	if err != nil {
		return FuncId{}, fmt.Errorf("%w: bad startOffset in %q: %v", ErrInvalidID, s, err)
	}
	end, err := parseCanonicalInt(parts[3])
	if err != nil {
		return FuncId{}, fmt.Errorf("%w: bad endOffset in %q: %v", ErrInvalidID, s, err)
	}
	id, err := NewFuncId(path, start, end)
	if err != nil {
		return FuncId{}, err
	}
	if id.String() != s {
		return FuncId{}, fmt.Errorf("%w: %q is not canonical (canonical form is %q)", ErrInvalidID, s, id.String())
	}
	return id, nil
}

// MustParseFuncId parses s or panics. For literal fixtures and tests only.
func MustParseFuncId(s string) FuncId {
	id, err := ParseFuncId(s)
	if err != nil {
		panic(err)
	}
	return id
}

// Compare implements the (filePath, startOffset, endOffset) lexicographic
// order required by the spec's comparator contract.
func (f FuncId) Compare(other FuncId) int {
	if c := strings.Compare(f.FilePath, other.FilePath); c != 0 {
		return c
	}
	if f.StartOff != other.StartOff {
		return cmpInt(f.StartOff, other.StartOff)
	}
	return cmpInt(f.EndOff, other.EndOff)
}

// Equal reports whether two FuncIds are structurally identical.
func (f FuncId) Equal(other FuncId) bool { return f.Compare(other) == 0 }

// StmtId identifies a statement site within a function: the function plus a
// zero-based statement index assigned by the deterministic AST walk.
type StmtId struct {
	Func  FuncId
	Index int
}

// NewStmtId validates and constructs a StmtId.
func NewStmtId(f FuncId, index int) (StmtId, error) {
	if index < 0 {
		return StmtId{}, fmt.Errorf("%w: negative statementIndex %d", ErrInvalidID, index)
	}
	return StmtId{Func: f, Index: index}, nil
}

// String returns the canonical form s:<urlenc(path)>:<start>:<end>:<stmtIdx>.
func (s StmtId) String() string {
	return fmt.Sprintf("s:%s:%d:%d:%d", url.QueryEscape(s.Func.FilePath), s.Func.StartOff, s.Func.EndOff, s.Index)
}

// ParseStmtId parses a canonical StmtId string.
func ParseStmtId(str string) (StmtId, error) {
	parts := strings.Split(str, ":")
	if len(parts) != 5 || parts[0] != "s" {
		return StmtId{}, fmt.Errorf("%w: malformed StmtId %q", ErrInvalidID, str)
	}
	path, err := decodePathStrict(parts[1])
	if err != nil {
		return StmtId{}, fmt.Errorf("%w: %v", ErrInvalidID, err)
	}
	start, err := parseCanonicalInt(parts[2])
	if err != nil {
		return StmtId{}, fmt.Errorf("%w: %v", ErrInvalidID, err)
	}
	end, err := parseCanonicalInt(parts[3])
	if err != nil {
		return StmtId{}, fmt.Errorf("%w: %v", ErrInvalidID, err)
	}
	idx, err := parseCanonicalInt(parts[4])
	if err != nil {
		return StmtId{}, fmt.Errorf("%w: bad statementIndex in %q: %v", ErrInvalidID, str, err)
	}
	fid, err := NewFuncId(path, start, end)
	if err != nil {
		return StmtId{}, err
	}
	id, err := NewStmtId(fid, idx)
	if err != nil {
		return StmtId{}, err
	}
	if id.String() != str {
		return StmtId{}, fmt.Errorf("%w: %q is not canonical (canonical form is %q)", ErrInvalidID, str, id.String())
	}
	return id, nil
}

// MustParseStmtId parses s or panics. For literal fixtures and tests only.
func MustParseStmtId(s string) StmtId {
	id, err := ParseStmtId(s)
	if err != nil {
		panic(err)
	}
	return id
}

// Compare implements (filePath, startOffset, endOffset, statementIndex).
func (s StmtId) Compare(other StmtId) int {
	if c := s.Func.Compare(other.Func); c != 0 {
		return c
	}
	return cmpInt(s.Index, other.Index)
}

// Equal reports structural equality.
func (s StmtId) Equal(other StmtId) bool { return s.Compare(other) == 0 }

// CallsiteId is a StmtId whose underlying statement site is a call
// expression. By construction CallsiteId == StmtId for those sites; the
// distinct type exists only to make call-site-only APIs self-documenting.
type CallsiteId = StmtId

// VarId identifies a parameter (p0..pN) or local/temporary (v0..vM) within a
// single function's IR. Ordering: all params precede all locals, then by
// index.
type VarId struct {
	IsParam bool
	Index   int
}

// Param constructs the VarId for the i-th parameter.
func Param(i int) VarId { return VarId{IsParam: true, Index: i} }

// Local constructs the VarId for the i-th local/temporary.
func Local(i int) VarId { return VarId{IsParam: false, Index: i} }

// String returns "p<i>" or "v<i>".
func (v VarId) String() string {
	if v.IsParam {
		return "p" + strconv.Itoa(v.Index)
	}
	return "v" + strconv.Itoa(v.Index)
}

// ParseVarId parses a canonical VarId string.
func ParseVarId(s string) (VarId, error) {
	if len(s) < 2 {
		return VarId{}, fmt.Errorf("%w: malformed VarId %q", ErrInvalidID, s)
	}
	isParam := s[0] == 'p'
	if !isParam && s[0] != 'v' {
		return VarId{}, fmt.Errorf("%w: VarId %q must start with 'p' or 'v'", ErrInvalidID, s)
	}
	idx, err := parseCanonicalInt(s[1:])
	if err != nil {
		return VarId{}, fmt.Errorf("%w: bad index in VarId %q: %v", ErrInvalidID, s, err)
	}
	return VarId{IsParam: isParam, Index: idx}, nil
}

// Compare orders all params before all locals, then by index.
func (v VarId) Compare(other VarId) int {
	if v.IsParam != other.IsParam {
		if v.IsParam {
			return -1
		}
		return 1
	}
	return cmpInt(v.Index, other.Index)
}

// Equal reports structural equality.
func (v VarId) Equal(other VarId) bool { return v.Compare(other) == 0 }

// DynamicProperty is the literal property name used for a dynamic
// (non-constant) member access.
const DynamicProperty = "*"

// HeapId identifies a coarse heap bucket: an allocation-site anchor plus a
// property name (or the literal DynamicProperty for dynamic keys).
type HeapId struct {
	Anchor   StmtId
	Property string
}

// NewHeapId constructs a HeapId.
func NewHeapId(anchor StmtId, property string) HeapId {
	return HeapId{Anchor: anchor, Property: property}
}

// IsDynamic reports whether this bucket represents a dynamic-key access.
func (h HeapId) IsDynamic() bool { return h.Property == DynamicProperty }

// String returns h:<urlenc(path)>:<start>:<end>:<stmtIdx>:<urlenc(prop)>.
func (h HeapId) String() string {
	return fmt.Sprintf("h:%s:%d:%d:%d:%s",
		url.QueryEscape(h.Anchor.Func.FilePath), h.Anchor.Func.StartOff, h.Anchor.Func.EndOff, h.Anchor.Index,
		url.QueryEscape(h.Property))
}

// ParseHeapId parses a canonical HeapId string.
func ParseHeapId(s string) (HeapId, error) {
	parts := strings.SplitN(s, ":", 6)
	if len(parts) != 6 || parts[0] != "h" {
		return HeapId{}, fmt.Errorf("%w: malformed HeapId %q", ErrInvalidID, s)
	}
	path, err := decodePathStrict(parts[1])
	if err != nil {
		return HeapId{}, fmt.Errorf("%w: %v", ErrInvalidID, err)
	}
	start, err := parseCanonicalInt(parts[2])
	if err != nil {
		return HeapId{}, fmt.Errorf("%w: %v", ErrInvalidID, err)
	}
	end, err := parseCanonicalInt(parts[3])
	if err != nil {
		return HeapId{}, fmt.Errorf("%w: %v", ErrInvalidID, err)
	}
	idx, err := parseCanonicalInt(parts[4])
	if err != nil {
		return HeapId{}, fmt.Errorf("%w: %v", ErrInvalidID, err)
	}
	prop, err := decodePathStrict(parts[5])
	if err != nil {
		return HeapId{}, fmt.Errorf("%w: bad property in %q: %v", ErrInvalidID, s, err)
	}
	fid, err := NewFuncId(path, start, end)
	if err != nil {
		return HeapId{}, err
	}
	anchor, err := NewStmtId(fid, idx)
	if err != nil {
		return HeapId{}, err
	}
	id := NewHeapId(anchor, prop)
	if id.String() != s {
		return HeapId{}, fmt.Errorf("%w: %q is not canonical (canonical form is %q)", ErrInvalidID, s, id.String())
	}
	return id, nil
}

// Compare implements (filePath, startOffset, endOffset, statementIndex, propertyName).
func (h HeapId) Compare(other HeapId) int {
	if c := h.Anchor.Compare(other.Anchor); c != 0 {
		return c
	}
	return strings.Compare(h.Property, other.Property)
}

// Equal reports structural equality.
func (h HeapId) Equal(other HeapId) bool { return h.Compare(other) == 0 }

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// parseCanonicalInt parses a non-negative integer, rejecting leading zeros
// (other than the literal "0") and any non-digit content.
func parseCanonicalInt(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("empty integer")
	}
	if s == "0" {
		return 0, nil
	}
	if s[0] == '0' || s[0] == '-' {
		return 0, fmt.Errorf("non-canonical integer %q", s)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative integer %q", s)
	}
	return n, nil
}

// decodePathStrict URL-decodes s and rejects it unless re-encoding produces
// exactly s back (no alternative canonical encodings are accepted).
func decodePathStrict(s string) (string, error) {
	decoded, err := url.QueryUnescape(s)
	if err != nil {
		return "", err
	}
	if url.QueryEscape(decoded) != s {
		return "", fmt.Errorf("non-canonical percent-encoding %q", s)
	}
	return decoded, nil
}
