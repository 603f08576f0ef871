package resolver

import (
	"github.com/teranos/hansard/errors"
)

// Method records which stage of the cascade produced a result.
type Method int

const (
	MethodUnresolved Method = iota
	MethodExact
	MethodDialectNormalized
	MethodFuzzy
	MethodTemporalPortfolio
	// MethodCoreference is stamped by the mention detector when a deictic
	// phrase is bound through speaker history. Resolve never returns it.
	MethodCoreference
)

var methodNames = map[Method]string{
	MethodUnresolved:        "unresolved",
	MethodExact:             "exact",
	MethodDialectNormalized: "dialect_normalized",
	MethodFuzzy:             "fuzzy",
	MethodTemporalPortfolio: "temporal_portfolio",
	MethodCoreference:       "coreference",
}

func (m Method) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}
	return "unknown"
}

// ParseMethod is the inverse of String.
func ParseMethod(s string) (Method, error) {
	for m, name := range methodNames {
		if name == s {
			return m, nil
		}
	}
	return MethodUnresolved, errors.NewInvalidRequestError("unknown resolution method %q", s)
}

func (m Method) MarshalText() ([]byte, error) {
	if _, ok := methodNames[m]; !ok {
		return nil, errors.Newf("unknown resolution method %d", int(m))
	}
	return []byte(m.String()), nil
}

func (m *Method) UnmarshalText(text []byte) error {
	parsed, err := ParseMethod(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Result is the immutable outcome of resolving one mention.
type Result struct {
	NodeID           string  `json:"node_id,omitempty"`
	Confidence       float64 `json:"confidence"`
	Method           Method  `json:"method"`
	CollisionWarning bool    `json:"collision_warning"`
}

// Resolved reports whether the mention was bound to a node.
func (r Result) Resolved() bool {
	return r.NodeID != ""
}

// Unresolved is the result of a mention no stage could bind.
var Unresolved = Result{Method: MethodUnresolved}
