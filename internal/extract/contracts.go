// Package extract defines the boundary to the external vision model and
// the parsing of its line-oriented responses.
package extract

import "context"

// Request carries one image and the ordered field names to extract.
type Request struct {
	Image      []byte
	MIMEType   string
	FieldNames []string
}

// Pair is one "name: value" line from the model, in response order.
type Pair struct {
	Name  string
	Value string
}

// Fields holds the parsed response. Pairs preserves response order with
// last-wins semantics for duplicate names; Malformed counts lines the
// parser had to skip.
type Fields struct {
	Pairs     []Pair
	Malformed int
}

// Get returns the value for a name, if present.
func (f Fields) Get(name string) (string, bool) {
	for _, p := range f.Pairs {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// FieldExtractor is the capability the scan orchestrator depends on. A
// single call is one attempt; the orchestrator never retries on its own.
type FieldExtractor interface {
	Extract(ctx context.Context, req Request) (Fields, error)
	// Configured reports whether a credential is present. Scans refuse to
	// start against an unconfigured extractor.
	Configured() bool
}
