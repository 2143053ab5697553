// Package canon produces RFC 8785 JSON Canonicalization Scheme output
// for the records that must hash reproducibly: ledger entry preimages
// (spec.md §4.5, §8). Receipts are rendered by pkg/receipt with
// encoding/json and do not pass through this package.
package canon

import (
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"
)

// Marshal serializes v to compact JSON and then canonicalizes it per
// RFC 8785 (sorted object keys, no insignificant whitespace, fixed
// number formatting). Two values that are equal once unmarshaled
// always produce byte-identical output, which is the property the
// hash chain in pkg/ledger depends on.
func Marshal(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canon: marshal: %w", err)
	}
	out, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("canon: transform: %w", err)
	}
	return out, nil
}

// MustMarshal panics on error. Reserved for call sites where the
// input is a Go struct with no cyclic references or NaN/Inf floats —
// i.e. every caller in this repository — so a marshal failure means a
// programming error, not a runtime condition to recover from.
func MustMarshal(v interface{}) []byte {
	out, err := Marshal(v)
	if err != nil {
		panic(err)
	}
	return out
}
