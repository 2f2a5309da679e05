package generator

import "github.com/kraklabs/obfuscator/internal/mapping"

// Request bundles everything Generate needs to produce one synthetic value,
// per §4.A's contract Generate(dataType, original, effectiveSeed,
// preserveLength) → synthetic.
type Request struct {
	BaseType       string
	Original       string
	EffectiveSeed  string
	PreserveLength bool
	Formatting     *mapping.Formatting
	Validation     *mapping.Validation
}

// maxRetries bounds the post-generation validation retry loop (§4.A: "the
// generator retries up to 16 times with s := stableHash(s)").
const maxRetries = 16
