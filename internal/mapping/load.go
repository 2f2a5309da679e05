package mapping

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/kraklabs/obfuscator/internal/errs"
)

// Loaded bundles a validated mapping document with the configHash computed
// from it, per §4.I/§4.C. The hash is taken after Global defaults are
// applied (so two mapping files that omit the same optional field hash
// identically) but before environment-variable overrides and before any
// --profile overlay, so that a checkpoint started on one machine resumes
// correctly on another where CONNECTION_STRING or PARALLEL_THREADS differ
// locally — only the committed mapping document identifies a run.
type Loaded struct {
	Document   *MappingDocument
	ConfigHash string
}

// Load reads and decodes the mapping document at path, applies Global
// defaults, computes the configHash, applies environment overrides, then
// validates the result. The wire format is JSON per §6 — the mapping
// document is a frozen, operator-committed artifact, not a machine-local
// config layer, so it is not a candidate for the TOML profile override (see
// profile.go).
func Load(path string) (*Loaded, error) {
	return LoadWithProfile(path, "")
}

// LoadWithProfile is Load plus an optional --profile overlay (§6, additive),
// applied after the configHash is taken and before environment overrides, so
// a local profile never changes a run's identity for resume purposes any
// more than the environment does.
func LoadWithProfile(path, profilePath string) (*Loaded, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.NewConfigError(fmt.Sprintf("reading mapping file %q", path), err)
	}

	var doc MappingDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errs.NewConfigError(fmt.Sprintf("parsing mapping file %q", path), err)
	}

	doc.Global.applyDefaults()

	hash, err := Hash(&doc)
	if err != nil {
		return nil, errs.NewConfigError("computing config hash", err)
	}

	if profilePath != "" {
		profile, err := LoadProfile(profilePath)
		if err != nil {
			return nil, err
		}
		profile.Apply(&doc.Global)
	}

	doc.Global.applyEnvOverrides()

	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &Loaded{Document: &doc, ConfigHash: hash}, nil
}
