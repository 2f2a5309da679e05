package mapping

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/kraklabs/obfuscator/internal/errs"
)

// Profile is the optional, machine-local override layer loaded from
// --profile (§6, additive). It carries only the Global fields an operator
// might want to tweak on one laptop without touching the committed mapping
// document — never the mapping document's own tables, columns, or data
// types, which stay authoritative.
type Profile struct {
	ConnectionString      string `toml:"connection_string"`
	ParallelThreads       int    `toml:"parallel_threads"`
	CommandTimeoutSeconds int    `toml:"command_timeout_seconds"`
	MappingCacheDirectory string `toml:"mapping_cache_directory"`
}

// LoadProfile decodes a local TOML profile file. A missing field is simply
// left at its zero value and ignored by Apply.
func LoadProfile(path string) (*Profile, error) {
	var p Profile
	if _, err := toml.DecodeFile(path, &p); err != nil {
		return nil, errs.NewConfigError(fmt.Sprintf("decoding profile %q", path), err)
	}
	return &p, nil
}

// Apply overlays the profile's set fields onto doc.Global. It must run
// after Load's defaults are applied and before environment overrides, per
// §6: "Profile values are applied before environment-variable overrides,
// which are applied before the mapping's own Global block is taken as final
// authority for anything the profile and environment did not set" — in
// practice this means Apply changes only the fields the profile explicitly
// sets, and for those the profile value replaces the mapping document's.
func (p *Profile) Apply(g *Global) {
	if p == nil {
		return
	}
	if p.ConnectionString != "" {
		g.ConnectionString = p.ConnectionString
	}
	if p.ParallelThreads > 0 {
		g.ParallelThreads = p.ParallelThreads
	}
	if p.CommandTimeoutSeconds > 0 {
		g.CommandTimeoutSeconds = p.CommandTimeoutSeconds
	}
	if p.MappingCacheDirectory != "" {
		g.MappingCacheDirectory = p.MappingCacheDirectory
	}
}
