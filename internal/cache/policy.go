// Package cache implements the Selective Mapping Cache (§4.B): a per-type
// original→synthetic map that the Table Worker consults through GetOrCreate
// so that repeated original values obfuscate to the same synthetic value
// without ever computing it twice.
package cache

import "github.com/kraklabs/obfuscator/internal/mapping"

// ShouldCache resolves the cardinality classification for dataType, honoring
// an explicit DataTypeDef.CachePolicy override before falling back to the
// Glossary's default cached/never-cached split (§4.B).
func ShouldCache(baseType string, def *mapping.DataTypeDef) bool {
	if def != nil {
		switch def.CachePolicy {
		case mapping.CacheForce:
			return true
		case mapping.CacheNever:
			return false
		}
	}
	return mapping.DefaultShouldCache(baseType)
}
