// Package config loads, normalizes, and validates harnorm configuration.
//
// Settings come from a TOML file (explicit path, ~/.config/harnorm/config.toml
// or ./harnorm.toml, in that order) layered over repository defaults. Paths
// are tilde-expanded and made absolute; per-source sections carry the dataset
// root and reader overrides for one registered source.
package config
