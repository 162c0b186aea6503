// Package config loads, normalizes, and validates subtrans configuration.
//
// Configuration lives in a TOML file resolved from an explicit --config flag,
// ~/.config/subtrans/config.toml, or ./subtrans.toml, in that order. Missing
// files are not an error; defaults apply. Validation failures are startup
// errors and carry the offending key in the message.
package config
