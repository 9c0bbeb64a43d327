// Package settings assembles the runtime settings of the override-go binary
// from built-in defaults, OVERRIDE_* environment variables and command-line
// flags.
//
// Precedence, highest first: flags, environment, defaults. Layers are merged
// with mergo, so a zero value in a higher layer never clears a lower one.
package settings
