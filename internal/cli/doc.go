// Package cli defines the Cobra command tree for the new CLI. Each file
// registers one top-level command with the root command. Commands only parse
// flags, resolve configuration, and format results; the work itself is done
// by the store, builder, render, and remote packages.
package cli
