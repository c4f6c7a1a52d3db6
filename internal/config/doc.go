// Package config loads server and client configuration. Environment
// variables named in spec.md §6 are authoritative; an optional TOML
// file overlaid beneath them supplies defaults for anything the
// environment leaves unset, in the manner of
// katzenpost-katzenpost/server/config.
package config
