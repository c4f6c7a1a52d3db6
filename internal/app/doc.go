// Package app bundles the stores, services, and wire handles a server
// or client process needs into a single struct, the way the teacher's
// own internal/app package wires a CLI's dependency graph from a
// Config.
package app
