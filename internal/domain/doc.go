// Package domain defines the core data models and interfaces shared
// across the relay server and client. It contains plain types (wire
// formats, state) and contracts (interfaces) only.
package domain
