// Package applog sets up structured logging and reimplements the
// message-logging contract of spec.md §7: a basic "<direction>
// message" line always, and full JSON detail only when LOG_MESSAGES
// is set, with public_key and signature fields masked either way.
package applog
