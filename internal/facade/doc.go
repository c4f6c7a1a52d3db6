// Package facade implements C7: the local HTTP surface a UI shell
// polls against. It never talks to the mesh itself — every handler is
// a thin translation onto internal/clientengine.
package facade
