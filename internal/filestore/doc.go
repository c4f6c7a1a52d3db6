// Package filestore implements C5: bounded file uploads served back
// over HTTP, the server's PEM public key endpoint, and the
// upload_key endpoint that drops a neighbour's PEM into the
// neighbours directory for C3 to pick up on next reconnect.
//
// Upload metadata (original name, size, content type, upload time) is
// kept in a bbolt ledger; the bytes themselves live as plain files
// under the configured files directory.
package filestore
