package types

// FileRecord is the upload ledger entry kept alongside the stored bytes
// (spec.md §9 flags file expiry as an open question; this ledger is the
// supplement that makes a future expiry sweep possible — see SPEC_FULL.md).
type FileRecord struct {
	ID           string
	OriginalName string
	Size         int64
	ContentType  string
	UploadedUnix int64
}
