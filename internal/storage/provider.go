// Package storage defines the host file bridge the persistence layer writes
// through.
package storage

// Provider is the raw byte-level file interface. Paths are relative to the
// library root. The persistence layer is the sole caller.
type Provider interface {
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path: a reader never observes a
	// half-written file.
	Write(path string, content []byte) error
	// List returns the file names directly under dir, sorted. A missing
	// directory yields an empty listing.
	List(dir string) ([]string, error)
	// Exists reports whether a file exists at path.
	Exists(path string) bool
	// Delete removes the file at path.
	Delete(path string) error
}
