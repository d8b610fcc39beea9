package ports

// FileSystem is the storage used for MCAP inputs, videos, extracted frames,
// debug artifacts and summaries. Paths use the host's separator.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)

	// WriteFile replaces path with data. Implementations create missing
	// parent directories and must not leave a partially written file at
	// path when they fail.
	WriteFile(path string, data []byte) error

	// MkdirAll creates path and any missing parents.
	MkdirAll(path string) error

	// Exists reports whether a file or directory is present at path.
	Exists(path string) (bool, error)

	Remove(path string) error
}
