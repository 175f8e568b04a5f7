package wal

import "time"

// Options configures a Writer.
type Options struct {
	// DirPath is the directory the "wal" file lives in.
	DirPath string

	// BufferSize is the bufio buffer size in front of the file.
	BufferSize int

	// FlushInterval governs how often fsync runs in the background. Zero
	// means fsync after every entry — the safest option, and the default,
	// since a crash between write and fsync can lose a committed
	// transaction. A positive interval trades durability window for
	// throughput. A negative value means never fsync proactively (the OS
	// still flushes the dirty page cache eventually on its own schedule);
	// this exists for the CLI's "never" flush-timing setting and is not a
	// default anyone should reach for without knowing the tradeoff.
	FlushInterval time.Duration
}

// DefaultOptions returns the safe-by-default configuration: fsync after
// every write.
func DefaultOptions(dirPath string) Options {
	return Options{
		DirPath:    dirPath,
		BufferSize: 64 * 1024,
	}
}
