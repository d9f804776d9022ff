package vstore

// mountConfig collects the mutable attributes of a mount point. The
// defaults describe the most restricted mount: read-only, not overlaid,
// priority zero.
type mountConfig struct {
	readWrite bool
	overlay   bool
	priority  int
}

// MountOption configures Mount and Remount.
type MountOption func(*mountConfig)

// WithReadWrite makes the mount writable; Store and Remove may be routed
// to it.
func WithReadWrite() MountOption {
	return func(c *mountConfig) { c.readWrite = true }
}

// WithOverlay additionally merges the mount into the root-level view,
// subject to priority ordering.
func WithOverlay() MountOption {
	return func(c *mountConfig) { c.overlay = true }
}

// WithPriority sets the overlay rank; higher values are consulted first.
func WithPriority(n int) MountOption {
	return func(c *mountConfig) { c.priority = n }
}

// fileConfig collects FileStorage construction knobs.
type fileConfig struct {
	codec            Codec
	compressionLevel int
	cacheSize        int
}

// FileOption configures NewFileStorage.
type FileOption func(*fileConfig)

// WithCodec sets the payload codec; the default is JSONCodec.
func WithCodec(c Codec) FileOption {
	return func(o *fileConfig) { o.codec = c }
}

// WithCompression enables zstd compression of stored payload files.
// Levels 1..3 map from fastest to best compression; the default is off.
func WithCompression(level int) FileOption {
	return func(o *fileConfig) { o.compressionLevel = level }
}

// WithCacheSize bounds the read-through payload cache; zero disables it.
func WithCacheSize(n int) FileOption {
	return func(o *fileConfig) { o.cacheSize = n }
}
