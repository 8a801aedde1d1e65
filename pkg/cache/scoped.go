package cache

// ScopedKeyer wraps a Keyer with a prefix so that several deployments or
// engine versions can share one backend without reading each other's
// entries.
//
// Example usage:
//
//	// Keys from an older engine build are never reused
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "v"+buildinfo.Version+":")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// SheetKey generates a prefixed key for parsed documents.
func (k *ScopedKeyer) SheetKey(textHash, format string) string {
	return k.prefix + k.inner.SheetKey(textHash, format)
}

// ArtifactKey generates a prefixed key for rendered output.
func (k *ScopedKeyer) ArtifactKey(sheetKey string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(sheetKey, opts)
}
