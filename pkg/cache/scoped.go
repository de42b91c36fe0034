package cache

// ScopedKeyer prefixes every key of an inner Keyer, giving each scope its own
// namespace in a shared backend.
//
//	perTenant := NewScopedKeyer(NewDefaultKeyer(), "tenant:lab-a:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner with prefix. A nil inner means DefaultKeyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// RankKey implements Keyer.
func (k *ScopedKeyer) RankKey(circuitHash string, fingerprints []string, opts RankKeyOpts) string {
	return k.prefix + k.inner.RankKey(circuitHash, fingerprints, opts)
}

// DeflateKey implements Keyer.
func (k *ScopedKeyer) DeflateKey(circuitHash string) string {
	return k.prefix + k.inner.DeflateKey(circuitHash)
}

// RenderKey implements Keyer.
func (k *ScopedKeyer) RenderKey(fingerprint string, opts RenderKeyOpts) string {
	return k.prefix + k.inner.RenderKey(fingerprint, opts)
}
