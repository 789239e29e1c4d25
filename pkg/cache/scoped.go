package cache

// ScopedKeyer prefixes every key of an inner Keyer, giving tenants or
// deployments separate namespaces in a shared cache:
//
//	keyer := cache.NewScopedKeyer(nil, "tenant:acme:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner (the [DefaultKeyer] when nil) with prefix.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) ValidationKey(catalogHash string, payload []byte) string {
	return k.prefix + k.inner.ValidationKey(catalogHash, payload)
}

func (k *ScopedKeyer) RenderKey(payload []byte, opts RenderKeyOpts) string {
	return k.prefix + k.inner.RenderKey(payload, opts)
}
