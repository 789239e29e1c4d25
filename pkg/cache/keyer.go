package cache

// Keyer derives cache keys for the memoized operations.
type Keyer interface {
	// ValidationKey identifies the validation report of a definition payload
	// checked against a catalog.
	ValidationKey(catalogHash string, payload []byte) string
	// RenderKey identifies a rendered diagram of a definition payload.
	RenderKey(payload []byte, opts RenderKeyOpts) string
}

// RenderKeyOpts holds the render options that change the output.
type RenderKeyOpts struct {
	Format    string `json:"format"`
	Direction string `json:"direction,omitempty"`
	Detailed  bool   `json:"detailed,omitempty"`
}

// DefaultKeyer hashes payloads with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) ValidationKey(catalogHash string, payload []byte) string {
	return hashKey("validate", catalogHash, Hash(payload))
}

func (DefaultKeyer) RenderKey(payload []byte, opts RenderKeyOpts) string {
	return hashKey("render", Hash(payload), opts)
}
