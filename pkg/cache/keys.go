package cache

import "slices"

// Key namespaces.
const (
	keyRank    = "rank"
	keyDeflate = "deflate"
	keyRender  = "render"
)

// RankKeyOpts holds every search option that can change a ranking result.
type RankKeyOpts struct {
	Deflate            bool `json:"deflate"`
	Successors         bool `json:"successors"`
	Induced            bool `json:"induced"`
	IncludeSingleQubit bool `json:"include_single_qubit"`
	PerOperation       bool `json:"per_operation"`
	PerDevice          int  `json:"per_device"`
	CallLimit          int  `json:"call_limit"`
}

// RenderKeyOpts holds the options of a rendered layout.
type RenderKeyOpts struct {
	Circuit string      `json:"circuit"`
	Format  string      `json:"format"`
	Mapping map[int]int `json:"mapping"`
	Errors  bool        `json:"errors"`
}

// Keyer builds cache keys from the inputs of a cached computation.
type Keyer interface {
	// RankKey identifies a ranking of one circuit across a device pool.
	// fingerprints are the device fingerprints in roster order.
	RankKey(circuitHash string, fingerprints []string, opts RankKeyOpts) string

	// DeflateKey identifies the deflation of one circuit.
	DeflateKey(circuitHash string) string

	// RenderKey identifies a rendered image of a layout on one device.
	RenderKey(fingerprint string, opts RenderKeyOpts) string
}

// DefaultKeyer hashes inputs into "namespace:sha256" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// RankKey implements Keyer. Roster order is part of the key because it
// decides tie-breaking in the result.
func (DefaultKeyer) RankKey(circuitHash string, fingerprints []string, opts RankKeyOpts) string {
	return hashKey(keyRank, circuitHash, slices.Clone(fingerprints), opts)
}

// DeflateKey implements Keyer.
func (DefaultKeyer) DeflateKey(circuitHash string) string {
	return keyDeflate + ":" + circuitHash
}

// RenderKey implements Keyer.
func (DefaultKeyer) RenderKey(fingerprint string, opts RenderKeyOpts) string {
	return hashKey(keyRender, fingerprint, opts)
}

var _ Keyer = DefaultKeyer{}
