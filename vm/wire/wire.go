// Package wire encodes asset bundles and session snapshots as canonical
// CBOR.
package wire

import (
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"

	"github.com/chazu/semigrafx/vm"
)

// BundleVersion is the asset bundle format written by this package.
const BundleVersion = 1

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("wire: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// AssetBundle is a set of named cell sequences that programs can turn into
// buffers with the asset builtin.
type AssetBundle struct {
	Version int                `cbor:"1,keyasint"`
	Assets  map[string][]int32 `cbor:"2,keyasint"`
}

// Snapshot is a point-in-time view of a session for inspection. It is
// never loaded back into a host.
type Snapshot struct {
	Name    string    `cbor:"1,keyasint"`
	State   string    `cbor:"2,keyasint"`
	Screen  int32     `cbor:"3,keyasint"`
	Buffers [][]int32 `cbor:"4,keyasint"`
	Fault   string    `cbor:"5,keyasint,omitempty"`
}

// MarshalAssets serializes an AssetBundle to CBOR bytes.
func MarshalAssets(b *AssetBundle) ([]byte, error) {
	return cborEncMode.Marshal(b)
}

// UnmarshalAssets deserializes an AssetBundle from CBOR bytes.
func UnmarshalAssets(data []byte) (*AssetBundle, error) {
	var b AssetBundle
	if err := cbor.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("wire: unmarshal assets: %w", err)
	}
	if b.Version != BundleVersion {
		return nil, fmt.Errorf("wire: unsupported asset bundle version %d", b.Version)
	}
	for name, cells := range b.Assets {
		if len(cells) > vm.MaxCells {
			return nil, fmt.Errorf("wire: asset %q has %d cells, limit is %d", name, len(cells), vm.MaxCells)
		}
	}
	return &b, nil
}

// LoadAssets reads an asset bundle file.
func LoadAssets(path string) (map[string][]int32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	b, err := UnmarshalAssets(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b.Assets, nil
}

// WriteAssets writes assets to path as a bundle.
func WriteAssets(path string, assets map[string][]int32) error {
	data, err := MarshalAssets(&AssetBundle{Version: BundleVersion, Assets: assets})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Capture takes a snapshot of a host's session.
func Capture(h *vm.Host) *Snapshot {
	s := &Snapshot{
		Name:   h.Name(),
		State:  h.State().String(),
		Screen: h.Session().ScreenID(),
	}
	for _, b := range h.Session().Store().All() {
		s.Buffers = append(s.Buffers, b.Cells())
	}
	if err := h.Err(); err != nil {
		s.Fault = err.Error()
	}
	return s
}

// MarshalSnapshot serializes a Snapshot to CBOR bytes.
func MarshalSnapshot(s *Snapshot) ([]byte, error) {
	return cborEncMode.Marshal(s)
}

// UnmarshalSnapshot deserializes a Snapshot from CBOR bytes.
func UnmarshalSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("wire: unmarshal snapshot: %w", err)
	}
	return &s, nil
}

// Codes returns the tile codes the snapshot's screen buffer would render.
func (s *Snapshot) Codes() [vm.GridCells]int32 {
	var codes [vm.GridCells]int32
	if s.Screen < 0 || int(s.Screen) >= len(s.Buffers) {
		return codes
	}
	copy(codes[:], s.Buffers[s.Screen])
	return codes
}
