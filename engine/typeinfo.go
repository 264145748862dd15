package engine

import (
	"crypto/sha256"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// ---------------------------------------------------------------------------
// TypeInfo: runtime type descriptors for generic tabled arguments
// ---------------------------------------------------------------------------

// Term is a generic argument payload. Any value the canonical CBOR encoder
// accepts can be tabled as a generic argument: scalars, strings, slices,
// maps with string keys, and structs with exported fields.
type Term interface{}

// cborEncMode is the canonical encoding mode used for structural keys.
// Canonical mode guarantees the same term always encodes to the same bytes,
// which is what makes the encoding usable as a trie discriminant.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("engine: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// TypeInfo describes the runtime type of a generic tabled argument. Two
// terms key to the same trie child only if both their type descriptors and
// their canonical structure agree.
type TypeInfo struct {
	// Name is the fully qualified type name, unique per type.
	Name string

	// Arity is the number of type parameters, for display only.
	Arity int
}

// String returns the descriptor in name/arity form.
func (ti *TypeInfo) String() string {
	if ti.Arity == 0 {
		return ti.Name
	}
	return fmt.Sprintf("%s/%d", ti.Name, ti.Arity)
}

// StructuralKey computes the trie discriminant for a generic term under this
// descriptor: a SHA-256 digest over the type identity and the term's
// canonical CBOR encoding. Terms that cannot be encoded cannot be tabled;
// the transformation layer is required to reject such argument types at
// compile time, so an encoding failure here is a configuration error.
func (ti *TypeInfo) StructuralKey(t Term) ([32]byte, error) {
	enc, err := cborEncMode.Marshal(t)
	if err != nil {
		return [32]byte{}, fmt.Errorf("engine: term of type %s is not tableable: %w", ti, err)
	}
	h := sha256.New()
	h.Write([]byte(ti.Name))
	h.Write([]byte{0})
	h.Write(enc)
	var key [32]byte
	copy(key[:], h.Sum(nil))
	return key, nil
}
