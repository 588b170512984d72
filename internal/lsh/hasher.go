package lsh

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/pocketrag/pocketrag/pkg/types"
)

// Hasher maps vectors to fixed-length bit-string signatures using signed
// random projections. Each signature bit is the sign of the dot product
// between the input and one random hyperplane.
//
// The hyperplanes are drawn once at construction and frozen: a vector hashed
// at insert time and a query hashed at search time see identical projections.
// Reseeding between insert and query would silently drop recall to zero.
type Hasher struct {
	bits        int
	dim         int
	hyperplanes [][]float32
}

// NewHasher creates a Hasher with the given signature length and input
// dimension. Hyperplanes are unit-normalized Gaussian vectors generated
// deterministically from seed.
func NewHasher(bits, dim int, seed int64) (*Hasher, error) {
	if bits <= 0 {
		return nil, fmt.Errorf("lsh: bits must be positive, got %d", bits)
	}
	if dim <= 0 {
		return nil, fmt.Errorf("lsh: dim must be positive, got %d", dim)
	}

	rng := rand.New(rand.NewSource(seed))
	hyperplanes := make([][]float32, bits)
	for i := range hyperplanes {
		plane := make([]float32, dim)
		var norm float64
		for j := range plane {
			plane[j] = float32(rng.NormFloat64())
			norm += float64(plane[j]) * float64(plane[j])
		}
		// Unit-normalize for numerical stability; sign of the dot product is
		// unchanged by positive scaling.
		norm = math.Sqrt(norm)
		if norm > 0 {
			scale := float32(1.0 / norm)
			for j := range plane {
				plane[j] *= scale
			}
		}
		hyperplanes[i] = plane
	}

	return &Hasher{bits: bits, dim: dim, hyperplanes: hyperplanes}, nil
}

// Hash returns the signature for vec: one character per hyperplane, "1" when
// the dot product is >= 0, "0" otherwise.
func (h *Hasher) Hash(vec []float32) (string, error) {
	if len(vec) != h.dim {
		return "", fmt.Errorf("%w: vector has dimension %d, hasher requires %d",
			types.ErrDimensionMismatch, len(vec), h.dim)
	}

	var sig strings.Builder
	sig.Grow(h.bits)
	for _, plane := range h.hyperplanes {
		var dot float32
		for i := range plane {
			dot += vec[i] * plane[i]
		}
		if dot >= 0 {
			sig.WriteByte('1')
		} else {
			sig.WriteByte('0')
		}
	}
	return sig.String(), nil
}

// Bits returns the signature length.
func (h *Hasher) Bits() int {
	return h.bits
}

// Dim returns the expected input dimension.
func (h *Hasher) Dim() int {
	return h.dim
}
