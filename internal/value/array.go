package value

import (
	"encoding/binary"
	"math"
	"math/bits"

	"github.com/spaolacci/murmur3"
)

// RandomSource is the minimal PRNG surface the array layer needs for
// shuffling. The rng package's State satisfies it.
type RandomSource interface {
	Uint64() uint64
}

const feistelRounds = 8

// feistel is a balanced numerical Feistel network generating a permutation
// of 0..len-1 by "encrypting" indices. An index i is split by div-rem into
// a pair (a, b) over Z_m with m = ceil(sqrt(len)); each round applies
// (a, b) <- (b, (a + f(k, b)) mod m) with a keyed PRF f. Outputs that fall
// outside the domain are cycle-walked back in, so the mapping stays a
// bijection without materializing anything.
type feistel struct {
	seed [feistelRounds]uint64
	// modulo splits the index into two halves; zero means 2^32 exactly.
	modulo uint32
	// mask covers modulo with an all-ones bit pattern, so the round output
	// can be reduced with subtractions instead of %.
	mask uint32
	// max is the split form of len-1; both halves are below modulo.
	maxA, maxB uint32
}

func splitIndex(i uint64, modulo uint32) (uint32, uint32) {
	if modulo != 0 {
		m := uint64(modulo)
		return uint32(i / m), uint32(i % m)
	}
	return uint32(i >> 32), uint32(i)
}

func prepareFeistel(length uint64) *feistel {
	max := length - 1
	sqrt64 := uint64(math.Sqrt(float64(max)))
	if sqrt64 > math.MaxUint32 {
		sqrt64 = math.MaxUint32
	}
	sqrt := uint32(sqrt64)
	// modulo == 0 encodes 2^32 exactly, reached when sqrt is at its cap.
	modulo := sqrt + 1
	f := &feistel{
		modulo: modulo,
		mask:   ^uint32(0) >> bits.LeadingZeros32(sqrt),
	}
	f.maxA, f.maxB = splitIndex(max, modulo)
	return f
}

func (f *feistel) shuffle(rng RandomSource) {
	for i := range f.seed {
		f.seed[i] = rng.Uint64()
	}
}

// round is the keyed PRF of one Feistel round.
func round(key, input uint64) uint32 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], key)
	binary.LittleEndian.PutUint64(buf[8:], input)
	return uint32(murmur3.Sum64(buf[:]))
}

func (f *feistel) get(i uint64) uint64 {
	a, b := splitIndex(i, f.modulo)
	for {
		for _, key := range f.seed {
			c := round(key, uint64(b)) & f.mask
			a, b = b, c+a
			if f.modulo != 0 {
				// c < 2^ceil(log2 m) < 2m, so b < 3m; two subtractions suffice.
				if b >= f.modulo {
					b -= f.modulo
					if b >= f.modulo {
						b -= f.modulo
					}
				}
			}
		}
		if a < f.maxA || (a == f.maxA && b <= f.maxB) {
			if f.modulo != 0 {
				return uint64(a)*uint64(f.modulo) + uint64(b)
			}
			return uint64(a)<<32 | uint64(b)
		}
	}
}

// shortArrayLen is the cutoff below which a shuffle materializes a plain
// index table instead of a Feistel network.
const shortArrayLen = 96

// Permutation is a permutation of array indices.
type Permutation struct {
	simple []uint8
	f      *feistel
}

// PreparePermutation creates an unseeded permutation over 0..length-1.
// Shuffle must be called before use.
func PreparePermutation(length uint64) *Permutation {
	if length <= shortArrayLen {
		p := make([]uint8, length)
		for i := range p {
			p[i] = uint8(i)
		}
		return &Permutation{simple: p}
	}
	return &Permutation{f: prepareFeistel(length)}
}

// Get returns the permuted index at original index i.
func (p *Permutation) Get(i uint64) uint64 {
	if p.f == nil {
		return uint64(p.simple[i])
	}
	return p.f.get(i)
}

// Shuffle reseeds the permutation: Fisher-Yates for short tables, a fresh
// Feistel key schedule otherwise.
func (p *Permutation) Shuffle(rng RandomSource) {
	if p.f == nil {
		for i := len(p.simple) - 1; i > 0; i-- {
			j := rng.Uint64() % uint64(i+1)
			p.simple[i], p.simple[j] = p.simple[j], p.simple[i]
		}
		return
	}
	p.f.shuffle(rng)
}

type arrayKind uint8

const (
	arrayEager arrayKind = iota
	arraySeries
	arrayPermuted
)

// Array is an eager or lazy array. Only O(1) random access is guaranteed;
// a series or a permuted view never materializes its elements.
type Array struct {
	kind   arrayKind
	values []Value
	start  Value
	step   Value
	length uint64
	perm   *Permutation
	inner  *Array
}

// ArrayFromValues creates an eager array.
func ArrayFromValues(values []Value) *Array {
	return &Array{kind: arrayEager, values: values}
}

// NewSeries creates a lazy arithmetic series start, start+step, … of the
// given length.
func NewSeries(start, step Value, length uint64) *Array {
	return &Array{kind: arraySeries, start: start, step: step, length: length}
}

// Permuted wraps the array in a lazy permuted view.
func (a *Array) Permuted(perm *Permutation) *Array {
	return &Array{kind: arrayPermuted, perm: perm, inner: a}
}

// Len reports the number of elements.
func (a *Array) Len() uint64 {
	switch a.kind {
	case arrayEager:
		return uint64(len(a.values))
	case arraySeries:
		return a.length
	default:
		return a.inner.Len()
	}
}

// Get returns the element at the given 0-based index. The caller is
// responsible for bounds checking.
func (a *Array) Get(i uint64) Value {
	switch a.kind {
	case arrayEager:
		return a.values[i]
	case arraySeries:
		scaled, err := a.step.Mul(Uint(i))
		if err != nil {
			return Null
		}
		v, err := scaled.Add(a.start)
		if err != nil {
			return Null
		}
		return v
	default:
		return a.inner.Get(a.perm.Get(i))
	}
}

func (a *Array) equal(o *Array) bool {
	if a.Len() != o.Len() {
		return false
	}
	for i := uint64(0); i < a.Len(); i++ {
		if !a.Get(i).Identical(o.Get(i)) {
			return false
		}
	}
	return true
}
