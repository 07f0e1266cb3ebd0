package rng

import (
	"math"
	"testing"
)

func testSeed(b byte) Seed {
	var s Seed
	for i := range s {
		s[i] = b + byte(i)
	}
	return s
}

func TestAllAlgorithmsAreDeterministic(t *testing.T) {
	for _, name := range Algorithms() {
		name := name
		t.Run(name, func(t *testing.T) {
			a, err := New(name, testSeed(3))
			if err != nil {
				t.Fatal(err)
			}
			b, err := New(name, testSeed(3))
			if err != nil {
				t.Fatal(err)
			}
			for i := 0; i < 1000; i++ {
				va, vb := a.Uint64(), b.Uint64()
				if va != vb {
					t.Fatalf("word %d diverged: %x vs %x", i, va, vb)
				}
			}
		})
	}
}

func TestAlgorithmsDifferBySeed(t *testing.T) {
	for _, name := range Algorithms() {
		a, _ := New(name, testSeed(1))
		b, _ := New(name, testSeed(2))
		same := true
		for i := 0; i < 16; i++ {
			if a.Uint64() != b.Uint64() {
				same = false
				break
			}
		}
		if same {
			t.Errorf("%s: different seeds produced the same stream", name)
		}
	}
}

func TestUnsupportedAlgorithm(t *testing.T) {
	if _, err := New("mt19937", testSeed(0)); err == nil {
		t.Fatal("expected an error for an unsupported rng")
	}
}

func TestSeedFromHex(t *testing.T) {
	s, err := SeedFromHex("000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f")
	if err != nil {
		t.Fatal(err)
	}
	if s[0] != 0 || s[31] != 0x1f {
		t.Errorf("decoded seed = %v", s)
	}
	if _, err := SeedFromHex("abcd"); err == nil {
		t.Error("short seed must be rejected")
	}
	if _, err := SeedFromHex("zz0102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"); err == nil {
		t.Error("non-hex seed must be rejected")
	}
}

func TestForkIsDeterministicAndIndependent(t *testing.T) {
	a, _ := New("hc128", testSeed(9))
	b, _ := New("hc128", testSeed(9))

	// Advancing the parent stream must not change what its forks produce.
	for i := 0; i < 100; i++ {
		a.Uint64()
	}
	fa := a.Fork()
	fb := b.Fork()
	for i := 0; i < 100; i++ {
		if fa.Uint64() != fb.Uint64() {
			t.Fatal("fork streams diverged")
		}
	}

	// The second fork is a different stream from the first.
	fa2 := a.Fork()
	diff := false
	fa3, _ := New("hc128", DeriveSeed(testSeed(9), 0))
	for i := 0; i < 16; i++ {
		if fa2.Uint64() != fa3.Uint64() {
			diff = true
			break
		}
	}
	if !diff {
		t.Error("fork #1 equals fork #0")
	}
}

func TestDeriveSeedStable(t *testing.T) {
	a := DeriveSeed(testSeed(5), 7)
	b := DeriveSeed(testSeed(5), 7)
	if a != b {
		t.Fatal("seed derivation is unstable")
	}
	if a == DeriveSeed(testSeed(5), 8) {
		t.Fatal("adjacent path indices must derive different seeds")
	}
}

func TestRangeBounds(t *testing.T) {
	s, _ := New("pcg32", testSeed(4))
	for i := 0; i < 10000; i++ {
		v := s.RangeU64(10, 20)
		if v < 10 || v >= 20 {
			t.Fatalf("RangeU64 produced %d", v)
		}
		w := s.RangeInclusiveI64(-5, 5)
		if w < -5 || w > 5 {
			t.Fatalf("RangeInclusiveI64 produced %d", w)
		}
		f := s.UniformF64(1.5, 2.5)
		if f < 1.5 || f >= 2.5 {
			t.Fatalf("UniformF64 produced %v", f)
		}
	}
}

func TestRangeCoversBothEnds(t *testing.T) {
	s, _ := New("xorshift", testSeed(8))
	seen := map[uint64]bool{}
	for i := 0; i < 1000; i++ {
		seen[s.RangeInclusiveU64(0, 3)] = true
	}
	for v := uint64(0); v <= 3; v++ {
		if !seen[v] {
			t.Errorf("value %d never sampled", v)
		}
	}
}

func TestZipfDomain(t *testing.T) {
	s, _ := New("chacha12", testSeed(6))
	for i := 0; i < 5000; i++ {
		v := s.Zipf(1000, 1.1)
		if v < 1 || v > 1000 {
			t.Fatalf("Zipf produced %d", v)
		}
	}
	// With a large exponent, rank 1 must dominate.
	ones := 0
	for i := 0; i < 1000; i++ {
		if s.Zipf(1000, 4.0) == 1 {
			ones++
		}
	}
	if ones < 800 {
		t.Errorf("rank 1 sampled only %d/1000 times at exponent 4", ones)
	}
}

func TestFiniteFloats(t *testing.T) {
	s, _ := New("isaac64", testSeed(2))
	for i := 0; i < 10000; i++ {
		f32 := s.FiniteF32()
		if math.IsInf(float64(f32), 0) || math.IsNaN(float64(f32)) {
			t.Fatalf("FiniteF32 produced %v", f32)
		}
		f64 := s.FiniteF64()
		if math.IsInf(f64, 0) || math.IsNaN(f64) {
			t.Fatalf("FiniteF64 produced %v", f64)
		}
	}
}

func TestLogNormalPositive(t *testing.T) {
	s, _ := New("isaac", testSeed(1))
	for i := 0; i < 1000; i++ {
		if v := s.LogNormal(0, 1); v <= 0 {
			t.Fatalf("LogNormal produced %v", v)
		}
	}
}

func TestStepCounts(t *testing.T) {
	s, _ := New("step", Seed{})
	for i := uint64(0); i < 10; i++ {
		if got := s.Uint64(); got != i {
			t.Fatalf("step word %d = %d", i, got)
		}
	}
}
