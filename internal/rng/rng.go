// Package rng provides the seedable, forkable pseudo-random generators
// driving value generation. For a fixed algorithm and seed the produced
// stream is identical on every platform.
package rng

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sort"
)

// Seed is the 32-byte seed every algorithm schedules its key from.
type Seed [32]byte

// Source is a deterministic stream of 64-bit words.
type Source interface {
	Uint64() uint64
}

// DefaultAlgorithm names the default generator. The CLI does not read it:
// its --rng default comes from the config package (DUMPGEN_RNG, falling
// back to the same name).
const DefaultAlgorithm = "hc128"

var algorithms = map[string]func(Seed) Source{
	"hc128":    newHC128,
	"chacha12": func(s Seed) Source { return newChaCha(s, 12) },
	"chacha20": func(s Seed) Source { return newChaCha(s, 20) },
	"isaac":    newIsaac,
	"isaac64":  newIsaac64,
	"xorshift": newXorshift,
	"pcg32":    newPCG32,
	"step":     newStep,
}

// Algorithms lists the supported generator names.
func Algorithms() []string {
	names := make([]string, 0, len(algorithms))
	for name := range algorithms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// State is one independent generator stream plus the bookkeeping needed to
// fork child streams off it deterministically.
type State struct {
	algo  string
	seed  Seed
	src   Source
	forks uint64
}

// New creates a generator state for the named algorithm.
func New(algo string, seed Seed) (*State, error) {
	ctor, ok := algorithms[algo]
	if !ok {
		return nil, fmt.Errorf("unsupported rng %q", algo)
	}
	return &State{algo: algo, seed: seed, src: ctor(seed)}, nil
}

// SeedFromHex decodes a 64-hex-digit string into a seed.
func SeedFromHex(s string) (Seed, error) {
	var seed Seed
	raw, err := hex.DecodeString(s)
	if err != nil {
		return seed, fmt.Errorf("invalid seed: %w", err)
	}
	if len(raw) != len(seed) {
		return seed, fmt.Errorf("invalid seed: want %d hex digits, got %d", 2*len(seed), len(s))
	}
	copy(seed[:], raw)
	return seed, nil
}

// String renders the seed in hex.
func (s Seed) String() string { return hex.EncodeToString(s[:]) }

// DeriveSeed computes the child seed for the given path index. The
// derivation is stable across versions: SHA-256(parent ‖ index).
func DeriveSeed(parent Seed, index uint64) Seed {
	var buf [40]byte
	copy(buf[:32], parent[:])
	binary.BigEndian.PutUint64(buf[32:], index)
	return sha256.Sum256(buf[:])
}

// Fork splits an independent child stream from this state. The n-th fork
// of a state with a given seed is always the same stream, regardless of
// how far the parent stream itself has advanced.
func (s *State) Fork() *State {
	child := DeriveSeed(s.seed, s.forks)
	s.forks++
	st, _ := New(s.algo, child)
	return st
}

// Uint64 produces the next 64-bit word.
func (s *State) Uint64() uint64 { return s.src.Uint64() }

// Fill fills the buffer with generated bytes.
func (s *State) Fill(p []byte) {
	for len(p) >= 8 {
		binary.LittleEndian.PutUint64(p, s.Uint64())
		p = p[8:]
	}
	if len(p) > 0 {
		var tail [8]byte
		binary.LittleEndian.PutUint64(tail[:], s.Uint64())
		copy(p, tail[:])
	}
}
