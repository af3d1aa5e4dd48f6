package core

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// Fingerprint identifies one raw input table
type Fingerprint Hash

func (f Fingerprint) String() string { return Hash(f).String() }

// ComputeFingerprint hashes every cell of the raw table. Each row and cell is
// length-prefixed so shifting text between cells changes the result.
func ComputeFingerprint(rows ...[]string) Fingerprint {
	h := sha256.New()
	for _, row := range rows {
		h.Write([]byte(strconv.Itoa(len(row))))
		h.Write([]byte{0})
		for _, cell := range row {
			h.Write([]byte(strconv.Itoa(len(cell))))
			h.Write([]byte{':'})
			h.Write([]byte(cell))
		}
		h.Write([]byte{'\n'})
	}
	return Fingerprint(hex.EncodeToString(h.Sum(nil)))
}
