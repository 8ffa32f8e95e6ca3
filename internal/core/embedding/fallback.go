package embedding

import (
	"crypto/sha256"
	"encoding/binary"
)

// FallbackVector derives a deterministic pseudo-embedding of length dim from
// the SHA-256 of text. Values are in [-1, 1]. Block k of 32 values is the
// digest of text followed by the big-endian k.
func FallbackVector(text string, dim int) []float32 {
	out := make([]float32, dim)
	var (
		digest [sha256.Size]byte
		buf    = make([]byte, len(text)+4)
	)
	copy(buf, text)

	for i := range out {
		if i%sha256.Size == 0 {
			binary.BigEndian.PutUint32(buf[len(text):], uint32(i/sha256.Size))
			digest = sha256.Sum256(buf)
		}
		b := digest[i%sha256.Size]
		out[i] = (float32(b)/255 - 0.5) * 2
	}
	return out
}
