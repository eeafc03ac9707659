package utils

import (
	"encoding/hex"

	"github.com/zeebo/xxh3"
)

func GetEncodedXXHash128(data ...[]byte) string {
	h := xxh3.New()
	for _, bytes := range data {
		h.Write(bytes)
	}
	sum := h.Sum128()
	bytes := sum.Bytes()
	return hex.EncodeToString(bytes[:])
}

// GetXXHash64 hashes the parts with a separator so that ("ab","c") and ("a","bc") differ.
func GetXXHash64(parts ...string) uint64 {
	h := xxh3.New()
	for i, part := range parts {
		if i > 0 {
			h.Write([]byte{0})
		}
		h.WriteString(part)
	}
	return h.Sum64()
}
