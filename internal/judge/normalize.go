package judge

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// MaxArtifactBytes is the post-normalization size cap from spec.md
// section 4.7; larger artifacts are rejected as InvalidArtifact.
const MaxArtifactBytes = 50 * 1024

// Normalize trims trailing whitespace from every line and trims leading
// and trailing blank lines overall, so that cosmetic resubmissions share
// a cache key.
func Normalize(artifact string) string {
	lines := strings.Split(artifact, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t\r")
	}

	start := 0
	for start < len(lines) && lines[start] == "" {
		start++
	}
	end := len(lines)
	for end > start && lines[end-1] == "" {
		end--
	}
	return strings.Join(lines[start:end], "\n")
}

// Digest computes the cache key material for a normalized artifact under
// a given kind: sha256 of kind + NUL + normalized text, hex-encoded.
func Digest(kind, normalized string) string {
	h := sha256.New()
	h.Write([]byte(kind))
	h.Write([]byte{0})
	h.Write([]byte(normalized))
	return hex.EncodeToString(h.Sum(nil))
}
