// Package fingerprint computes short content digests for change detection.
// Hashes are computed over the raw fetched content, not the extracted data,
// so any textual change on the source page surfaces to the operator even
// when the extracted contacts happen to be identical.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
)

// hashLength is the stored prefix length of the hex digest. 16 hex chars
// (64 bits) is plenty for change signaling on one page per institution.
const hashLength = 16

// Fingerprint returns a deterministic short digest of content.
func Fingerprint(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])[:hashLength]
}

// Changed reports whether content has changed relative to the previously
// stored hash. An absent previous hash always counts as changed.
func Changed(previous, next string) bool {
	return previous == "" || previous != next
}
