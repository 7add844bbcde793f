package cryptox

import (
	"crypto/sha256"
	"encoding/base64"
)

// FingerprintLen is the length of a Fingerprint.
const FingerprintLen = 12

// Fingerprint returns a short, deterministic SHA-256 fingerprint of a
// credential, safe to log in place of it. Empty input yields "".
func Fingerprint(secret string) string {
	if secret == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(secret))
	return base64.RawURLEncoding.EncodeToString(sum[:])[:FingerprintLen]
}
