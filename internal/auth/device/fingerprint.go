// Package device derives stable identifiers for requesting clients from
// request metadata alone, with no cookies or client-side state.
package device

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Fingerprint hashes the origin address, user agent and accept-language header
// into a stable hex identifier. The same inputs always produce the same value.
func Fingerprint(ip, userAgent, acceptLanguage string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s", ip, userAgent, acceptLanguage)))

	return hex.EncodeToString(sum[:])
}
