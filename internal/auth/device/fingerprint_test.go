package device_test

import (
	"regexp"
	"testing"

	"github.com/autospare/auth-service/internal/auth/device"
	"github.com/stretchr/testify/assert"
)

func TestFingerprint_Deterministic(t *testing.T) {
	a := device.Fingerprint("127.0.0.1", "Go-http-client/1.1", "en-US")
	b := device.Fingerprint("127.0.0.1", "Go-http-client/1.1", "en-US")

	assert.Equal(t, a, b)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{64}$`), a)
}

func TestFingerprint_ChangesWithAnyInput(t *testing.T) {
	base := device.Fingerprint("127.0.0.1", "Go-http-client/1.1", "en-US")

	assert.NotEqual(t, base, device.Fingerprint("10.0.0.1", "Go-http-client/1.1", "en-US"))
	assert.NotEqual(t, base, device.Fingerprint("127.0.0.1", "Mozilla/5.0", "en-US"))
	assert.NotEqual(t, base, device.Fingerprint("127.0.0.1", "Go-http-client/1.1", "de-DE"))
}

func TestFingerprint_EmptyInputs(t *testing.T) {
	assert.Len(t, device.Fingerprint("", "", ""), 64)
}
