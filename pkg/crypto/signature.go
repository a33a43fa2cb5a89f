package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Sign produces the keyed-hash signature placeholder for a transaction hash:
// HMAC-SHA-256 over the hash, keyed by the sender identifier. This is a
// simulator-grade placeholder, not a real digital signature (no public key,
// no unforgeability guarantee beyond key secrecy of the sender string).
func Sign(sender string, txHash []byte) string {
	mac := hmac.New(sha256.New, []byte(sender))
	mac.Write(txHash)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify recomputes the keyed-hash signature and compares it against the
// supplied signature in constant time.
func Verify(sender string, txHash []byte, signature string) bool {
	sigBytes, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(sender))
	mac.Write(txHash)
	expected := mac.Sum(nil)
	return hmac.Equal(expected, sigBytes)
}
