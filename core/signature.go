package core

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
)

// Signature returns the lowercase hex HMAC-SHA1 of message under key.
func Signature(message string, key string) string {
	mac := hmac.New(sha1.New, []byte(key))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

// CanonicalString is the message that gets signed for a request.
func CanonicalString(path string, signingParameters map[string]string, arguments map[string]string) string {
	return path + "?" + EncodeValues(signingParameters) + "&" + EncodeValues(arguments)
}
