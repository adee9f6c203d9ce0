// Package password computes the credentials sent during session creation.
package password

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"regexp"
	"strconv"

	"golang.org/x/crypto/blowfish"
)

const (
	bcryptAlphabet = "./ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	minCost        = 4
	saltLength     = 22
	hashBytes      = 23
)

// maxCost bounds the work a server supplied salt can demand. The API issues
// cost 12.
const maxCost = 20

var (
	bcryptEncoding = base64.NewEncoding(bcryptAlphabet)
	saltPattern    = regexp.MustCompile(`^\$2[aby]\$(\d\d)\$([./A-Za-z0-9]{22})`)
	magicCipher    = []byte("OrpheanBeholderScryDoubt")
)

// Hasher implements the challenge/response scheme used by session/create.
type Hasher struct{}

// ChallengeResponse derives the password response for a challenge. It
// returns false when salt is not a usable bcrypt salt.
func (Hasher) ChallengeResponse(password, salt, challenge string) (string, bool) {
	return ChallengeResponse(password, salt, challenge)
}

// V2Hash returns the legacy hash sent alongside the response when the API
// asks for it.
func (Hasher) V2Hash(password string) string {
	return V2Hash(password)
}

func ChallengeResponse(password, salt, challenge string) (string, bool) {
	passwordHash, ok := Bcrypt(V2Hash(password), salt)
	if !ok {
		return "", false
	}
	shaPasswordHash := sha256Hex(passwordHash)
	withChallenge := sha256Hex(shaPasswordHash + challenge)
	return base64.StdEncoding.EncodeToString(xorBytes(withChallenge, passwordHash)), true
}

func V2Hash(password string) string {
	sum := md5.Sum([]byte(password))
	return hex.EncodeToString(sum[:])
}

// Bcrypt hashes password with a "$2y$NN$<22 chars>" style salt and returns
// the full modular crypt string.
func Bcrypt(password, salt string) (string, bool) {
	match := saltPattern.FindStringSubmatch(salt)
	if match == nil {
		return "", false
	}
	cost, err := strconv.Atoi(match[1])
	if err != nil || cost < minCost || cost > maxCost {
		return "", false
	}
	rawSalt, err := decodeBase64([]byte(match[2]))
	if err != nil || len(rawSalt) != 16 {
		return "", false
	}

	key := append([]byte(password), 0)
	cipher, err := blowfish.NewSaltedCipher(key, rawSalt)
	if err != nil {
		return "", false
	}
	rounds := uint64(1) << uint(cost)
	for i := uint64(0); i < rounds; i++ {
		blowfish.ExpandKey(key, cipher)
		blowfish.ExpandKey(rawSalt, cipher)
	}

	data := make([]byte, len(magicCipher))
	copy(data, magicCipher)
	for i := 0; i < len(data); i += blowfish.BlockSize {
		for j := 0; j < 64; j++ {
			cipher.Encrypt(data[i:i+blowfish.BlockSize], data[i:i+blowfish.BlockSize])
		}
	}

	out := make([]byte, 0, 60)
	out = append(out, "$2y$"...)
	if cost < 10 {
		out = append(out, '0')
	}
	out = strconv.AppendInt(out, int64(cost), 10)
	out = append(out, '$')
	out = append(out, encodeBase64(rawSalt)...)
	out = append(out, encodeBase64(data[:hashBytes])...)
	return string(out), true
}

func sha256Hex(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

// xorBytes combines two ASCII strings up to the shorter length.
func xorBytes(left, right string) []byte {
	n := len(left)
	if len(right) < n {
		n = len(right)
	}
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[i] = left[i] ^ right[i]
	}
	return out
}

func encodeBase64(src []byte) []byte {
	n := bcryptEncoding.EncodedLen(len(src))
	dst := make([]byte, n)
	bcryptEncoding.Encode(dst, src)
	for n > 0 && dst[n-1] == '=' {
		n--
	}
	return dst[:n]
}

func decodeBase64(src []byte) ([]byte, error) {
	padded := make([]byte, len(src), len(src)+4)
	copy(padded, src)
	for len(padded)%4 != 0 {
		padded = append(padded, '=')
	}
	dst := make([]byte, bcryptEncoding.DecodedLen(len(padded)))
	n, err := bcryptEncoding.Decode(dst, padded)
	if err != nil {
		return nil, err
	}
	return dst[:n], nil
}
