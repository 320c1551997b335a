package token

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

// ErrMalformedCredential is returned when a credential cannot be decrypted
// with any keyring key, or decrypts to something other than exactly one
// username and one token. Tampered, truncated, and foreign-key credentials
// all collapse into this single error so callers cannot distinguish them.
var ErrMalformedCredential = errors.New("malformed credential")

const (
	// tokenRawSize is the entropy of a generated session token in bytes.
	tokenRawSize = 24

	// TokenLength is the encoded length of every generated token.
	TokenLength = 32

	separator = ":"
)

// Generate returns a cryptographically random session token. The base64url
// alphabet keeps the token free of the ':' separator used by Codec.Encode.
func Generate() (string, error) {
	var raw [tokenRawSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}

// Codec seals and opens credentials with a server-held keyring.
// Safe for concurrent use.
type Codec struct {
	keyring *Keyring
}

// NewCodec returns a Codec over the given keyring.
func NewCodec(ring *Keyring) (*Codec, error) {
	if ring == nil || len(ring.keys) == 0 {
		return nil, errors.New("token: codec requires a keyring")
	}
	return &Codec{keyring: ring}, nil
}

// Encode binds username and token into an encrypted credential. The
// plaintext is "username:token" sealed with XChaCha20-Poly1305 under the
// primary key, with a random nonce prepended; the result is base64url bytes
// suitable for a cookie value.
func (c *Codec) Encode(username, token string) ([]byte, error) {
	if username == "" || strings.Contains(username, separator) {
		return nil, errors.New("token: username must be non-empty and free of ':'")
	}
	if token == "" {
		return nil, errors.New("token: token must be non-empty")
	}

	aead, err := chacha20poly1305.NewX(c.keyring.keys[0])
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(username)+1+len(token)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	sealed := aead.Seal(nonce, nonce, []byte(username+separator+token), nil)

	out := make([]byte, base64.RawURLEncoding.EncodedLen(len(sealed)))
	base64.RawURLEncoding.Encode(out, sealed)
	return out, nil
}

// Decode reverses Encode. Every keyring key is tried in order, so
// credentials sealed before a key rotation keep decoding while the old key
// remains in the ring. Any failure is ErrMalformedCredential.
func (c *Codec) Decode(credential []byte) (username, token string, err error) {
	enc := base64.RawURLEncoding.Strict()
	sealed := make([]byte, enc.DecodedLen(len(credential)))
	n, err := enc.Decode(sealed, credential)
	if err != nil {
		return "", "", ErrMalformedCredential
	}
	sealed = sealed[:n]

	if len(sealed) < chacha20poly1305.NonceSizeX+chacha20poly1305.Overhead {
		return "", "", ErrMalformedCredential
	}
	nonce, box := sealed[:chacha20poly1305.NonceSizeX], sealed[chacha20poly1305.NonceSizeX:]

	for _, key := range c.keyring.keys {
		aead, aerr := chacha20poly1305.NewX(key)
		if aerr != nil {
			return "", "", aerr
		}
		plain, oerr := aead.Open(nil, nonce, box, nil)
		if oerr != nil {
			continue
		}
		return splitCredential(plain)
	}

	return "", "", ErrMalformedCredential
}

func splitCredential(plain []byte) (string, string, error) {
	username, token, ok := strings.Cut(string(plain), separator)
	if !ok || username == "" || token == "" || strings.Contains(token, separator) {
		return "", "", ErrMalformedCredential
	}
	return username, token, nil
}
