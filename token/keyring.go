package token

import (
	"bufio"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

// KeySize is the required length of a keyring key in bytes.
const KeySize = chacha20poly1305.KeySize

const maxKeyringKeys = 8

// Keyring is an ordered list of symmetric keys. The first key seals new
// credentials; decryption tries every key in order, so an old key can stay in
// the ring while issued credentials age out after a rotation. Loaded once at
// process start and read-only afterwards.
type Keyring struct {
	keys [][]byte
}

// NewKeyring builds a keyring from raw 32-byte keys. At least one key is
// required; the first is the sealing key.
func NewKeyring(keys ...[]byte) (*Keyring, error) {
	if len(keys) == 0 {
		return nil, errors.New("token: keyring requires at least one key")
	}
	if len(keys) > maxKeyringKeys {
		return nil, fmt.Errorf("token: keyring supports at most %d keys", maxKeyringKeys)
	}

	ring := &Keyring{keys: make([][]byte, 0, len(keys))}
	for i, key := range keys {
		if len(key) != KeySize {
			return nil, fmt.Errorf("token: key %d is %d bytes, want %d", i, len(key), KeySize)
		}
		owned := make([]byte, KeySize)
		copy(owned, key)
		ring.keys = append(ring.keys, owned)
	}
	return ring, nil
}

// LoadKeyFile reads key material from a file holding one base64 (standard or
// raw) encoded 32-byte key per line, primary key first. Blank lines and
// lines starting with '#' are skipped.
func LoadKeyFile(path string) (*Keyring, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("token: open key file: %w", err)
	}
	defer f.Close()

	var keys [][]byte
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, err := decodeKeyLine(line)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("token: read key file: %w", err)
	}

	return NewKeyring(keys...)
}

// GenerateKey returns a fresh random sealing key, base64 encoded for storage
// in a key file.
func GenerateKey() (string, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

func decodeKeyLine(line string) ([]byte, error) {
	if key, err := base64.StdEncoding.DecodeString(line); err == nil {
		return key, nil
	}
	key, err := base64.RawStdEncoding.DecodeString(line)
	if err != nil {
		return nil, errors.New("token: key file line is not valid base64")
	}
	return key, nil
}
