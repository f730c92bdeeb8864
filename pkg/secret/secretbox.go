// Package secret cifra credenciales de sucursal antes de guardarlas en la base local.
// Formato: base64(nonce(24) || secretbox.Seal(...)).
package secret

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

// ErrDecrypt el texto cifrado no corresponde a la llave o está corrupto.
var ErrDecrypt = errors.New("secret: no se pudo descifrar")

// Box cifra y descifra con una llave simétrica de 32 bytes.
type Box struct {
	key [32]byte
}

// NewBox acepta una llave de 64 caracteres hex; cualquier otro texto no vacío se deriva con SHA-256.
func NewBox(key string) (*Box, error) {
	if key == "" {
		return nil, fmt.Errorf("secret: llave vacía")
	}
	b := &Box{}
	if raw, err := hex.DecodeString(key); err == nil && len(raw) == 32 {
		copy(b.key[:], raw)
		return b, nil
	}
	b.key = sha256.Sum256([]byte(key))
	return b, nil
}

// Seal cifra plain. Una cadena vacía se guarda vacía.
func (b *Box) Seal(plain string) (string, error) {
	if plain == "" {
		return "", nil
	}
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("secret: nonce: %w", err)
	}
	out := secretbox.Seal(nonce[:], []byte(plain), &nonce, &b.key)
	return base64.StdEncoding.EncodeToString(out), nil
}

// Open descifra un valor producido por Seal.
func (b *Box) Open(sealed string) (string, error) {
	if sealed == "" {
		return "", nil
	}
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil || len(raw) < nonceSize+secretbox.Overhead {
		return "", ErrDecrypt
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &b.key)
	if !ok {
		return "", ErrDecrypt
	}
	return string(plain), nil
}
