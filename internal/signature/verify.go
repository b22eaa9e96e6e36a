// Package signature checks OpenPGP detached signatures on assembly builds
// before they are installed.
package signature

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork
)

var (
	// ErrEmptyKeyring is returned when a keyring file holds no keys.
	ErrEmptyKeyring = errors.New("keyring is empty")
	// ErrNoSignature is returned by Verify for an empty signature.
	ErrNoSignature = errors.New("signature is empty")
)

// Signer describes the key that produced a valid signature.
type Signer struct {
	KeyID    string
	Identity string
}

func (s Signer) String() string {
	if s.Identity == "" {
		return s.KeyID
	}
	return fmt.Sprintf("%s (%s)", s.Identity, s.KeyID)
}

// Verifier checks detached signatures against a fixed keyring.
type Verifier struct {
	keyring openpgp.EntityList
}

// NewVerifier creates a verifier for keyring.
func NewVerifier(keyring openpgp.EntityList) *Verifier {
	return &Verifier{keyring: keyring}
}

// LoadKeyring reads an armored or binary public keyring from path.
func LoadKeyring(path string) (openpgp.EntityList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}

	keyring, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(data))
	if err != nil {
		// Try reading as non-armored keyring
		keyring, err = openpgp.ReadKeyRing(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("read keyring %s: %w", path, err)
		}
	}

	if len(keyring) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyKeyring)
	}

	return keyring, nil
}

// Verify checks that sig is a valid detached signature over data by a key
// in the verifier's keyring. Armored and binary signatures are accepted.
func (v *Verifier) Verify(data, sig []byte) (Signer, error) {
	if len(sig) == 0 {
		return Signer{}, ErrNoSignature
	}

	signer, err := openpgp.CheckArmoredDetachedSignature(v.keyring, bytes.NewReader(data), bytes.NewReader(sig), nil)
	if err != nil {
		// Try non-armored signature
		signer, err = openpgp.CheckDetachedSignature(v.keyring, bytes.NewReader(data), bytes.NewReader(sig), nil)
	}
	if err != nil {
		return Signer{}, fmt.Errorf("verify signature: %w", err)
	}

	return describe(signer), nil
}

// VerifyFiles reads dataPath and sigPath and calls Verify.
func (v *Verifier) VerifyFiles(dataPath, sigPath string) ([]byte, Signer, error) {
	data, err := os.ReadFile(dataPath)
	if err != nil {
		return nil, Signer{}, fmt.Errorf("read build: %w", err)
	}
	sig, err := os.ReadFile(sigPath)
	if err != nil {
		return nil, Signer{}, fmt.Errorf("read signature: %w", err)
	}

	signer, err := v.Verify(data, sig)
	if err != nil {
		return nil, Signer{}, err
	}
	return data, signer, nil
}

func describe(e *openpgp.Entity) Signer {
	if e == nil || e.PrimaryKey == nil {
		return Signer{}
	}
	s := Signer{KeyID: e.PrimaryKey.KeyIdString()}
	if id := e.PrimaryIdentity(); id != nil {
		s.Identity = id.Name
	}
	return s
}
