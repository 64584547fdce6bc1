// Package vault is the encryption gateway for source collections. Each
// collection owns exactly one reply keypair, stored armored in the key
// directory; replies are encrypted to the source's public key and, when
// configured, the newsroom's institutional key. Destroying a keypair is a
// one-way operation.
package vault

import (
	"bytes"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/openpgp"
	"golang.org/x/crypto/openpgp/armor"
	"golang.org/x/crypto/openpgp/packet"

	// Registers RIPEMD160 with crypto so openpgp can sign with keys that
	// prefer it.
	_ "golang.org/x/crypto/ripemd160"
)

// ErrMalformedKey reports unreadable or corrupted key material.
var ErrMalformedKey = errors.New("vault: malformed key material")

// ErrNoKey reports a collection with no stored keypair.
var ErrNoKey = errors.New("vault: no keypair for collection")

type Config struct {
	KeysDir string
	// NewsroomKeyPath points at the armored institutional public key every
	// reply is additionally encrypted to. Optional; when empty replies are
	// encrypted to the source key only.
	NewsroomKeyPath string
	// KeyBits is the RSA key size for generated keypairs (default 2048).
	KeyBits int
}

type Vault struct {
	keysDir  string
	keyBits  int
	newsroom *openpgp.Entity
}

func New(cfg Config) (*Vault, error) {
	if err := os.MkdirAll(cfg.KeysDir, 0700); err != nil {
		return nil, fmt.Errorf("vault: create keys dir: %w", err)
	}

	v := &Vault{keysDir: cfg.KeysDir, keyBits: cfg.KeyBits}
	if v.keyBits <= 0 {
		v.keyBits = 2048
	}

	if cfg.NewsroomKeyPath != "" {
		entity, err := readArmoredEntity(cfg.NewsroomKeyPath)
		if err != nil {
			return nil, fmt.Errorf("vault: newsroom key: %w", err)
		}
		v.newsroom = entity
	}

	return v, nil
}

func (v *Vault) keyPath(fsID string) string {
	return filepath.Join(v.keysDir, fsID+".asc")
}

// HasKey reports whether a keypair exists for the collection.
func (v *Vault) HasKey(fsID string) bool {
	_, err := os.Stat(v.keyPath(fsID))
	return err == nil
}

// GenerateKeypair creates and stores the reply keypair for a collection.
// Generating over an existing keypair is refused.
func (v *Vault) GenerateKeypair(fsID string) error {
	if v.HasKey(fsID) {
		return fmt.Errorf("vault: keypair already exists for %s", fsID)
	}

	entity, err := openpgp.NewEntity(fsID, "", "", &packet.Config{RSABits: v.keyBits})
	if err != nil {
		return fmt.Errorf("vault: generate keypair: %w", err)
	}

	var buf bytes.Buffer
	aw, err := armor.Encode(&buf, openpgp.PrivateKeyType, nil)
	if err != nil {
		return err
	}
	if err := entity.SerializePrivate(aw, nil); err != nil {
		return fmt.Errorf("vault: serialize keypair: %w", err)
	}
	if err := aw.Close(); err != nil {
		return err
	}

	return os.WriteFile(v.keyPath(fsID), buf.Bytes(), 0600)
}

// PublicKey returns the armored public key of the collection's keypair, for
// operator tooling and key distribution.
func (v *Vault) PublicKey(fsID string) (string, error) {
	entity, err := v.entity(fsID)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	aw, err := armor.Encode(&buf, openpgp.PublicKeyType, nil)
	if err != nil {
		return "", err
	}
	if err := entity.Serialize(aw); err != nil {
		return "", fmt.Errorf("vault: serialize public key: %w", err)
	}
	if err := aw.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Encrypt writes plaintext encrypted to the collection's public key and the
// newsroom key (when configured) at outPath.
func (v *Vault) Encrypt(plaintext []byte, fsID, outPath string) error {
	source, err := v.entity(fsID)
	if err != nil {
		return err
	}

	recipients := []*openpgp.Entity{source}
	if v.newsroom != nil {
		recipients = append(recipients, v.newsroom)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0700); err != nil {
		return err
	}

	f, err := os.OpenFile(outPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}

	pt, err := openpgp.Encrypt(f, recipients, nil, nil, nil)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(outPath)
		return fmt.Errorf("vault: encrypt: %w", err)
	}
	if _, err := pt.Write(plaintext); err != nil {
		_ = pt.Close()
		_ = f.Close()
		_ = os.Remove(outPath)
		return err
	}
	if err := pt.Close(); err != nil {
		_ = f.Close()
		_ = os.Remove(outPath)
		return err
	}
	return f.Close()
}

// Decrypt opens an artifact with the collection's private key. Used by tests
// and operator tooling; the request path never decrypts submissions.
func (v *Vault) Decrypt(ciphertext []byte, fsID string) ([]byte, error) {
	entity, err := v.entity(fsID)
	if err != nil {
		return nil, err
	}

	md, err := openpgp.ReadMessage(bytes.NewReader(ciphertext), openpgp.EntityList{entity}, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("vault: decrypt: %w", err)
	}
	return io.ReadAll(md.UnverifiedBody)
}

// DestroyKeypair irreversibly erases the collection's keypair. A missing
// keypair is not an error: destruction is one-way and idempotent.
func (v *Vault) DestroyKeypair(fsID string) error {
	path := v.keyPath(fsID)

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	if _, err := io.CopyN(f, rand.Reader, info.Size()); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	return os.Remove(path)
}

func (v *Vault) entity(fsID string) (*openpgp.Entity, error) {
	f, err := os.Open(v.keyPath(fsID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoKey, fsID)
		}
		return nil, err
	}
	defer f.Close()

	entities, err := openpgp.ReadArmoredKeyRing(f)
	if err != nil || len(entities) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrMalformedKey, fsID)
	}
	return entities[0], nil
}

func readArmoredEntity(path string) (*openpgp.Entity, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	entities, err := openpgp.ReadArmoredKeyRing(f)
	if err != nil || len(entities) == 0 {
		return nil, ErrMalformedKey
	}
	return entities[0], nil
}
