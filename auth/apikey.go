package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"
)

// HeaderName is the header carrying an API key.
const HeaderName = "X-API-Key"

// APIKey is a named key as configured.
type APIKey struct {
	Name string `yaml:"name"`
	Key  string `yaml:"key"`
}

type storedKey struct {
	name string
	hash [sha256.Size]byte
}

// KeySet holds hashed API keys. The zero KeySet and a nil *KeySet are empty.
//
// Contract:
//   - Concurrency: immutable after construction; safe for concurrent use.
//   - Ownership: plaintext keys are not retained.
type KeySet struct {
	keys []storedKey
}

// NewKeySet hashes keys. Every key needs a name and a non-blank value, and
// names must be unique.
func NewKeySet(keys []APIKey) (*KeySet, error) {
	ks := &KeySet{keys: make([]storedKey, 0, len(keys))}
	seen := make(map[string]bool, len(keys))
	for i, k := range keys {
		switch {
		case k.Name == "":
			return nil, fmt.Errorf("%w: key %d has no name", ErrInvalidKey, i)
		case strings.TrimSpace(k.Key) == "":
			return nil, fmt.Errorf("%w: key %q is empty", ErrInvalidKey, k.Name)
		case seen[k.Name]:
			return nil, fmt.Errorf("%w: duplicate key name %q", ErrInvalidKey, k.Name)
		}
		seen[k.Name] = true
		ks.keys = append(ks.keys, storedKey{name: k.Name, hash: sha256.Sum256([]byte(strings.TrimSpace(k.Key)))})
	}
	return ks, nil
}

// Len returns the number of keys.
func (ks *KeySet) Len() int {
	if ks == nil {
		return 0
	}
	return len(ks.keys)
}

// Verify returns the identity owning key. Every stored key is compared so
// timing does not reveal which one matched.
func (ks *KeySet) Verify(key string) (*Identity, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, ErrMissingCredentials
	}

	hash := sha256.Sum256([]byte(key))
	var match *Identity
	for _, k := range ks.keysOrNil() {
		if subtle.ConstantTimeCompare(hash[:], k.hash[:]) == 1 && match == nil {
			match = &Identity{Name: k.name}
		}
	}
	if match == nil {
		return nil, ErrInvalidCredentials
	}
	return match, nil
}

// Authenticate verifies the key presented by r.
func (ks *KeySet) Authenticate(r *http.Request) (*Identity, error) {
	return ks.Verify(KeyFromRequest(r))
}

func (ks *KeySet) keysOrNil() []storedKey {
	if ks == nil {
		return nil
	}
	return ks.keys
}

// KeyFromRequest returns the X-API-Key header, or else the bearer token.
func KeyFromRequest(r *http.Request) string {
	if key := r.Header.Get(HeaderName); key != "" {
		return key
	}
	const bearer = "bearer "
	authz := r.Header.Get("Authorization")
	if len(authz) > len(bearer) && strings.EqualFold(authz[:len(bearer)], bearer) {
		return authz[len(bearer):]
	}
	return ""
}

