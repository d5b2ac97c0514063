package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// phcEncoding is the unpadded base64 variant PHC strings use.
var phcEncoding = base64.RawStdEncoding

// Hash derives an Argon2id key for the given password and returns it
// as a PHC string:
//
//	$argon2id$v=19$m=<mem>,t=<iter>,p=<par>$<salt_b64>$<key_b64>
func (c Config) Hash(password string) (string, error) {
	if err := c.Validate(password); err != nil {
		return "", err
	}

	salt := make([]byte, c.Params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("salt: %w", err)
	}

	key := argon2.IDKey(
		[]byte(password),
		salt,
		c.Params.Iterations,
		c.Params.MemoryKiB,
		c.Params.Parallelism,
		c.Params.KeyLength,
	)

	return encodePHC(c.Params, salt, key), nil
}

// Verify reports whether password matches encodedHash.
// A mismatch is (false, nil); only malformed or out-of-policy hash
// strings produce ErrInvalidHash.
func (c Config) Verify(encodedHash, password string) (bool, error) {
	params, salt, want, err := parsePHC(encodedHash)
	if err != nil {
		return false, err
	}

	// Stored hash strings are attacker-reachable input on login, so the
	// cost parameters they carry are capped against the local policy.
	if !costWithinPolicy(params, c.Params) {
		return false, ErrInvalidHash
	}

	got := argon2.IDKey(
		[]byte(password),
		salt,
		params.Iterations,
		params.MemoryKiB,
		params.Parallelism,
		uint32(len(want)), // #nosec G115 -- key length is bounded by costWithinPolicy.
	)

	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

func encodePHC(p Argon2idParams, salt, key []byte) string {
	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		p.MemoryKiB,
		p.Iterations,
		p.Parallelism,
		phcEncoding.EncodeToString(salt),
		phcEncoding.EncodeToString(key),
	)
}

// costWithinPolicy allows hashes minted under older, cheaper settings
// but rejects anything meaningfully above the configured ceiling.
func costWithinPolicy(got Argon2idParams, limit Argon2idParams) bool {
	switch {
	case got.MemoryKiB > limit.MemoryKiB*2:
		return false
	case got.Iterations > limit.Iterations*2:
		return false
	case got.Parallelism > limit.Parallelism*2:
		return false
	case got.SaltLength < 8 || got.SaltLength > 64:
		return false
	case got.KeyLength < 16 || got.KeyLength > 128:
		return false
	}
	return true
}

// parsePHC splits a PHC string into params, salt and expected key.
func parsePHC(encoded string) (Argon2idParams, []byte, []byte, error) {
	fail := func() (Argon2idParams, []byte, []byte, error) {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return fail()
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return fail()
	}

	var mem, iter, par uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &iter, &par); err != nil {
		return fail()
	}
	if mem == 0 || iter == 0 || par == 0 || par > 255 {
		return fail()
	}

	salt, err := phcEncoding.DecodeString(parts[4])
	if err != nil {
		return fail()
	}
	key, err := phcEncoding.DecodeString(parts[5])
	if err != nil {
		return fail()
	}

	params := Argon2idParams{
		MemoryKiB:   mem,
		Iterations:  iter,
		Parallelism: uint8(par),
		SaltLength:  uint32(len(salt)), // #nosec G115 -- lengths re-checked by costWithinPolicy.
		KeyLength:   uint32(len(key)),  // #nosec G115 -- lengths re-checked by costWithinPolicy.
	}
	return params, salt, key, nil
}
