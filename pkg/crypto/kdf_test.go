package crypto

import (
	"bytes"
	"crypto/aes"
	"testing"
)

// sealerSaltLength matches the salt the state database generates for the credential sealer.
const sealerSaltLength = 16

func TestDefaultArgon2ParamsFitTheSealer(t *testing.T) {
	params := DefaultArgon2Params()
	if err := params.Validate(); err != nil {
		t.Fatalf("default params invalid: %v", err)
	}
	if params.Time != 1 || params.Memory != 19*1024 || params.Threads != 2 {
		t.Fatalf("unexpected cost parameters: %+v", params)
	}

	salt, err := GenerateSalt(sealerSaltLength)
	if err != nil {
		t.Fatalf("generate salt: %v", err)
	}
	key, err := DeriveKeyArgon2id([]byte("workstation-secret"), salt, params)
	if err != nil {
		t.Fatalf("derive key: %v", err)
	}
	if len(key) != 32 {
		t.Fatalf("expected an AES-256 key, got %d bytes", len(key))
	}
	if _, err := aes.NewCipher(key); err != nil {
		t.Fatalf("derived key rejected by aes: %v", err)
	}

	sealer, err := NewSealer("workstation-secret", salt)
	if err != nil {
		t.Fatalf("new sealer: %v", err)
	}
	if !bytes.Equal(sealer.key, key) {
		t.Fatal("sealer key differs from DeriveKeyArgon2id with default params")
	}
}

func TestDeriveKeyArgon2idDeterministic(t *testing.T) {
	params := DefaultArgon2Params()
	salt := bytes.Repeat([]byte{0xA5}, sealerSaltLength)

	first, err := DeriveKeyArgon2id([]byte("cluster-passphrase"), salt, params)
	if err != nil {
		t.Fatalf("derive key: %v", err)
	}
	second, err := DeriveKeyArgon2id([]byte("cluster-passphrase"), salt, params)
	if err != nil {
		t.Fatalf("derive key again: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatal("expected the same key for the same passphrase and salt")
	}

	other, err := DeriveKeyArgon2id([]byte("cluster-passphrase"), bytes.Repeat([]byte{0x5A}, sealerSaltLength), params)
	if err != nil {
		t.Fatalf("derive key with other salt: %v", err)
	}
	if bytes.Equal(first, other) {
		t.Fatal("expected a different key for a different salt")
	}
}

func TestDeriveKeyArgon2idValidatesInput(t *testing.T) {
	params := DefaultArgon2Params()
	salt := bytes.Repeat([]byte{0x01}, sealerSaltLength)

	if _, err := DeriveKeyArgon2id(nil, salt, params); err == nil {
		t.Fatal("expected error when secret is empty")
	}
	if _, err := DeriveKeyArgon2id([]byte("secret"), salt[:sealerSaltLength-1], params); err == nil {
		t.Fatal("expected error when salt is shorter than the sealer salt")
	}
	if _, err := NewSealer("secret", salt[:sealerSaltLength-1]); err == nil {
		t.Fatal("expected the sealer to reject a short salt")
	}

	badParams := params
	badParams.KeyLength = 20
	if _, err := DeriveKeyArgon2id([]byte("secret"), salt, badParams); err == nil {
		t.Fatal("expected error for invalid key length")
	}
}

func TestArgon2ParametersValidate(t *testing.T) {
	cases := []struct {
		name   string
		params Argon2Parameters
		valid  bool
	}{
		{"default", DefaultArgon2Params(), true},
		{"aes-128 key", Argon2Parameters{Time: 1, Memory: 19 * 1024, Threads: 2, KeyLength: 16}, true},
		{"zero time", Argon2Parameters{Time: 0, Memory: 19 * 1024, Threads: 2, KeyLength: 32}, false},
		{"zero threads", Argon2Parameters{Time: 1, Memory: 19 * 1024, Threads: 0, KeyLength: 32}, false},
		{"memory below 8 per thread", Argon2Parameters{Time: 1, Memory: 15, Threads: 2, KeyLength: 32}, false},
		{"zero key length", Argon2Parameters{Time: 1, Memory: 19 * 1024, Threads: 2, KeyLength: 0}, false},
		{"invalid key length", Argon2Parameters{Time: 1, Memory: 19 * 1024, Threads: 2, KeyLength: 48}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.params.Validate()
			if tc.valid && err != nil {
				t.Fatalf("expected params to be valid: %v", err)
			}
			if !tc.valid && err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
