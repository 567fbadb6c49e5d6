// Copyright 2019 hhorai. All rights reserved.
// Use of this source code is governed by a MIT license that can be found
// in the LICENSE file.

// Package usm implements the SNMPv3 User Security Model (RFC 3414):
// password-to-key derivation and engine-ID localization, HMAC
// authentication, and DES-CBC / AES-CFB privacy. It is an external
// collaborator of the ber codec and does not import ber: it works on raw
// byte slices, and framing them as OCTET STRING values is left to callers.
package usm

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/des"
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha1"
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
)

var (
	ErrAuthenticationFailure = errors.New("usm: authentication failure")
	ErrDecryptionFailure     = errors.New("usm: decryption failure")
	ErrUnsupportedProtocol   = errors.New("usm: unsupported protocol")
)

// AuthProtocol selects the hash algorithm behind key localization and
// message authentication.
type AuthProtocol int

const (
	AuthNone AuthProtocol = iota
	AuthMD5
	AuthSHA1
)

// PrivProtocol selects the privacy (encryption) algorithm.
type PrivProtocol int

const (
	PrivNone PrivProtocol = iota
	PrivDES
	PrivAES
)

// HashFunc returns the constructor for p's digest, or ErrUnsupportedProtocol.
func (p AuthProtocol) HashFunc() (func() hash.Hash, error) {
	switch p {
	case AuthMD5:
		return md5.New, nil
	case AuthSHA1:
		return sha1.New, nil
	default:
		return nil, fmt.Errorf("usm: auth protocol %d: %w", p, ErrUnsupportedProtocol)
	}
}

// passwordExpansionLength is 2^20 octets, RFC 3414 appendix A.2's Password
// To Key algorithm.
const passwordExpansionLength = 1048576

// PasswordToKey implements RFC 3414 appendix A.2: the passphrase is
// repeated cyclically to fill exactly 2^20 octets, then digested once.
// An empty passphrase yields an empty key rather than panicking.
func PasswordToKey(passphrase string, newHash func() hash.Hash) []byte {
	pw := []byte(passphrase)
	if len(pw) == 0 {
		return nil
	}
	h := newHash()
	var chunk [64]byte
	for written := 0; written < passwordExpansionLength; written += 64 {
		for i := range chunk {
			chunk[i] = pw[(written+i)%len(pw)]
		}
		h.Write(chunk[:])
	}
	return h.Sum(nil)
}

// LocalizeKey implements RFC 3414 appendix A.2's key localization: the
// password-derived key is folded around the authoritative engine ID and
// digested again, binding the key to that specific engine.
func LocalizeKey(passphrase string, engineID []byte, newHash func() hash.Hash) []byte {
	key := PasswordToKey(passphrase, newHash)
	h := newHash()
	h.Write(key)
	h.Write(engineID)
	h.Write(key)
	return h.Sum(nil)
}

// Authenticate computes the 12-octet HMAC authentication parameter
// (RFC 3414 §6.3.1) over msg using key.
func Authenticate(key, msg []byte, newHash func() hash.Hash) [12]byte {
	mac := hmac.New(newHash, key)
	mac.Write(msg)
	full := mac.Sum(nil)
	var out [12]byte
	copy(out[:], full[:12])
	return out
}

// VerifyAuthentic reports whether want matches the HMAC Authenticate would
// compute over msg with key, using constant-time comparison.
func VerifyAuthentic(key, msg []byte, want [12]byte, newHash func() hash.Hash) bool {
	got := Authenticate(key, msg, newHash)
	return hmac.Equal(got[:], want[:])
}

// EncryptDES implements RFC 3414 §8.3.1.1 DES-CBC privacy. plaintext is
// zero-padded to a multiple of the DES block size before encryption; the
// returned salt is the msgPrivacyParameters value the receiver needs to
// reconstruct the IV.
func EncryptDES(privKey []byte, engineBoots, localInt int32, plaintext []byte) (ciphertext, salt []byte, err error) {
	if len(privKey) < 16 {
		return nil, nil, fmt.Errorf("usm: DES privacy key must be at least 16 bytes, got %d: %w", len(privKey), ErrDecryptionFailure)
	}
	if pad := len(plaintext) % des.BlockSize; pad != 0 {
		plaintext = append(plaintext, make([]byte, des.BlockSize-pad)...)
	}

	salt = make([]byte, 8)
	binary.BigEndian.PutUint32(salt[0:4], uint32(engineBoots))
	binary.BigEndian.PutUint32(salt[4:8], uint32(localInt))

	iv := xorBytes(privKey[8:16], salt)
	block, err := des.NewCipher(privKey[:8])
	if err != nil {
		return nil, nil, fmt.Errorf("usm: %v: %w", err, ErrDecryptionFailure)
	}
	ciphertext = make([]byte, len(plaintext))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, plaintext)
	return ciphertext, salt, nil
}

// DecryptDES is the inverse of EncryptDES.
func DecryptDES(privKey, salt, ciphertext []byte) ([]byte, error) {
	if len(privKey) < 16 {
		return nil, fmt.Errorf("usm: DES privacy key must be at least 16 bytes, got %d: %w", len(privKey), ErrDecryptionFailure)
	}
	if len(salt) != 8 {
		return nil, fmt.Errorf("usm: salt must be 8 bytes, got %d: %w", len(salt), ErrDecryptionFailure)
	}
	if len(ciphertext)%des.BlockSize != 0 {
		return nil, fmt.Errorf("usm: ciphertext length %d is not block-aligned: %w", len(ciphertext), ErrDecryptionFailure)
	}

	iv := xorBytes(privKey[8:16], salt)
	block, err := des.NewCipher(privKey[:8])
	if err != nil {
		return nil, fmt.Errorf("usm: %v: %w", err, ErrDecryptionFailure)
	}
	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)
	return plaintext, nil
}

// EncryptAES implements RFC 3826 AES-CFB privacy. localInt should be a
// per-message monotonically increasing counter, unique per engine boot.
func EncryptAES(privKey []byte, engineBoots, engineTime int32, localInt int64, plaintext []byte) (ciphertext, salt []byte, err error) {
	if len(privKey) < 16 {
		return nil, nil, fmt.Errorf("usm: AES privacy key must be at least 16 bytes, got %d: %w", len(privKey), ErrDecryptionFailure)
	}
	salt = make([]byte, 8)
	binary.BigEndian.PutUint64(salt, uint64(localInt))

	iv := aesIV(engineBoots, engineTime, salt)
	block, err := aes.NewCipher(privKey[:16])
	if err != nil {
		return nil, nil, fmt.Errorf("usm: %v: %w", err, ErrDecryptionFailure)
	}
	ciphertext = make([]byte, len(plaintext))
	cipher.NewCFBEncrypter(block, iv).XORKeyStream(ciphertext, plaintext)
	return ciphertext, salt, nil
}

// DecryptAES is the inverse of EncryptAES.
func DecryptAES(privKey []byte, engineBoots, engineTime int32, salt, ciphertext []byte) ([]byte, error) {
	if len(privKey) < 16 {
		return nil, fmt.Errorf("usm: AES privacy key must be at least 16 bytes, got %d: %w", len(privKey), ErrDecryptionFailure)
	}
	if len(salt) != 8 {
		return nil, fmt.Errorf("usm: salt must be 8 bytes, got %d: %w", len(salt), ErrDecryptionFailure)
	}
	iv := aesIV(engineBoots, engineTime, salt)
	block, err := aes.NewCipher(privKey[:16])
	if err != nil {
		return nil, fmt.Errorf("usm: %v: %w", err, ErrDecryptionFailure)
	}
	plaintext := make([]byte, len(ciphertext))
	cipher.NewCFBDecrypter(block, iv).XORKeyStream(plaintext, ciphertext)
	return plaintext, nil
}

func aesIV(engineBoots, engineTime int32, salt []byte) []byte {
	iv := make([]byte, 16)
	binary.BigEndian.PutUint32(iv[0:4], uint32(engineBoots))
	binary.BigEndian.PutUint32(iv[4:8], uint32(engineTime))
	copy(iv[8:16], salt)
	return iv
}

func xorBytes(a, b []byte) []byte {
	out := make([]byte, len(a))
	for i := range a {
		out[i] = a[i] ^ b[i]
	}
	return out
}
