// Package crypto provides cryptographic operations for lockpass.
//
// Encryption uses AES-256-GCM with:
//   - 32-byte key derived from the master passphrase
//   - 12-byte random nonce per encryption operation
//   - Authenticated encryption prevents tampering; the vault header is
//     bound in as additional data
//
// Key derivation:
//   - Argon2id (current vaults): 32-byte salt, t=3, m=64 MiB, p=4 by default
//   - PBKDF2-HMAC-SHA256 (legacy vaults only): stored iteration count
//
// Cost parameters live next to the salt in the vault header.
//
// Memory safety:
//   - Keys are returned as secret.Buffer and must be erased by the caller
//   - Call Encryptor.Destroy() when done with encryption operations
package crypto
