// Package core holds the decrypted vault and every operation on it.
//
// A Store is opened with the master passphrase, keeps all records in memory
// and writes the whole vault back on each change:
//   - Create: new empty vault sealed with a fresh Argon2id key
//   - Open: read, authenticate and decrypt; legacy formats are migrated and
//     rewritten in the current format once
//   - List, Get: read records (List never exposes passwords)
//   - Add, Delete, Change, Rename: mutate one record and persist
//   - ChangeMasterPassphrase: re-key with a new salt
//
// A failed write leaves both the file and the in-memory state as they were.
// Passwords live in secret.Buffer values; Close erases them with the key.
package core
