// Package storage reads and writes lockpass vault files.
//
// The current format is a BBolt database with two buckets:
//   - header: format version, KDF parameters (algorithm, salt, cost),
//     vault ID, timestamps (unencrypted)
//   - body: the sealed record collection
//
// The unencrypted header is needed to derive the key before anything can be
// decrypted, and it is authenticated as additional data of the body.
//
// Versions 1 and 2 are flat legacy envelopes (version, PBKDF2 iterations,
// salt, sealed body). They are only ever read; Write always produces the
// current format, into a temporary file that is renamed over the target.
package storage
