// Package keyring caches vault master passwords in the OS keyring, keyed by
// the vault ID from the file header so that moving a vault keeps its entry.
package keyring
