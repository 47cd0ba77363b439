// Package prompt reads the master passphrase and record passwords from the
// user. Terminal input is never echoed. LOCKPASS_PASSWORD supplies the master
// passphrase for scripts; it is visible to other processes of the same user,
// so interactive use should prefer the terminal or the OS keyring.
package prompt
