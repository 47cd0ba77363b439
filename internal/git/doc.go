// Package git warns when a vault file sits inside a git work tree.
//
// The vault is encrypted, but pushing it to a shared remote hands every
// reader an offline guessing target for the master password. Checks:
//   - Whether the vault is tracked by git (should not be)
//   - Whether the vault is in .gitignore (should be)
package git
