// Package configs loads the lockpass configuration file.
//
// The file lives at $XDG_CONFIG_HOME/lockpass/config.toml by default:
//
//	vault_path = "~/.local/share/lockpass/vault.lockpass"
//
//	[generator]
//	length = 32
//	allow_symbols = true
//
//	[kdf]
//	time = 3
//	memory_kib = 65536
//	threads = 4
//
//	[clipboard]
//	enabled = true
//
// Every key is optional. LOCKPASS_FILE overrides vault_path.
package configs
