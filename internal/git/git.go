package git

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// VaultStatus describes how a vault file relates to the git repository
// around it, if any.
type VaultStatus struct {
	IsRepo  bool
	Tracked bool // committed or staged
	Ignored bool // matched by a .gitignore rule
}

// IsGitRepo checks if the directory is inside a git repository
func IsGitRepo(workDir string) bool {
	cmd := exec.Command("git", "rev-parse", "--is-inside-work-tree")
	cmd.Dir = workDir
	err := cmd.Run()
	return err == nil
}

// IsTracked checks if a file is tracked by git
func IsTracked(workDir, path string) bool {
	cmd := exec.Command("git", "ls-files", "--", path)
	cmd.Dir = workDir
	output, err := cmd.Output()

	if err != nil {
		return false
	}

	return len(strings.TrimSpace(string(output))) > 0
}

// IsIgnored checks if a file is ignored by git (handles all .gitignore files)
func IsIgnored(workDir, path string) bool {
	cmd := exec.Command("git", "check-ignore", "-q", "--", path)
	cmd.Dir = workDir
	err := cmd.Run()

	// git check-ignore returns exit code 0 if file is ignored
	return err == nil
}

// CheckVault reports whether the vault at vaultPath lives in a git work
// tree and whether git would pick it up. A missing git binary counts as
// no repository.
func CheckVault(vaultPath string) *VaultStatus {
	dir, base := filepath.Split(vaultPath)
	if dir == "" {
		dir = "."
	}

	status := &VaultStatus{}
	if !IsGitRepo(dir) {
		return status
	}
	status.IsRepo = true
	status.Tracked = IsTracked(dir, base)
	status.Ignored = IsIgnored(dir, base)
	return status
}

// Exposed reports whether the vault may end up in a commit.
func (s *VaultStatus) Exposed() bool {
	return s.IsRepo && (s.Tracked || !s.Ignored)
}

// FormatVaultStatus formats git status for display
func FormatVaultStatus(status *VaultStatus, vaultPath string) string {
	if !status.IsRepo {
		return ""
	}

	var result strings.Builder
	result.WriteString("\nGit:\n")

	switch {
	case status.Tracked:
		result.WriteString(fmt.Sprintf("   warning: %s is tracked by git (run: git rm --cached %s)\n", vaultPath, vaultPath))
	case !status.Ignored:
		result.WriteString(fmt.Sprintf("   warning: %s is inside a git repository and not in .gitignore\n", vaultPath))
	default:
		result.WriteString("   ok: vault is ignored by git\n")
	}

	return result.String()
}
