// Package git reads the revision of the source tree a MIB is generated from.
package git

import (
	"os/exec"
	"strings"
)

// Unknown is reported when the tree is not a git checkout.
const Unknown = "unknown"

// Operations defines the interface for git operations.
// This allows mocking git commands in tests.
type Operations interface {
	// CurrentBranch returns the current branch name.
	// For detached HEAD, returns "detached-{short-hash}".
	// Returns Unknown if all git commands fail.
	CurrentBranch(projectPath string) string

	// Revision returns the short HEAD hash, suffixed with "-dirty" when
	// tracked files have uncommitted changes. Returns Unknown outside a repository.
	Revision(projectPath string) string
}

// gitOps is the real implementation using exec.Command.
type gitOps struct{}

// NewOperations returns the default git operations implementation.
func NewOperations() Operations {
	return &gitOps{}
}

func (g *gitOps) CurrentBranch(projectPath string) string {
	output, err := run(projectPath, "branch", "--show-current")
	if err != nil || output == "" {
		// Might be detached HEAD
		hash, err := run(projectPath, "rev-parse", "--short", "HEAD")
		if err != nil {
			return Unknown
		}
		return "detached-" + hash
	}
	return output
}

func (g *gitOps) Revision(projectPath string) string {
	hash, err := run(projectPath, "rev-parse", "--short", "HEAD")
	if err != nil || hash == "" {
		return Unknown
	}
	status, err := run(projectPath, "status", "--porcelain", "--untracked-files=no")
	if err == nil && status != "" {
		return hash + "-dirty"
	}
	return hash
}

func run(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	output, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}
