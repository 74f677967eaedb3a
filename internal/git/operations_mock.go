package git

// MockGitOps is a mock implementation of Operations for testing.
type MockGitOps struct {
	Branch string
	Rev    string
	Calls  int
}

// NewMockGitOps creates a mock with sensible defaults.
func NewMockGitOps() *MockGitOps {
	return &MockGitOps{
		Branch: "main",
		Rev:    "1a2b3c4",
	}
}

func (m *MockGitOps) CurrentBranch(projectPath string) string {
	return m.Branch
}

func (m *MockGitOps) Revision(projectPath string) string {
	m.Calls++
	return m.Rev
}
