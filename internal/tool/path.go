package tool

import (
	"path/filepath"
	"strings"
)

// resolvePath makes p absolute, resolving relative paths against workDir.
func resolvePath(p, workDir string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Clean(filepath.Join(workDir, p))
}

// shouldBlockEnvFile reports whether a path looks like a secrets file that
// tools must refuse to read. Sample and example files are allowed.
func shouldBlockEnvFile(filePath string) bool {
	for _, w := range []string{".env.sample", ".env.example", ".example"} {
		if strings.HasSuffix(filePath, w) {
			return false
		}
	}
	return strings.Contains(filepath.Base(filePath), ".env")
}
