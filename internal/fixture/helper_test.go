package fixture

import (
	"os"
	"path/filepath"

	"github.com/bazelbuild/rules_go/go/tools/bazel"
)

// testdataDir returns the scenario directory. In Bazel tests it is found
// through runfiles; otherwise it is located relative to the module root.
func testdataDir() string {
	if p, err := bazel.Runfile("internal/fixture/testdata/bool_pairs.yaml"); err == nil {
		return filepath.Dir(p)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "testdata"
	}
	dir := cwd
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return filepath.Join(dir, "internal", "fixture", "testdata")
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "testdata"
}
