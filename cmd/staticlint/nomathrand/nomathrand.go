// Package nomathrand reports imports of math/rand outside of tests.
// Short keys, user IDs and visitor IDs must come from internal/randstr,
// which draws from a cryptographically secure source.
package nomathrand

import (
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/tools/go/analysis"
)

var Analyzer = &analysis.Analyzer{
	Name: "nomathrand",
	Doc:  "prohibits importing math/rand in non-test code",
	Run:  run,
}

var forbidden = map[string]bool{
	"math/rand":    true,
	"math/rand/v2": true,
}

func run(pass *analysis.Pass) (interface{}, error) {
	for _, file := range pass.Files {
		filename := filepath.ToSlash(pass.Fset.File(file.Pos()).Name())
		if strings.HasSuffix(filename, "_test.go") || strings.Contains(filename, "/go-build/") {
			continue
		}

		for _, imp := range file.Imports {
			path, err := strconv.Unquote(imp.Path.Value)
			if err != nil || !forbidden[path] {
				continue
			}
			pass.Reportf(imp.Pos(), "use internal/randstr instead of %s", path)
		}
	}

	return nil, nil
}
