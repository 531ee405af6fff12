package uijet

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	esbuild "github.com/evanw/esbuild/pkg/api"
)

// BundleScript uses esbuild to bundle an application entry point with all
// its imports into a single self-contained script. This enables ES module
// import/export support for application units without a separate build
// step during development.
//
// If the source doesn't contain any import statements, it's returned as-is
// to avoid unnecessary processing.
func BundleScript(entryPoint string) (string, error) {
	source, err := os.ReadFile(entryPoint)
	if err != nil {
		return "", &ResourceError{Op: "open", Path: entryPoint, Err: err}
	}

	src := string(source)

	// Skip bundling if there are no import statements.
	if !needsBundling(src) {
		return src, nil
	}

	opts := esbuild.BuildOptions{
		EntryPoints:   []string{entryPoint},
		AbsWorkingDir: filepath.Dir(entryPoint),
		Bundle:        true,
		Format:        esbuild.FormatIIFE,
		Write:         false,
		Platform:      esbuild.PlatformNeutral,
		Target:        esbuild.ES2022,
		TreeShaking:   esbuild.TreeShakingFalse,
	}

	result := esbuild.Build(opts)

	if len(result.Errors) > 0 {
		var msgs []string
		for _, e := range result.Errors {
			msgs = append(msgs, e.Text)
		}
		return "", fmt.Errorf("bundling %s: %s", entryPoint, strings.Join(msgs, "; "))
	}

	if len(result.OutputFiles) == 0 {
		return "", fmt.Errorf("bundling %s produced no output", entryPoint)
	}

	return string(result.OutputFiles[0].Contents), nil
}

// needsBundling checks if a script contains import statements that
// require bundling. Simple scripts without imports can skip this step.
func needsBundling(source string) bool {
	return strings.Contains(source, "import ") ||
		strings.Contains(source, "import{") ||
		strings.Contains(source, "import(") ||
		strings.Contains(source, "require(")
}
