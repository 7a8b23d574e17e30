// Package naming maps input files onto the output tree and tracks which
// input claimed each output path during a run.
package naming

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot means the input does not live under the input root, so no
// relative output path exists for it.
var ErrOutsideRoot = errors.New("path is not under the input root")

// RelPath returns input relative to inputRoot.
func RelPath(inputRoot, input string) (string, error) {
	rel, err := filepath.Rel(inputRoot, input)
	if err != nil {
		return "", fmt.Errorf("%s: %w", input, ErrOutsideRoot)
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s: %w", input, ErrOutsideRoot)
	}
	return rel, nil
}

// OutputPath re-roots input under outputRoot. When ext is non-empty the
// extension is replaced unconditionally (ext is given without the dot).
//
//	/in/show/ep1.mp4, /in, /out, ""    → /out/show/ep1.mp4
//	/in/show/ep1.mp4, /in, /out, "mkv" → /out/show/ep1.mkv
func OutputPath(inputRoot, outputRoot, input, ext string) (string, error) {
	rel, err := RelPath(inputRoot, input)
	if err != nil {
		return "", err
	}
	out := filepath.Join(outputRoot, rel)
	if ext != "" {
		out = ReplaceExt(out, ext)
	}
	return out, nil
}

// ReplaceExt swaps the extension of path for ext (without dot). A path
// without an extension gets one appended.
func ReplaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + "." + strings.TrimPrefix(ext, ".")
}
