// Package transpile turns non-JavaScript script sources into plain scripts the
// engine can compile.
package transpile

import (
	"fmt"
	"strings"

	esbuild "github.com/evanw/esbuild/pkg/api"
)

// Loader selects how a script source is interpreted.
type Loader int

const (
	// JS sources are passed through untouched.
	JS Loader = iota
	// TS sources have their type annotations stripped by esbuild.
	TS
)

func (l Loader) String() string {
	switch l {
	case JS:
		return "js"
	case TS:
		return "ts"
	default:
		return fmt.Sprintf("loader(%d)", int(l))
	}
}

// Error reports a transform failure. Line is 1-based, 0 when unknown.
type Error struct {
	Messages []string
	Line     int
}

func (e *Error) Error() string {
	return "transpiling script: " + strings.Join(e.Messages, "; ")
}

// Source converts source according to loader. The output stays a classic
// script so the completion value of the last expression is preserved.
func Source(source string, loader Loader) (string, error) {
	switch loader {
	case JS:
		return source, nil
	case TS:
	default:
		return "", fmt.Errorf("unsupported loader %s", loader)
	}

	result := esbuild.Transform(source, esbuild.TransformOptions{
		Loader:     esbuild.LoaderTS,
		Target:     esbuild.ES2022,
		Sourcefile: "script.ts",
	})

	if len(result.Errors) > 0 {
		terr := &Error{}
		for _, m := range result.Errors {
			terr.Messages = append(terr.Messages, m.Text)
			if terr.Line == 0 && m.Location != nil {
				terr.Line = m.Location.Line
			}
		}
		return "", terr
	}

	return string(result.Code), nil
}
