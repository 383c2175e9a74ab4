// Package engine evaluates mesh-building scripts. It wraps zygomys in a
// sandboxed environment and turns user source code into kernel meshes.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/trimesh/pkg/kernel"
	"github.com/chazu/trimesh/pkg/logging"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Engine wraps the zygomys interpreter.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment for determinism.
type Engine struct {
	kernel  kernel.Kernel
	timeout time.Duration

	mu         sync.Mutex
	generation uint64
}

// NewEngine creates an Engine that builds solids with k. A non-positive
// timeout selects EvalTimeout.
func NewEngine(k kernel.Kernel, timeout time.Duration) *Engine {
	if timeout <= 0 {
		timeout = EvalTimeout
	}
	return &Engine{kernel: k, timeout: timeout}
}

// Evaluate runs Lisp source code and returns the meshes it built, in the
// order they were started. Each call creates a fresh zygomys sandbox.
//
// Return semantics:
//   - On success: returns meshes + nil errors + nil error
//   - On parse/eval failure: returns nil meshes + eval errors + nil error
//   - On fatal failure (timeout, panic): returns nil + nil + error
func (e *Engine) Evaluate(source string) ([]*kernel.Mesh, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		meshes, evalErrs, err := e.evaluate(source)
		ch <- evalResult{meshes: meshes, errors: evalErrs, err: err}
	}()

	meshes, evalErrs, err := waitWithTimeout(ch, gen, &e.mu, &e.generation, e.timeout)
	if err != nil {
		logging.Warn("engine: evaluation failed: %v", err)
	} else if len(evalErrs) > 0 {
		logging.Debug("engine: %d evaluation errors, first: %v", len(evalErrs), evalErrs[0])
	}
	return meshes, evalErrs, err
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) ([]*kernel.Mesh, []EvalError, error) {
	// Empty source is a valid program that builds nothing.
	if strings.TrimSpace(source) == "" {
		return []*kernel.Mesh{}, nil, nil
	}

	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	b := newBuilder(e.kernel)
	registerBuiltins(env, b)

	err := env.LoadString(preprocessSource(source))
	if err != nil {
		return nil, parseZygomysError(err), nil
	}

	_, err = env.Run()
	if err != nil {
		return nil, parseZygomysError(err), nil
	}

	return b.result(), nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	// zygomys formats parse errors as "Error on line N: <details>\n"
	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{
				Line:    line,
				Message: strings.TrimSpace(m[2]),
			}}
		}
	}

	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
