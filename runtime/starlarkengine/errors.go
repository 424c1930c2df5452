package starlarkengine

import (
	"errors"
	"fmt"
	"strings"

	"go.starlark.net/resolve"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/jonwraymond/docexec/code"
)

// Names that resolve late through the shared scope and are still unbound
// when read fail with this interpreter message.
const (
	unboundPrefix = "internal error: predeclared variable "
	unboundSuffix = " is uninitialized"
)

// mapError converts interpreter errors to code errors carrying the failing
// position. Step-limit cancellations also match code.ErrLimitExceeded.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var syntaxErr syntax.Error
	if errors.As(err, &syntaxErr) {
		return positioned(syntaxErr.Msg, syntaxErr.Pos, "", err)
	}

	var resolveErrs resolve.ErrorList
	if errors.As(err, &resolveErrs) && len(resolveErrs) > 0 {
		first := resolveErrs[0]
		return positioned(first.Msg, first.Pos, "", err)
	}

	var evalErr *starlark.EvalError
	if errors.As(err, &evalErr) {
		var pos syntax.Position
		for i := len(evalErr.CallStack) - 1; i >= 0; i-- {
			if p := evalErr.CallStack[i].Pos; p.Line > 0 {
				pos = p
				break
			}
		}
		msg := evalErr.Msg
		if name, ok := strings.CutPrefix(msg, unboundPrefix); ok {
			msg = "undefined: " + strings.TrimSuffix(name, unboundSuffix)
		}
		ce := positioned(msg, pos, evalErr.Backtrace(), err)
		if strings.Contains(evalErr.Msg, "too many steps") {
			return fmt.Errorf("%w: %w", code.ErrLimitExceeded, ce)
		}
		return ce
	}

	return &code.CodeError{Message: err.Error(), Err: err}
}

func positioned(msg string, pos syntax.Position, backtrace string, err error) *code.CodeError {
	return &code.CodeError{
		Message:   msg,
		Filename:  pos.Filename(),
		Line:      int(pos.Line),
		Column:    int(pos.Col),
		Backtrace: backtrace,
		Err:       err,
	}
}
