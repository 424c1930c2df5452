package starlarkengine

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/jonwraymond/docexec/code"
)

// priorPrefix marks the scope entries that seed a statement's globals. The
// NUL byte keeps them apart from anything a snippet can spell.
const priorPrefix = "\x00prior:"

// Languages are the block languages the engine is usually registered under.
var Languages = []string{"starlark", "star", "python", "py"}

// Config configures an Engine.
type Config struct {
	// Options controls the accepted dialect. Defaults to allowing sets,
	// while loops, top-level control flow and recursion, which keeps
	// documentation snippets close to Python. Global reassignment is always
	// on: later blocks rebind names of earlier ones.
	Options *syntax.FileOptions

	// Modules are extra helper bindings made available to every block, on
	// top of the built-in helper modules.
	Modules starlark.StringDict

	// MaxSteps bounds the computation steps of one execution or invocation.
	// Zero means unlimited.
	MaxSteps uint64

	// Logger is an optional logger for observability.
	Logger code.Logger
}

// Engine implements code.Engine with go.starlark.net.
// It is safe for concurrent use; every call runs on its own thread.
type Engine struct {
	opts     *syntax.FileOptions
	modules  starlark.StringDict
	injected []string
	maxSteps uint64
	logger   code.Logger
}

// New creates a new Engine with the given configuration.
func New(cfg Config) *Engine {
	opts := cfg.Options
	if opts == nil {
		opts = &syntax.FileOptions{
			Set:             true,
			While:           true,
			TopLevelControl: true,
			GlobalReassign:  true,
			Recursion:       true,
		}
	}

	o := *opts
	o.GlobalReassign = true
	opts = &o

	modules := helperModules()
	for name, v := range cfg.Modules {
		modules[name] = v
	}
	injected := make([]string, 0, len(modules))
	for name := range modules {
		injected = append(injected, name)
	}
	sort.Strings(injected)

	return &Engine{
		opts:     opts,
		modules:  modules,
		injected: injected,
		maxSteps: cfg.MaxSteps,
		logger:   cfg.Logger,
	}
}

// Injected implements code.ScopeInjector.
func (e *Engine) Injected() []string {
	return append([]string(nil), e.injected...)
}

// Execute implements code.Engine. The block runs one top-level statement at
// a time against a scope shared by every block of the namespace; names a
// statement binds are written back to ns as soon as the statement finishes.
func (e *Engine) Execute(ctx context.Context, params code.ExecuteParams, ns *code.Namespace, tools code.Tools) (code.ExecuteResult, error) {
	start := time.Now()
	var res code.ExecuteResult
	if err := ctx.Err(); err != nil {
		return res, err
	}

	filename := params.Filename
	if filename == "" {
		filename = "<block>"
	}
	src := params.Code
	if params.FirstLine > 1 {
		src = strings.Repeat("\n", params.FirstLine-1) + src
	}

	f, err := e.opts.Parse(filename, src, 0)
	if err != nil {
		return res, mapError(err)
	}

	env := e.scope(ns)
	thread, out, stop := e.thread(ctx, filename, tools)
	defer stop()

	if params.Mode == code.ModeInteractive {
		if expr := soleExpr(f); expr != nil {
			v, err := starlark.EvalExprOptions(e.opts, thread, expr, env)
			if err == nil && v != starlark.None {
				thread.Print(thread, v.String())
			}
			if err == nil {
				res.Value = fromStarlark(v)
			}
			res.Stdout = out.String()
			res.DurationMs = time.Since(start).Milliseconds()
			return res, e.finish(ctx, err)
		}
	}

	res.Bound = boundNames(f)
	// Bindings made before a failure stay visible, as in an interactive session.
	for _, stmt := range f.Stmts {
		var globals starlark.StringDict
		globals, err = e.execStmt(f, stmt, thread, env)
		for name, v := range globals {
			env[name] = v
			ns.Set(name, v)
		}
		if err != nil {
			break
		}
	}

	res.Stdout = out.String()
	res.DurationMs = time.Since(start).Milliseconds()
	if e.logger != nil {
		e.logger.Logf("starlark chunk %s bound %v in %dms", filename, res.Bound, res.DurationMs)
	}
	return res, e.finish(ctx, err)
}

// execStmt runs one top-level statement of f as its own program. Names the
// statement binds are its globals, seeded from env when already bound so
// that x += 1 sees the earlier x. Every other name resolves through env when
// it is read, so functions defined by earlier statements and blocks see later
// rebindings, and a function body may name something a later block defines.
func (e *Engine) execStmt(f *syntax.File, stmt syntax.Stmt, thread *starlark.Thread, env starlark.StringDict) (starlark.StringDict, error) {
	pos := syntax.Start(stmt)
	var stmts []syntax.Stmt
	var seeded []string
	defer func() {
		for _, name := range seeded {
			delete(env, name)
		}
	}()
	for _, name := range boundNames(&syntax.File{Stmts: []syntax.Stmt{stmt}}) {
		v, ok := env[name]
		if !ok {
			continue
		}
		prior := priorPrefix + name
		env[prior] = v
		seeded = append(seeded, prior)
		stmts = append(stmts, &syntax.AssignStmt{
			OpPos: pos,
			Op:    syntax.EQ,
			LHS:   &syntax.Ident{NamePos: pos, Name: name},
			RHS:   &syntax.Ident{NamePos: pos, Name: prior},
		})
	}

	file := &syntax.File{Path: f.Path, Stmts: append(stmts, stmt), Options: f.Options}
	prog, err := starlark.FileProgram(file, func(name string) bool {
		return env.Has(name) || !starlark.Universe.Has(name)
	})
	if err != nil {
		return nil, err
	}
	return prog.Init(thread, env)
}

// Callable implements code.Engine. Only functions defined in Starlark
// qualify, and only when every parameter is optional. Builtins bound under a
// test name, such as test_size = len, are not tests.
func (e *Engine) Callable(value any) bool {
	fn, ok := value.(*starlark.Function)
	if !ok {
		return false
	}
	required := fn.NumParams()
	if fn.HasVarargs() {
		required--
	}
	if fn.HasKwargs() {
		required--
	}
	for i := 0; i < required; i++ {
		if fn.ParamDefault(i) == nil {
			return false
		}
	}
	return true
}

// Invoke implements code.Engine.
func (e *Engine) Invoke(ctx context.Context, name string, value any, tools code.Tools) (code.ExecuteResult, error) {
	start := time.Now()
	var res code.ExecuteResult
	fn, ok := value.(starlark.Callable)
	if !ok {
		return res, &code.CodeError{Message: name + " is not callable"}
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	thread, out, stop := e.thread(ctx, name, tools)
	defer stop()

	v, err := starlark.Call(thread, fn, nil, nil)
	if err == nil {
		res.Value = fromStarlark(v)
	}
	res.Stdout = out.String()
	res.DurationMs = time.Since(start).Milliseconds()
	return res, e.finish(ctx, err)
}

// scope returns the environment shared by the blocks run against ns, brought
// up to date with ns. Values converted from Go are replaced on every call;
// Starlark values keep their identity. Helper modules fill the names ns
// leaves free.
func (e *Engine) scope(ns *code.Namespace) starlark.StringDict {
	env := ns.Attachment(e, func() any { return make(starlark.StringDict) }).(starlark.StringDict)
	for name := range env {
		if !ns.Has(name) {
			delete(env, name)
		}
	}
	for _, name := range ns.Keys() {
		v, _ := ns.Get(name)
		env[name] = toStarlark(v)
	}
	for name, mod := range e.modules {
		if !ns.Has(name) {
			env[name] = mod
		}
	}
	return env
}

// thread returns a thread that prints to tools (or a local buffer), carries
// ctx and tools for the helper modules, and is cancelled when ctx is done.
// stop releases the cancellation watcher.
func (e *Engine) thread(ctx context.Context, name string, tools code.Tools) (*starlark.Thread, *output, func()) {
	out := &output{tools: tools}
	thread := &starlark.Thread{
		Name:  name,
		Print: func(_ *starlark.Thread, msg string) { out.println(msg) },
	}
	thread.SetLocal(localContext, ctx)
	if tools != nil {
		thread.SetLocal(localTools, tools)
	}
	if e.maxSteps > 0 {
		thread.SetMaxExecutionSteps(e.maxSteps)
	}

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			thread.Cancel(ctx.Err().Error())
		case <-done:
		}
	}()
	return thread, out, func() { close(done) }
}

// finish maps an execution error, preferring the context error when the
// thread was cancelled.
func (e *Engine) finish(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return mapError(err)
}

// soleExpr returns the expression of a chunk made of one expression
// statement, or nil.
func soleExpr(f *syntax.File) syntax.Expr {
	if len(f.Stmts) != 1 {
		return nil
	}
	if stmt, ok := f.Stmts[0].(*syntax.ExprStmt); ok {
		return stmt.X
	}
	return nil
}

// output collects print output when no tools environment captures it.
type output struct {
	tools code.Tools
	mu    sync.Mutex
	buf   strings.Builder
}

func (o *output) println(msg string) {
	if o.tools != nil {
		o.tools.Println(msg)
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.buf.WriteString(msg)
	o.buf.WriteByte('\n')
}

func (o *output) String() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.buf.String()
}
