package starlarkengine

import (
	"context"
	"fmt"
	"regexp"

	"go.starlark.net/lib/json"
	"go.starlark.net/lib/math"
	"go.starlark.net/lib/time"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
	"go.starlark.net/syntax"

	"github.com/jonwraymond/docexec/code"
	"github.com/jonwraymond/tooldiscovery/tooldoc"
)

// Thread-local keys.
const (
	localContext = "docexec.context"
	localTools   = "docexec.tools"
)

// helperModules returns the modules bound while a block runs.
func helperModules() starlark.StringDict {
	return starlark.StringDict{
		"assert": assertModule,
		"json":   json.Module,
		"math":   math.Module,
		"time":   time.Module,
		"struct": starlark.NewBuiltin("struct", starlarkstruct.Make),
		"tools":  toolsModule,
	}
}

var assertModule = &starlarkstruct.Module{
	Name: "assert",
	Members: starlark.StringDict{
		"eq":       starlark.NewBuiltin("assert.eq", assertEq),
		"ne":       starlark.NewBuiltin("assert.ne", assertNe),
		"true":     starlark.NewBuiltin("assert.true", assertTrue),
		"contains": starlark.NewBuiltin("assert.contains", assertContains),
		"fails":    starlark.NewBuiltin("assert.fails", assertFails),
	},
}

func assertEq(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var got, want starlark.Value
	var msg string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "got", &got, "want", &want, "msg?", &msg); err != nil {
		return nil, err
	}
	ok, err := starlark.Equal(got, want)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, failure(msg, "%s != %s", got, want)
	}
	return starlark.None, nil
}

func assertNe(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var got, unwanted starlark.Value
	var msg string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "got", &got, "unwanted", &unwanted, "msg?", &msg); err != nil {
		return nil, err
	}
	same, err := starlark.Equal(got, unwanted)
	if err != nil {
		return nil, err
	}
	if same {
		return nil, failure(msg, "%s == %s", got, unwanted)
	}
	return starlark.None, nil
}

func assertTrue(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var cond starlark.Value
	var msg string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "cond", &cond, "msg?", &msg); err != nil {
		return nil, err
	}
	if !cond.Truth() {
		return nil, failure(msg, "assertion failed: %s is not true", cond)
	}
	return starlark.None, nil
}

func assertContains(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var container, elem starlark.Value
	var msg string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "container", &container, "elem", &elem, "msg?", &msg); err != nil {
		return nil, err
	}
	in, err := starlark.Binary(syntax.IN, elem, container)
	if err != nil {
		return nil, err
	}
	if !in.Truth() {
		return nil, failure(msg, "%s not in %s", elem, container)
	}
	return starlark.None, nil
}

// assertFails calls fn and checks that it fails with an error matching
// pattern. It returns the error message.
func assertFails(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var fn starlark.Callable
	var pattern string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "fn", &fn, "pattern", &pattern); err != nil {
		return nil, err
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid pattern: %v", b.Name(), err)
	}
	_, callErr := starlark.Call(thread, fn, nil, nil)
	if callErr == nil {
		return nil, fmt.Errorf("evaluation succeeded unexpectedly (want error matching %q)", pattern)
	}
	msg := callErr.Error()
	if ee, ok := callErr.(*starlark.EvalError); ok {
		msg = ee.Msg
	}
	if !re.MatchString(msg) {
		return nil, fmt.Errorf("regular expression (%s) did not match error (%s)", pattern, msg)
	}
	return starlark.String(msg), nil
}

func failure(msg, format string, args ...any) error {
	if msg != "" {
		return fmt.Errorf("%s: %s", msg, fmt.Sprintf(format, args...))
	}
	return fmt.Errorf(format, args...)
}

var toolsModule = &starlarkstruct.Module{
	Name: "tools",
	Members: starlark.StringDict{
		"search":     starlark.NewBuiltin("tools.search", toolsSearch),
		"namespaces": starlark.NewBuiltin("tools.namespaces", toolsNamespaces),
		"describe":   starlark.NewBuiltin("tools.describe", toolsDescribe),
		"examples":   starlark.NewBuiltin("tools.examples", toolsExamples),
		"run":        starlark.NewBuiltin("tools.run", toolsRun),
	},
}

// threadTools returns the context and tools environment of thread.
func threadTools(thread *starlark.Thread, name string) (context.Context, code.Tools, error) {
	ctx, _ := thread.Local(localContext).(context.Context)
	if ctx == nil {
		ctx = context.Background()
	}
	tools, _ := thread.Local(localTools).(code.Tools)
	if tools == nil {
		return nil, nil, fmt.Errorf("%s: %w: no tools available", name, code.ErrConfiguration)
	}
	return ctx, tools, nil
}

func toolsSearch(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var query string
	limit := 10
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "query", &query, "limit?", &limit); err != nil {
		return nil, err
	}
	ctx, tools, err := threadTools(thread, b.Name())
	if err != nil {
		return nil, err
	}
	results, err := tools.SearchTools(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	out := make([]starlark.Value, len(results))
	for i, s := range results {
		out[i] = starlarkstruct.FromStringDict(starlarkstruct.Default, starlark.StringDict{
			"id":          starlark.String(s.ID),
			"name":        starlark.String(s.Name),
			"namespace":   starlark.String(s.Namespace),
			"description": starlark.String(s.ShortDescription),
			"tags":        toStarlark(s.Tags),
		})
	}
	return starlark.NewList(out), nil
}

func toolsNamespaces(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackArgs(b.Name(), args, kwargs); err != nil {
		return nil, err
	}
	ctx, tools, err := threadTools(thread, b.Name())
	if err != nil {
		return nil, err
	}
	ns, err := tools.ListNamespaces(ctx)
	if err != nil {
		return nil, err
	}
	return toStarlark(ns), nil
}

func toolsDescribe(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var id string
	var full bool
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "id", &id, "full?", &full); err != nil {
		return nil, err
	}
	ctx, tools, err := threadTools(thread, b.Name())
	if err != nil {
		return nil, err
	}
	level := tooldoc.DetailSummary
	if full {
		level = tooldoc.DetailFull
	}
	doc, err := tools.DescribeTool(ctx, id, level)
	if err != nil {
		return nil, err
	}
	return starlarkstruct.FromStringDict(starlarkstruct.Default, starlark.StringDict{
		"id":      starlark.String(id),
		"summary": starlark.String(doc.Summary),
		"notes":   starlark.String(doc.Notes),
	}), nil
}

func toolsExamples(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var id string
	limit := 5
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "id", &id, "limit?", &limit); err != nil {
		return nil, err
	}
	ctx, tools, err := threadTools(thread, b.Name())
	if err != nil {
		return nil, err
	}
	examples, err := tools.ListToolExamples(ctx, id, limit)
	if err != nil {
		return nil, err
	}
	out := make([]starlark.Value, len(examples))
	for i, ex := range examples {
		out[i] = starlarkstruct.FromStringDict(starlarkstruct.Default, starlark.StringDict{
			"title": starlark.String(ex.Title),
			"args":  toStarlark(ex.Args),
		})
	}
	return starlark.NewList(out), nil
}

// toolsRun calls a host tool: tools.run("ns:name", key=value, ...).
func toolsRun(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var id string
	if err := starlark.UnpackPositionalArgs(b.Name(), args, nil, 1, &id); err != nil {
		return nil, err
	}
	ctx, tools, err := threadTools(thread, b.Name())
	if err != nil {
		return nil, err
	}
	out, err := tools.RunTool(ctx, id, toArgs(kwargs))
	if err != nil {
		return nil, err
	}
	return toStarlark(out), nil
}
