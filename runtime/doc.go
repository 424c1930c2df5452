// Package runtime maps code-block languages to the engines that evaluate
// them.
//
// A [Registry] holds one engine per canonical language name plus any number
// of aliases, and satisfies code.EngineResolver so it can be handed straight
// to code.Config. Language lookups are case-insensitive.
//
// The engines themselves live in subpackages; [starlarkengine] evaluates
// blocks with an embedded Starlark interpreter.
//
// [starlarkengine]: https://pkg.go.dev/github.com/jonwraymond/docexec/runtime/starlarkengine
package runtime
