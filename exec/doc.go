// Package exec provides a unified facade for running documentation in the
// docexec ecosystem.
//
// The exec package assembles everything a documentation run needs into a
// single, cohesive API: an engine registry with the Starlark engine under
// every configured language, the extension pipeline (ignore, doctest, code,
// capture by default), and the host tool environment snippets can search
// and call through the tools module.
//
// # Basic Usage
//
//	executor, err := exec.New(exec.Options{})
//	if err != nil {
//	    return err
//	}
//	res, err := executor.RunFile(ctx, "README.md")
//	fmt.Println(res.Passed(), res.Failed())
//
// # Host Tools
//
// Register tools in a tooldiscovery index and back them with local
// handlers; snippets reach them as tools.search and tools.run:
//
//	idx := index.NewInMemoryIndex(index.IndexOptions{
//	    Searcher: search.NewBM25Searcher(search.BM25Config{}),
//	})
//	idx.RegisterTool(tool, model.NewLocalBackend("greet-handler"))
//
//	executor, err := exec.New(exec.Options{
//	    Index: idx,
//	    LocalHandlers: map[string]exec.Handler{
//	        "greet-handler": func(ctx context.Context, args map[string]any) (any, error) {
//	            return fmt.Sprintf("Hello, %s!", args["name"]), nil
//	        },
//	    },
//	})
//
// # Several Documents
//
// [Exec.RunFiles] runs documents one after another, each in a fresh
// namespace, and keeps going past failing documents:
//
//	results, err := executor.RunFiles(ctx, "README.md", "docs/guide.rst")
//	summary := results.Summary()
//
// # Integration
//
// The exec package integrates with:
//
//   - [github.com/jonwraymond/docexec/suite] for the extension pipeline
//   - [github.com/jonwraymond/docexec/runtime/starlarkengine] for snippet evaluation
//   - [github.com/jonwraymond/docexec/config] for project files
//   - [github.com/jonwraymond/tooldiscovery/index] for host tool registration and lookup
//   - [github.com/jonwraymond/tooldiscovery/tooldoc] for host tool documentation
package exec
