// Package config loads docexec.yaml project files.
//
// A project file tunes the default pipeline without code:
//
//	languages: [python, starlark]
//	test_prefix: test_
//	keep_going: true
//	timeout: 10s
//	max_tool_calls: 50
//	max_steps: 1000000
//	start_pattern: '(?m)^(?P<indent>[ \t]*)\.\. sourcecode:: (?P<lang>\w+)\n'
//	extensions: [ignore, doctest, code, capture]
//	doctest:
//	  flags: [ELLIPSIS, NORMALIZE_WHITESPACE]
//
// Unknown keys are rejected. Every field is optional; [Default] holds the
// values used when a field is absent.
package config
