package starlarkengine

import "go.starlark.net/syntax"

// boundNames lists the names the top-level statements of f bind, in the
// order they first appear.
func boundNames(f *syntax.File) []string {
	var b binder
	b.stmts(f.Stmts)
	return b.names
}

type binder struct {
	names []string
	seen  map[string]bool
}

func (b *binder) add(name string) {
	if b.seen == nil {
		b.seen = make(map[string]bool)
	}
	if b.seen[name] {
		return
	}
	b.seen[name] = true
	b.names = append(b.names, name)
}

func (b *binder) stmts(stmts []syntax.Stmt) {
	for _, s := range stmts {
		switch s := s.(type) {
		case *syntax.DefStmt:
			b.add(s.Name.Name)
		case *syntax.AssignStmt:
			b.target(s.LHS)
		case *syntax.LoadStmt:
			for _, id := range s.To {
				b.add(id.Name)
			}
		case *syntax.ForStmt:
			b.target(s.Vars)
			b.stmts(s.Body)
		case *syntax.WhileStmt:
			b.stmts(s.Body)
		case *syntax.IfStmt:
			b.stmts(s.True)
			b.stmts(s.False)
		}
	}
}

// target adds the identifiers of an assignment target. Index and attribute
// targets mutate a value and bind nothing.
func (b *binder) target(e syntax.Expr) {
	switch e := e.(type) {
	case *syntax.Ident:
		b.add(e.Name)
	case *syntax.TupleExpr:
		for _, x := range e.List {
			b.target(x)
		}
	case *syntax.ListExpr:
		for _, x := range e.List {
			b.target(x)
		}
	case *syntax.ParenExpr:
		b.target(e.X)
	}
}
