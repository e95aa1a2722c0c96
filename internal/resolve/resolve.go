// Package resolve checks a program's names without running it.
//
// It mirrors the evaluator's scoping: the top level runs in the root scope,
// every block, if branch and loop body opens a scope of its own, and a
// declaration is visible only after it. A name that no scope binds, an
// assignment to a constant and a redeclaration in one scope are reported
// as warnings, since the code that would fail may never run.
package resolve

import (
	"notjs/internal/ast"
	"notjs/internal/diag"
	"notjs/internal/span"
)

type scope struct {
	bindings map[string]bool // name -> mutable
	parent   *scope
}

func newScope(parent *scope) *scope {
	return &scope{bindings: make(map[string]bool), parent: parent}
}

func (s *scope) lookup(name string) (mutable, ok bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if m, found := cur.bindings[name]; found {
			return m, true
		}
	}
	return false, false
}

func (s *scope) hasLocal(name string) bool {
	_, ok := s.bindings[name]
	return ok
}

type resolver struct {
	diags diag.List
	scope *scope
}

// Program checks prog against a root scope that already binds globals.
// The value of each entry reports whether that global may be reassigned.
func Program(prog *ast.Program, globals map[string]bool) diag.List {
	r := &resolver{scope: newScope(nil)}
	for name, mutable := range globals {
		r.scope.bindings[name] = mutable
	}
	for _, stmt := range prog.Stmts {
		r.stmt(stmt)
	}
	return r.diags
}

func (r *resolver) warn(code string, s span.Span, format string, args ...any) {
	r.diags = append(r.diags, diag.Warningf(code, s, format, args...))
}

func (r *resolver) push() { r.scope = newScope(r.scope) }
func (r *resolver) pop()  { r.scope = r.scope.parent }

// ---- statements ----

func (r *resolver) stmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		r.expr(s.Expr)
	case *ast.PrintStmt:
		r.expr(s.Expr)
	case *ast.ReturnStmt:
		if s.Value != nil {
			r.expr(s.Value)
		}
	case *ast.VarDeclStmt:
		if s.Init != nil {
			r.expr(s.Init)
		}
		if r.scope.hasLocal(s.Name) {
			r.warn(diag.CodeRedeclaration, s.Span, "'%s' is already declared in this scope", s.Name)
			return
		}
		r.scope.bindings[s.Name] = s.Kind == ast.DeclLet
	case *ast.BlockStmt:
		r.push()
		for _, inner := range s.Stmts {
			r.stmt(inner)
		}
		r.pop()
	case *ast.IfStmt:
		r.expr(s.Cond)
		r.body(s.Then)
		if s.Else != nil {
			r.body(s.Else)
		}
	case *ast.WhileStmt:
		r.expr(s.Cond)
		r.body(s.Body)
	}
}

// body checks a branch or loop body, which gets a scope even when it is
// a single statement.
func (r *resolver) body(stmt ast.Stmt) {
	if _, ok := stmt.(*ast.BlockStmt); ok {
		r.stmt(stmt)
		return
	}
	r.push()
	r.stmt(stmt)
	r.pop()
}

// ---- expressions ----

func (r *resolver) expr(expr ast.Expr) {
	switch e := expr.(type) {
	case *ast.Ident:
		if _, ok := r.scope.lookup(e.Name); !ok {
			r.warn(diag.CodeUndeclared, e.Span, "undefined identifier '%s'", e.Name)
		}
	case *ast.ArrayLit:
		for _, el := range e.Elements {
			r.expr(el)
		}
	case *ast.GroupExpr:
		r.expr(e.Inner)
	case *ast.UnaryExpr:
		r.expr(e.Operand)
	case *ast.BinaryExpr:
		r.expr(e.Left)
		r.expr(e.Right)
	case *ast.CondExpr:
		r.expr(e.Cond)
		r.expr(e.Then)
		r.expr(e.Else)
	case *ast.IndexExpr:
		r.expr(e.Target)
		r.expr(e.Index)
	case *ast.MemberExpr:
		r.expr(e.Target)
	case *ast.CallExpr:
		r.expr(e.Callee)
		for _, arg := range e.Args {
			r.expr(arg)
		}
	case *ast.AssignExpr:
		r.assign(e)
	}
}

// assign follows the evaluator's order: the target's operands, then the
// value, then the binding itself.
func (r *resolver) assign(e *ast.AssignExpr) {
	id, ok := ast.Unparen(e.Target).(*ast.Ident)
	if !ok {
		r.expr(e.Target)
		r.expr(e.Value)
		return
	}

	r.expr(e.Value)
	mutable, found := r.scope.lookup(id.Name)
	switch {
	case !found:
		r.warn(diag.CodeUndeclared, id.Span, "undefined identifier '%s'", id.Name)
	case !mutable:
		r.warn(diag.CodeConstAssign, e.Span, "cannot assign to constant '%s'", id.Name)
	}
}
