// Package ast defines the syntax tree produced by the parser.
//
// Nodes are immutable once the parser returns them; the evaluator and the
// printer only read them, so one Program may be executed many times.
package ast

import (
	"notjs/internal/span"
)

// ============================================================
// Node interfaces
// ============================================================

// Node is the interface implemented by all AST nodes.
type Node interface {
	nodeNode()
	GetSpan() span.Span
}

// Expr is the interface for expression nodes.
type Expr interface {
	Node
	exprNode()
}

// Stmt is the interface for statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

// ============================================================
// Base types (embedded to provide common fields)
// ============================================================

// NodeBase provides the common Span field for all AST nodes.
type NodeBase struct {
	Span span.Span
}

func (n NodeBase) nodeNode()          {}
func (n NodeBase) GetSpan() span.Span { return n.Span }

// ExprBase is embedded by all expression nodes.
type ExprBase struct{ NodeBase }

func (ExprBase) exprNode() {}

// StmtBase is embedded by all statement nodes.
type StmtBase struct{ NodeBase }

func (StmtBase) stmtNode() {}

// Program is the root of a parsed source.
type Program struct {
	NodeBase
	Stmts []Stmt
}

// ============================================================
// Expressions
// ============================================================

// Ident is a reference to a binding.
type Ident struct {
	ExprBase
	Name string
}

// NumberLit is a numeric literal. Raw keeps the source spelling.
type NumberLit struct {
	ExprBase
	Value float64
	Raw   string
}

// StringLit is a string literal holding the decoded value.
type StringLit struct {
	ExprBase
	Value string
}

// BoolLit is true or false.
type BoolLit struct {
	ExprBase
	Value bool
}

// NullLit is null.
type NullLit struct {
	ExprBase
}

// ArrayLit is [a, b, ...]. Element order is evaluation order.
type ArrayLit struct {
	ExprBase
	Elements []Expr
}

// AssignExpr is target op value. Target is any expression; only Ident,
// IndexExpr and MemberExpr are assignable at run time.
type AssignExpr struct {
	ExprBase
	Op     AssignOp
	Target Expr
	Value  Expr
}

// CondExpr is cond ? then : else.
type CondExpr struct {
	ExprBase
	Cond Expr
	Then Expr
	Else Expr
}

// BinaryExpr covers the logical, comparison and arithmetic operators.
type BinaryExpr struct {
	ExprBase
	Op    BinaryOp
	Left  Expr
	Right Expr
}

// UnaryExpr is -x or !x.
type UnaryExpr struct {
	ExprBase
	Op      UnaryOp
	Operand Expr
}

// IndexExpr is target[index].
type IndexExpr struct {
	ExprBase
	Target Expr
	Index  Expr
}

// MemberExpr is target.name.
type MemberExpr struct {
	ExprBase
	Target Expr
	Name   string
}

// CallExpr is callee(args...).
type CallExpr struct {
	ExprBase
	Callee Expr
	Args   []Expr
}

// GroupExpr is a parenthesized expression. It has no effect on evaluation
// but is kept so the printer reproduces the source grouping.
type GroupExpr struct {
	ExprBase
	Inner Expr
}

// ============================================================
// Statements
// ============================================================

// DeclKind is the keyword that introduced a declaration.
type DeclKind int

const (
	DeclLet DeclKind = iota
	DeclConst
)

func (k DeclKind) String() string {
	if k == DeclConst {
		return "const"
	}
	return "let"
}

// BlockStmt is { stmts }.
type BlockStmt struct {
	StmtBase
	Stmts []Stmt
}

// VarDeclStmt is let/const name [= init].
type VarDeclStmt struct {
	StmtBase
	Kind DeclKind
	Name string
	Init Expr // nil when absent
}

// ExprStmt is an expression evaluated for its side effects.
type ExprStmt struct {
	StmtBase
	Expr Expr
}

// PrintStmt is print expr.
type PrintStmt struct {
	StmtBase
	Expr Expr
}

// IfStmt is if (cond) then [else else].
type IfStmt struct {
	StmtBase
	Cond Expr
	Then Stmt
	Else Stmt // nil when absent
}

// WhileStmt is while (cond) body.
type WhileStmt struct {
	StmtBase
	Cond Expr
	Body Stmt
}

// ReturnStmt is return [value].
type ReturnStmt struct {
	StmtBase
	Value Expr // nil when absent
}

// Unparen strips any number of enclosing GroupExpr nodes.
func Unparen(e Expr) Expr {
	for {
		g, ok := e.(*GroupExpr)
		if !ok {
			return e
		}
		e = g.Inner
	}
}
