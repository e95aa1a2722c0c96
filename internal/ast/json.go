package ast

import (
	"notjs/internal/span"
)

// NodeToMap converts an AST node to a tagged map suitable for JSON or YAML
// output. Every node has a "kind" and a "span" field.
func NodeToMap(node Node) map[string]any {
	return mapper{spans: true}.node(node)
}

// Shape is NodeToMap without spans. Two trees with equal shapes are
// structurally identical regardless of where they came from in the source.
func Shape(node Node) map[string]any {
	return mapper{}.node(node)
}

type mapper struct {
	spans bool
}

func (mp mapper) node(node Node) map[string]any {
	if node == nil {
		return nil
	}

	switch n := node.(type) {
	case *Program:
		return mp.m("Program", n.Span, "stmts", stmtSlice(mp, n.Stmts))

	// ---- Expressions ----
	case *Ident:
		return mp.m("Ident", n.Span, "name", n.Name)
	case *NumberLit:
		return mp.m("NumberLit", n.Span, "value", n.Value)
	case *StringLit:
		return mp.m("StringLit", n.Span, "value", n.Value)
	case *BoolLit:
		return mp.m("BoolLit", n.Span, "value", n.Value)
	case *NullLit:
		return mp.m("NullLit", n.Span)
	case *ArrayLit:
		return mp.m("ArrayLit", n.Span, "elements", exprSlice(mp, n.Elements))
	case *AssignExpr:
		return mp.m("AssignExpr", n.Span,
			"op", n.Op.String(),
			"target", mp.node(n.Target),
			"value", mp.node(n.Value))
	case *CondExpr:
		return mp.m("CondExpr", n.Span,
			"cond", mp.node(n.Cond),
			"then", mp.node(n.Then),
			"else", mp.node(n.Else))
	case *BinaryExpr:
		return mp.m("BinaryExpr", n.Span,
			"op", n.Op.String(),
			"left", mp.node(n.Left),
			"right", mp.node(n.Right))
	case *UnaryExpr:
		return mp.m("UnaryExpr", n.Span, "op", n.Op.String(), "operand", mp.node(n.Operand))
	case *IndexExpr:
		return mp.m("IndexExpr", n.Span,
			"target", mp.node(n.Target),
			"index", mp.node(n.Index))
	case *MemberExpr:
		return mp.m("MemberExpr", n.Span,
			"target", mp.node(n.Target),
			"name", n.Name)
	case *CallExpr:
		return mp.m("CallExpr", n.Span,
			"callee", mp.node(n.Callee),
			"args", exprSlice(mp, n.Args))
	case *GroupExpr:
		return mp.m("GroupExpr", n.Span, "inner", mp.node(n.Inner))

	// ---- Statements ----
	case *BlockStmt:
		return mp.m("BlockStmt", n.Span, "stmts", stmtSlice(mp, n.Stmts))
	case *VarDeclStmt:
		result := mp.m("VarDeclStmt", n.Span, "decl", n.Kind.String(), "name", n.Name)
		if n.Init != nil {
			result["init"] = mp.node(n.Init)
		}
		return result
	case *ExprStmt:
		return mp.m("ExprStmt", n.Span, "expr", mp.node(n.Expr))
	case *PrintStmt:
		return mp.m("PrintStmt", n.Span, "expr", mp.node(n.Expr))
	case *IfStmt:
		result := mp.m("IfStmt", n.Span,
			"cond", mp.node(n.Cond),
			"then", mp.node(n.Then))
		if n.Else != nil {
			result["else"] = mp.node(n.Else)
		}
		return result
	case *WhileStmt:
		return mp.m("WhileStmt", n.Span,
			"cond", mp.node(n.Cond),
			"body", mp.node(n.Body))
	case *ReturnStmt:
		result := mp.m("ReturnStmt", n.Span)
		if n.Value != nil {
			result["value"] = mp.node(n.Value)
		}
		return result

	default:
		return map[string]any{"kind": "Unknown"}
	}
}

// ---- helpers ----

// m builds a map with kind, span, and extra key-value pairs.
func (mp mapper) m(kind string, s span.Span, kvs ...any) map[string]any {
	result := map[string]any{"kind": kind}
	if mp.spans {
		result["span"] = spanToMap(s)
	}
	for i := 0; i+1 < len(kvs); i += 2 {
		result[kvs[i].(string)] = kvs[i+1]
	}
	return result
}

func spanToMap(s span.Span) map[string]any {
	return map[string]any{
		"start": map[string]any{
			"offset": s.Start.Offset,
			"line":   s.Start.Line,
			"column": s.Start.Column,
		},
		"end": map[string]any{
			"offset": s.End.Offset,
			"line":   s.End.Line,
			"column": s.End.Column,
		},
	}
}

func stmtSlice(mp mapper, stmts []Stmt) []any {
	result := make([]any, len(stmts))
	for i, s := range stmts {
		result[i] = mp.node(s)
	}
	return result
}

func exprSlice(mp mapper, exprs []Expr) []any {
	result := make([]any, len(exprs))
	for i, e := range exprs {
		result[i] = mp.node(e)
	}
	return result
}
