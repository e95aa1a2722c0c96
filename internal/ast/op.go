package ast

import (
	"fmt"
	"notjs/internal/token"
)

// Binding strength of the binary levels, lowest first. Assignment and the
// conditional sit below PrecOr and are parsed by dedicated functions.
const (
	PrecLowest = iota
	PrecAssign
	PrecCond
	PrecOr
	PrecAnd
	PrecEquality
	PrecRelational
	PrecAdditive
	PrecMultiplicative
	PrecUnary
	PrecPostfix
)

// BinaryOp is one of the language's binary operators. The zero value is
// invalid so that an unset operator cannot pass for a real one.
type BinaryOp int

const (
	OpOr BinaryOp = iota + 1
	OpAnd
	OpEq
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
	OpAdd
	OpSub
	OpMul
	OpDiv
)

var binaryOps = map[token.Kind]BinaryOp{
	token.PIPE:  OpOr,
	token.AMP:   OpAnd,
	token.EQ:    OpEq,
	token.NEQ:   OpNeq,
	token.LT:    OpLt,
	token.LTE:   OpLte,
	token.GT:    OpGt,
	token.GTE:   OpGte,
	token.PLUS:  OpAdd,
	token.MINUS: OpSub,
	token.STAR:  OpMul,
	token.SLASH: OpDiv,
}

var binarySymbols = [...]string{
	OpOr:  "|",
	OpAnd: "&",
	OpEq:  "==",
	OpNeq: "!=",
	OpLt:  "<",
	OpLte: "<=",
	OpGt:  ">",
	OpGte: ">=",
	OpAdd: "+",
	OpSub: "-",
	OpMul: "*",
	OpDiv: "/",
}

// BinaryOpFor maps an operator token to its BinaryOp.
func BinaryOpFor(k token.Kind) (BinaryOp, bool) {
	op, ok := binaryOps[k]
	return op, ok
}

func (op BinaryOp) String() string {
	if op > 0 && int(op) < len(binarySymbols) {
		return binarySymbols[op]
	}
	return fmt.Sprintf("BinaryOp(%d)", int(op))
}

// Precedence returns the binding strength of op.
func (op BinaryOp) Precedence() int {
	switch op {
	case OpOr:
		return PrecOr
	case OpAnd:
		return PrecAnd
	case OpEq, OpNeq:
		return PrecEquality
	case OpLt, OpLte, OpGt, OpGte:
		return PrecRelational
	case OpAdd, OpSub:
		return PrecAdditive
	case OpMul, OpDiv:
		return PrecMultiplicative
	}
	return PrecLowest
}

// IsLogical reports whether op short-circuits.
func (op BinaryOp) IsLogical() bool {
	return op == OpOr || op == OpAnd
}

// UnaryOp is - or !.
type UnaryOp int

const (
	OpNeg UnaryOp = iota + 1
	OpNot
)

// UnaryOpFor maps an operator token to its UnaryOp.
func UnaryOpFor(k token.Kind) (UnaryOp, bool) {
	switch k {
	case token.MINUS:
		return OpNeg, true
	case token.BANG:
		return OpNot, true
	}
	return 0, false
}

func (op UnaryOp) String() string {
	switch op {
	case OpNeg:
		return "-"
	case OpNot:
		return "!"
	}
	return fmt.Sprintf("UnaryOp(%d)", int(op))
}

// AssignOp is = or one of the compound assignment operators.
type AssignOp int

const (
	AssignSet AssignOp = iota + 1
	AssignAdd
	AssignSub
	AssignMul
	AssignDiv
)

// AssignOpFor maps an assignment token to its AssignOp.
func AssignOpFor(k token.Kind) (AssignOp, bool) {
	switch k {
	case token.ASSIGN:
		return AssignSet, true
	case token.PLUS_ASSIGN:
		return AssignAdd, true
	case token.MINUS_ASSIGN:
		return AssignSub, true
	case token.STAR_ASSIGN:
		return AssignMul, true
	case token.SLASH_ASSIGN:
		return AssignDiv, true
	}
	return 0, false
}

func (op AssignOp) String() string {
	switch op {
	case AssignSet:
		return "="
	case AssignAdd:
		return "+="
	case AssignSub:
		return "-="
	case AssignMul:
		return "*="
	case AssignDiv:
		return "/="
	}
	return fmt.Sprintf("AssignOp(%d)", int(op))
}

// Binary returns the arithmetic operator a compound assignment applies.
// It reports false for plain =.
func (op AssignOp) Binary() (BinaryOp, bool) {
	switch op {
	case AssignAdd:
		return OpAdd, true
	case AssignSub:
		return OpSub, true
	case AssignMul:
		return OpMul, true
	case AssignDiv:
		return OpDiv, true
	}
	return 0, false
}
