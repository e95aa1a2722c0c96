package runtime

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"notjs/internal/ast"
	"notjs/internal/format"
	"notjs/internal/log"
	"notjs/internal/span"
	"unicode/utf8"
)

// ============================================================
// Options
// ============================================================

// PrintFunc receives the value of every print statement.
type PrintFunc func(Value) error

// Option configures an Interpreter.
type Option func(*options)

type options struct {
	print  PrintFunc
	budget int
	logger log.Logger
}

// WithPrint sets the sink for print statements. By default printed values
// are discarded.
func WithPrint(fn PrintFunc) Option {
	return func(o *options) {
		if fn != nil {
			o.print = fn
		}
	}
}

// WithStepBudget limits a single run to n steps, where a step is one
// executed statement or one loop iteration. n <= 0 means no limit.
func WithStepBudget(n int) Option {
	return func(o *options) { o.budget = n }
}

// WithLogger sets the logger used for run summaries.
func WithLogger(l log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// ============================================================
// Control flow signals
// ============================================================

type signal int

const (
	sigNone signal = iota
	sigReturn
)

type execResult struct {
	signal signal
	value  Value
}

var resultNone = execResult{signal: sigNone}

// Completion describes how a run ended. Value is the returned value when
// Returned is set, otherwise the value of the last top-level expression
// statement (Null if there was none).
type Completion struct {
	Returned bool
	Value    Value
	Steps    int
}

// ============================================================
// Interpreter
// ============================================================

// Interpreter evaluates programs against one Environment. Bindings made at
// the top level of a program stay in the root frame, so consecutive Run
// calls see each other's declarations. An Interpreter must not be used from
// more than one goroutine at a time.
type Interpreter struct {
	env  *Environment
	opts options

	done  <-chan struct{}
	ctx   context.Context
	steps int
}

// New creates an Interpreter over env. A nil env gets a fresh, empty one.
func New(env *Environment, opts ...Option) *Interpreter {
	if env == nil {
		env = NewEnvironment()
	}
	o := options{print: func(Value) error { return nil }}
	for _, opt := range opts {
		opt(&o)
	}
	return &Interpreter{env: env, opts: o}
}

// Execute runs prog once against env.
func Execute(ctx context.Context, prog *ast.Program, env *Environment, opts ...Option) (Completion, error) {
	return New(env, opts...).Run(ctx, prog)
}

// Env returns the interpreter's environment.
func (in *Interpreter) Env() *Environment {
	return in.env
}

// Run executes prog in the root frame. The step budget applies per call.
func (in *Interpreter) Run(ctx context.Context, prog *ast.Program) (Completion, error) {
	in.ctx = ctx
	in.done = ctx.Done()
	in.steps = 0

	comp := Completion{Value: Null{}}
	err := in.runTop(prog, &comp)
	comp.Steps = in.steps

	if err != nil {
		in.opts.logger.DebugContext(ctx, "run failed",
			slog.Int("steps", in.steps), slog.Any("error", err))
		return comp, err
	}
	in.opts.logger.DebugContext(ctx, "run finished",
		slog.Int("steps", in.steps),
		slog.Bool("returned", comp.Returned),
		slog.Int("frames", in.env.Frames()))
	return comp, nil
}

func (in *Interpreter) runTop(prog *ast.Program, comp *Completion) error {
	root := in.env.Root()
	for _, stmt := range prog.Stmts {
		if es, ok := stmt.(*ast.ExprStmt); ok {
			if err := in.tick(es.Span); err != nil {
				return err
			}
			v, err := in.evalExpr(es.Expr, root)
			if err != nil {
				return err
			}
			comp.Value = v
			continue
		}

		result, err := in.execStmt(stmt, root)
		if err != nil {
			return err
		}
		if result.signal == sigReturn {
			comp.Returned = true
			comp.Value = result.value
			return nil
		}
	}
	return nil
}

// tick accounts for one step and checks the budget and the context.
func (in *Interpreter) tick(s span.Span) error {
	in.steps++
	if in.opts.budget > 0 && in.steps > in.opts.budget {
		return runtimeErr(KindBudgetExceeded, s, "step budget of %d exceeded", in.opts.budget)
	}
	if in.done != nil {
		select {
		case <-in.done:
			err := runtimeErr(KindCanceled, s, "execution canceled: %v", in.ctx.Err())
			err.Cause = in.ctx.Err()
			return err
		default:
		}
	}
	return nil
}

// ============================================================
// Statement execution
// ============================================================

func (in *Interpreter) execStmt(stmt ast.Stmt, sc Scope) (execResult, error) {
	if err := in.tick(stmt.GetSpan()); err != nil {
		return resultNone, err
	}

	switch s := stmt.(type) {
	case *ast.ExprStmt:
		_, err := in.evalExpr(s.Expr, sc)
		return resultNone, err

	case *ast.VarDeclStmt:
		return resultNone, in.execVarDecl(s, sc)

	case *ast.PrintStmt:
		return resultNone, in.execPrint(s, sc)

	case *ast.BlockStmt:
		return in.execBlock(s, sc)

	case *ast.IfStmt:
		return in.execIf(s, sc)

	case *ast.WhileStmt:
		return in.execWhile(s, sc)

	case *ast.ReturnStmt:
		var v Value = Null{}
		if s.Value != nil {
			var err error
			if v, err = in.evalExpr(s.Value, sc); err != nil {
				return resultNone, err
			}
		}
		return execResult{signal: sigReturn, value: v}, nil
	}

	return resultNone, runtimeErr(KindTypeMismatch, stmt.GetSpan(), "unsupported statement %T", stmt)
}

func (in *Interpreter) execVarDecl(s *ast.VarDeclStmt, sc Scope) error {
	var v Value = Null{}
	if s.Init != nil {
		var err error
		if v, err = in.evalExpr(s.Init, sc); err != nil {
			return err
		}
	}
	if err := in.env.Declare(sc, s.Name, v, s.Kind == ast.DeclLet); err != nil {
		return runtimeErr(KindDuplicateBinding, s.Span, "'%s' is already declared in this scope", s.Name)
	}
	return nil
}

func (in *Interpreter) execPrint(s *ast.PrintStmt, sc Scope) error {
	v, err := in.evalExpr(s.Expr, sc)
	if err != nil {
		return err
	}
	if err := in.opts.print(v); err != nil {
		rerr := runtimeErr(KindNativeFailure, s.Span, "print: %v", err)
		rerr.Cause = err
		return rerr
	}
	return nil
}

func (in *Interpreter) execBlock(block *ast.BlockStmt, parent Scope) (execResult, error) {
	sc := in.env.Push(parent)
	defer in.env.Pop(sc)

	for _, stmt := range block.Stmts {
		result, err := in.execStmt(stmt, sc)
		if err != nil {
			return resultNone, err
		}
		if result.signal != sigNone {
			return result, nil
		}
	}
	return resultNone, nil
}

// execBody runs an if branch or loop body in a frame of its own. Blocks
// already open one.
func (in *Interpreter) execBody(body ast.Stmt, parent Scope) (execResult, error) {
	if block, ok := body.(*ast.BlockStmt); ok {
		if err := in.tick(block.Span); err != nil {
			return resultNone, err
		}
		return in.execBlock(block, parent)
	}
	sc := in.env.Push(parent)
	defer in.env.Pop(sc)
	return in.execStmt(body, sc)
}

func (in *Interpreter) execIf(s *ast.IfStmt, sc Scope) (execResult, error) {
	cond, err := in.evalExpr(s.Cond, sc)
	if err != nil {
		return resultNone, err
	}
	if Truthy(cond) {
		return in.execBody(s.Then, sc)
	}
	if s.Else != nil {
		return in.execBody(s.Else, sc)
	}
	return resultNone, nil
}

func (in *Interpreter) execWhile(s *ast.WhileStmt, sc Scope) (execResult, error) {
	for {
		cond, err := in.evalExpr(s.Cond, sc)
		if err != nil {
			return resultNone, err
		}
		if !Truthy(cond) {
			return resultNone, nil
		}
		if err := in.tick(s.Span); err != nil {
			return resultNone, err
		}

		result, err := in.execBody(s.Body, sc)
		if err != nil {
			return resultNone, err
		}
		if result.signal == sigReturn {
			return result, nil
		}
	}
}

// ============================================================
// Expression evaluation
// ============================================================

func (in *Interpreter) evalExpr(expr ast.Expr, sc Scope) (Value, error) {
	switch e := expr.(type) {
	case *ast.Ident:
		v, ok := in.env.Lookup(sc, e.Name)
		if !ok {
			return nil, runtimeErr(KindUndefinedIdentifier, e.Span, "undefined identifier '%s'", e.Name)
		}
		return v, nil

	case *ast.NumberLit:
		return Number(e.Value), nil

	case *ast.StringLit:
		return String(e.Value), nil

	case *ast.BoolLit:
		return Bool(e.Value), nil

	case *ast.NullLit:
		return Null{}, nil

	case *ast.ArrayLit:
		elems := make([]Value, len(e.Elements))
		for i, el := range e.Elements {
			v, err := in.evalExpr(el, sc)
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return NewArray(elems...), nil

	case *ast.GroupExpr:
		return in.evalExpr(e.Inner, sc)

	case *ast.AssignExpr:
		return in.evalAssign(e, sc)

	case *ast.CondExpr:
		cond, err := in.evalExpr(e.Cond, sc)
		if err != nil {
			return nil, err
		}
		if Truthy(cond) {
			return in.evalExpr(e.Then, sc)
		}
		return in.evalExpr(e.Else, sc)

	case *ast.BinaryExpr:
		return in.evalBinary(e, sc)

	case *ast.UnaryExpr:
		return in.evalUnary(e, sc)

	case *ast.IndexExpr:
		target, err := in.evalExpr(e.Target, sc)
		if err != nil {
			return nil, err
		}
		idx, err := in.evalExpr(e.Index, sc)
		if err != nil {
			return nil, err
		}
		return indexValue(target, idx, e.Span)

	case *ast.MemberExpr:
		target, err := in.evalExpr(e.Target, sc)
		if err != nil {
			return nil, err
		}
		return memberValue(target, e.Name, e.Span)

	case *ast.CallExpr:
		return in.evalCall(e, sc)
	}

	return nil, runtimeErr(KindTypeMismatch, expr.GetSpan(), "unsupported expression %T", expr)
}

func (in *Interpreter) evalUnary(e *ast.UnaryExpr, sc Scope) (Value, error) {
	operand, err := in.evalExpr(e.Operand, sc)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case ast.OpNot:
		return Bool(!Truthy(operand)), nil
	case ast.OpNeg:
		if n, ok := operand.(Number); ok {
			return -n, nil
		}
		return nil, runtimeErr(KindTypeMismatch, e.Span, "cannot negate %s", operand.TypeName())
	}
	return nil, runtimeErr(KindTypeMismatch, e.Span, "unknown unary operator %s", e.Op)
}

func (in *Interpreter) evalBinary(e *ast.BinaryExpr, sc Scope) (Value, error) {
	left, err := in.evalExpr(e.Left, sc)
	if err != nil {
		return nil, err
	}

	// | and & yield whichever operand decided the result.
	if e.Op.IsLogical() {
		if Truthy(left) == (e.Op == ast.OpOr) {
			return left, nil
		}
		return in.evalExpr(e.Right, sc)
	}

	right, err := in.evalExpr(e.Right, sc)
	if err != nil {
		return nil, err
	}
	return binaryOp(e.Op, left, right, e.Span)
}

// binaryOp applies a non-short-circuit operator to evaluated operands.
func binaryOp(op ast.BinaryOp, left, right Value, s span.Span) (Value, error) {
	switch op {
	case ast.OpEq:
		return Bool(Equal(left, right)), nil
	case ast.OpNeq:
		return Bool(!Equal(left, right)), nil
	case ast.OpAdd:
		_, ls := left.(String)
		_, rs := right.(String)
		if ls || rs {
			return String(left.String() + right.String()), nil
		}
	}

	ln, lok := left.(Number)
	rn, rok := right.(Number)
	if lok && rok {
		switch op {
		case ast.OpAdd:
			return ln + rn, nil
		case ast.OpSub:
			return ln - rn, nil
		case ast.OpMul:
			return ln * rn, nil
		case ast.OpDiv:
			if rn == 0 {
				return nil, runtimeErr(KindDivisionByZero, s, "division by zero")
			}
			return ln / rn, nil
		case ast.OpLt:
			return Bool(ln < rn), nil
		case ast.OpLte:
			return Bool(ln <= rn), nil
		case ast.OpGt:
			return Bool(ln > rn), nil
		case ast.OpGte:
			return Bool(ln >= rn), nil
		}
	}

	lstr, lok := left.(String)
	rstr, rok := right.(String)
	if lok && rok {
		switch op {
		case ast.OpLt:
			return Bool(lstr < rstr), nil
		case ast.OpLte:
			return Bool(lstr <= rstr), nil
		case ast.OpGt:
			return Bool(lstr > rstr), nil
		case ast.OpGte:
			return Bool(lstr >= rstr), nil
		}
	}

	return nil, runtimeErr(KindTypeMismatch, s, "cannot apply '%s' to %s and %s",
		op, left.TypeName(), right.TypeName())
}

// ---- index and member access ----

// toIndex validates an index operand against a sequence of length n.
func toIndex(idx Value, n int, s span.Span) (int, error) {
	num, ok := idx.(Number)
	f := float64(num)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, runtimeErr(KindTypeMismatch, s, "index must be an integer, got %s", describe(idx))
	}
	if f < 0 || f >= float64(n) {
		return 0, runtimeErr(KindIndexOutOfRange, s, "index %s out of range for length %d", num, n)
	}
	return int(f), nil
}

func indexValue(target, idx Value, s span.Span) (Value, error) {
	switch t := target.(type) {
	case *Array:
		i, err := toIndex(idx, len(t.Elements), s)
		if err != nil {
			return nil, err
		}
		return t.Elements[i], nil
	case String:
		runes := []rune(string(t))
		i, err := toIndex(idx, len(runes), s)
		if err != nil {
			return nil, err
		}
		return String(runes[i]), nil
	}
	return nil, runtimeErr(KindTypeMismatch, s, "cannot index %s", target.TypeName())
}

func memberValue(target Value, name string, s span.Span) (Value, error) {
	switch t := target.(type) {
	case *Array:
		switch name {
		case "length":
			return Number(len(t.Elements)), nil
		case "push":
			return boundPush(t), nil
		case "pop":
			return boundPop(t), nil
		}
		return nil, runtimeErr(KindUndefinedIdentifier, s, "array has no property '%s'", name)
	case String:
		if name == "length" {
			return Number(utf8.RuneCountInString(string(t))), nil
		}
		return nil, runtimeErr(KindUndefinedIdentifier, s, "string has no property '%s'", name)
	case *Record:
		if v, ok := t.Get(name); ok {
			return v, nil
		}
		return nil, runtimeErr(KindUndefinedIdentifier, s, "%s has no field '%s'", t.Name, name)
	}
	return nil, runtimeErr(KindTypeMismatch, s, "cannot read property '%s' of %s", name, target.TypeName())
}

func boundPush(a *Array) *Native {
	return NewNative("push", -1, func(args []Value) (Value, error) {
		a.Elements = append(a.Elements, args...)
		return Number(len(a.Elements)), nil
	})
}

func boundPop(a *Array) *Native {
	return NewNative("pop", 0, func([]Value) (Value, error) {
		return popArray(a), nil
	})
}

func popArray(a *Array) Value {
	n := len(a.Elements)
	if n == 0 {
		return Null{}
	}
	v := a.Elements[n-1]
	a.Elements[n-1] = nil
	a.Elements = a.Elements[:n-1]
	return v
}

// ---- calls ----

func (in *Interpreter) evalCall(e *ast.CallExpr, sc Scope) (Value, error) {
	callee, err := in.evalExpr(e.Callee, sc)
	if err != nil {
		return nil, err
	}

	args := make([]Value, len(e.Args))
	for i, argExpr := range e.Args {
		v, err := in.evalExpr(argExpr, sc)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	fn, ok := callee.(*Native)
	if !ok {
		return nil, runtimeErr(KindNotCallable, e.Span, "%s is not callable", describe(callee))
	}
	return callNative(fn, args, e.Span)
}

func callNative(fn *Native, args []Value, s span.Span) (Value, error) {
	if fn.Arity >= 0 && len(args) != fn.Arity {
		return nil, runtimeErr(KindArityMismatch, s, "%s expects %d argument%s, got %d",
			fn.Name, fn.Arity, plural(fn.Arity), len(args))
	}

	v, err := fn.Fn(args)
	if err != nil {
		// Natives may raise a typed error; it gets the call site's span.
		var rerr *RuntimeError
		if errors.As(err, &rerr) {
			out := *rerr
			if !out.Span.Start.IsValid() {
				out.Span = s
			}
			return nil, &out
		}
		return nil, &RuntimeError{
			Kind:    KindNativeFailure,
			Message: fn.Name + ": " + err.Error(),
			Span:    s,
			Cause:   err,
		}
	}
	if v == nil {
		return Null{}, nil
	}
	return v, nil
}

// ---- assignment ----

func (in *Interpreter) evalAssign(e *ast.AssignExpr, sc Scope) (Value, error) {
	switch target := ast.Unparen(e.Target).(type) {
	case *ast.Ident:
		return in.assignIdent(e, target, sc)
	case *ast.IndexExpr:
		return in.assignIndex(e, target, sc)
	case *ast.MemberExpr:
		return in.assignMember(e, target, sc)
	}
	return nil, runtimeErr(KindInvalidTarget, e.Target.GetSpan(), "cannot assign to this expression")
}

// combine computes the value stored by a (possibly compound) assignment.
func combine(e *ast.AssignExpr, old, rhs Value) (Value, error) {
	op, compound := e.Op.Binary()
	if !compound {
		return rhs, nil
	}
	return binaryOp(op, old, rhs, e.Span)
}

func (in *Interpreter) assignIdent(e *ast.AssignExpr, id *ast.Ident, sc Scope) (Value, error) {
	rhs, err := in.evalExpr(e.Value, sc)
	if err != nil {
		return nil, err
	}

	// Compound operators read the binding after the right-hand side ran.
	var old Value
	if _, compound := e.Op.Binary(); compound {
		cur, ok := in.env.Lookup(sc, id.Name)
		if !ok {
			return nil, runtimeErr(KindUndefinedIdentifier, id.Span, "undefined identifier '%s'", id.Name)
		}
		old = cur
	}
	v, err := combine(e, old, rhs)
	if err != nil {
		return nil, err
	}

	switch err := in.env.Assign(sc, id.Name, v); {
	case errors.Is(err, errNotDeclared):
		return nil, runtimeErr(KindUndefinedIdentifier, id.Span, "undefined identifier '%s'", id.Name)
	case errors.Is(err, errReadOnly):
		return nil, runtimeErr(KindImmutableAssignment, e.Span, "cannot assign to constant '%s'", id.Name)
	}
	return v, nil
}

func (in *Interpreter) assignIndex(e *ast.AssignExpr, ix *ast.IndexExpr, sc Scope) (Value, error) {
	target, err := in.evalExpr(ix.Target, sc)
	if err != nil {
		return nil, err
	}
	idx, err := in.evalExpr(ix.Index, sc)
	if err != nil {
		return nil, err
	}

	arr, ok := target.(*Array)
	if !ok {
		if _, isStr := target.(String); isStr {
			return nil, runtimeErr(KindTypeMismatch, ix.Span, "strings are immutable")
		}
		return nil, runtimeErr(KindTypeMismatch, ix.Span, "cannot index %s", target.TypeName())
	}
	i, err := toIndex(idx, len(arr.Elements), ix.Index.GetSpan())
	if err != nil {
		return nil, err
	}

	rhs, err := in.evalExpr(e.Value, sc)
	if err != nil {
		return nil, err
	}
	// The right-hand side may have resized the array.
	if i >= len(arr.Elements) {
		return nil, runtimeErr(KindIndexOutOfRange, ix.Index.GetSpan(), "index %d out of range for length %d", i, len(arr.Elements))
	}
	v, err := combine(e, arr.Elements[i], rhs)
	if err != nil {
		return nil, err
	}
	arr.Elements[i] = v
	return v, nil
}

func (in *Interpreter) assignMember(e *ast.AssignExpr, m *ast.MemberExpr, sc Scope) (Value, error) {
	target, err := in.evalExpr(m.Target, sc)
	if err != nil {
		return nil, err
	}

	rec, ok := target.(*Record)
	if !ok {
		switch target.(type) {
		case *Array, String:
			if m.Name == "length" {
				return nil, runtimeErr(KindTypeMismatch, m.Span, "length of %s is read-only", target.TypeName())
			}
		}
		return nil, runtimeErr(KindTypeMismatch, m.Span, "cannot set property '%s' on %s", m.Name, target.TypeName())
	}
	if rec.Frozen {
		return nil, runtimeErr(KindImmutableAssignment, m.Span, "%s is read-only", rec.Name)
	}

	rhs, err := in.evalExpr(e.Value, sc)
	if err != nil {
		return nil, err
	}

	var old Value
	if _, compound := e.Op.Binary(); compound {
		cur, ok := rec.Get(m.Name)
		if !ok {
			return nil, runtimeErr(KindUndefinedIdentifier, m.Span, "%s has no field '%s'", rec.Name, m.Name)
		}
		old = cur
	}
	v, err := combine(e, old, rhs)
	if err != nil {
		return nil, err
	}
	rec.Set(m.Name, v)
	return v, nil
}

// ---- helpers ----

// describe renders a value for an error message: strings quoted, others by
// type and text.
func describe(v Value) string {
	switch t := v.(type) {
	case String:
		return "string " + format.Quote(string(t))
	case *Array:
		return "array"
	case nil:
		return "nothing"
	}
	return v.TypeName() + " " + v.String()
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
