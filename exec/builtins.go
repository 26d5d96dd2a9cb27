package exec

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/dop251/goja"

	"github.com/quiverdb/quiver/algebra"
	"github.com/quiverdb/quiver/quad"
)

// errUnbound is returned by evalExpr when an expression has no value for a
// binding (SPARQL's "type error" semantics: the enclosing FILTER/BIND
// treats the mapping as not satisfying/unbound rather than propagating a
// Go error up through the executor).
var errUnbound = fmt.Errorf("exec: expression unbound")

// FuncRegistry resolves algebra.Func nodes with Name == algebra.UserFunc
// (an IRI not in the builtin catalogue) to a user-supplied implementation,
// compiled once from source via a goja runtime, mirroring the teacher's
// use of goja to run Gizmo query scripts.
type FuncRegistry struct {
	vms   map[string]*goja.Program
	extra map[string]func(args ...interface{}) (interface{}, error)
}

// NewFuncRegistry returns an empty registry; Register adds user functions.
func NewFuncRegistry() *FuncRegistry {
	return &FuncRegistry{
		vms:   make(map[string]*goja.Program),
		extra: make(map[string]func(args ...interface{}) (interface{}, error)),
	}
}

// RegisterScript compiles a JavaScript function body (referencing `args`,
// an array of the call's native argument values, and returning the
// result) under iri, so Func{Name: UserFunc, IRI: iri} calls can invoke
// it.
func (r *FuncRegistry) RegisterScript(iri quad.Value, src string) error {
	prog, err := goja.Compile(quad.StringOf(iri), src, false)
	if err != nil {
		return err
	}
	r.vms[quad.StringOf(iri)] = prog
	return nil
}

func (r *FuncRegistry) call(iri quad.Value, args []interface{}) (interface{}, error) {
	key := quad.StringOf(iri)
	if fn, ok := r.extra[key]; ok {
		return fn(args...)
	}
	prog, ok := r.vms[key]
	if !ok {
		return nil, fmt.Errorf("exec: unregistered user function %s", key)
	}
	vm := goja.New()
	vm.Set("args", args)
	v, err := vm.RunProgram(prog)
	if err != nil {
		return nil, err
	}
	return v.Export(), nil
}

// evalExpr computes expr's value under binding. It never blocks: Exists is
// the only case that recurses into the executor, and BGP/Join subtrees it
// drives are themselves bounded by ctx.
func (e *Engine) evalExpr(ctx context.Context, binding Binding, expr algebra.Expr) (quad.Value, error) {
	switch ex := expr.(type) {
	case algebra.Const:
		return ex.Value, nil
	case algebra.VarRef:
		v, ok := binding[ex.Var]
		if !ok {
			return nil, errUnbound
		}
		return v, nil
	case algebra.Exists:
		ok, err := e.evalExists(ctx, binding, ex.Pattern)
		if err != nil {
			return nil, err
		}
		if ex.Negate {
			ok = !ok
		}
		return quad.Bool(ok), nil
	case algebra.Func:
		return e.evalFunc(ctx, binding, ex)
	default:
		return nil, fmt.Errorf("exec: unknown expr %T", expr)
	}
}

// evalExists runs pattern against the current binding as extra constant
// constraints (each bound variable in binding becomes a ground term
// wherever pattern references it) and reports whether at least one
// solution exists.
func (e *Engine) evalExists(ctx context.Context, binding Binding, pattern algebra.Op) (bool, error) {
	it, err := e.Eval(ctx, bindConstants(pattern, binding))
	if err != nil {
		return false, err
	}
	defer it.Close()
	found := it.Next(ctx)
	return found, it.Err()
}

// bindConstants applies binding to op without rewriting op's variables:
// an empty binding returns op unchanged, otherwise op is wrapped in a Join
// against a single-row Table carrying binding, so the normal Join
// machinery applies the constraint.
// BindConstants is bindConstants exported for callers outside the package
// (reason's RETE network seeds a rule body's BGP with a single-pattern
// match the same way evalExists seeds a FILTER EXISTS pattern).
func BindConstants(op algebra.Op, binding Binding) algebra.Op { return bindConstants(op, binding) }

func bindConstants(op algebra.Op, binding Binding) algebra.Op {
	if len(binding) == 0 {
		return op
	}
	vars := make([]quad.Variable, 0, len(binding))
	row := make([]quad.Value, 0, len(binding))
	for v, val := range binding {
		vars = append(vars, v)
		row = append(row, val)
	}
	return algebra.Join{
		L: algebra.Table{Vars: vars, Rows: [][]quad.Value{row}},
		R: op,
	}
}

func (e *Engine) evalArgs(ctx context.Context, binding Binding, args []algebra.Expr) ([]quad.Value, error) {
	out := make([]quad.Value, len(args))
	for i, a := range args {
		v, err := e.evalExpr(ctx, binding, a)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (e *Engine) evalFunc(ctx context.Context, binding Binding, fn algebra.Func) (quad.Value, error) {
	if fn.Name == algebra.UserFunc {
		args, err := e.evalArgs(ctx, binding, fn.Args)
		if err != nil {
			return nil, err
		}
		native := make([]interface{}, len(args))
		for i, a := range args {
			native[i] = quad.NativeOf(a)
		}
		out, err := e.Funcs.call(fn.IRI, native)
		if err != nil {
			return nil, err
		}
		v, ok := quad.AsValue(out)
		if !ok {
			return nil, fmt.Errorf("exec: user function %s returned unsupported type %T", quad.StringOf(fn.IRI), out)
		}
		return v, nil
	}

	// IN/NOT IN/logical AND/OR/IF/COALESCE short-circuit and must not
	// eagerly evaluate every argument (an unbound argument may be
	// irrelevant to the result), so they are handled before the generic
	// argument-evaluation pass below.
	switch fn.Name {
	case algebra.FnLogicalAnd:
		return e.evalLogicalAnd(ctx, binding, fn.Args)
	case algebra.FnLogicalOr:
		return e.evalLogicalOr(ctx, binding, fn.Args)
	case algebra.FnIf:
		return e.evalIf(ctx, binding, fn.Args)
	case algebra.FnCoalesce:
		return e.evalCoalesce(ctx, binding, fn.Args)
	case algebra.FnBound:
		_, ok := binding[fn.Args[0].(algebra.VarRef).Var]
		return quad.Bool(ok), nil
	case algebra.FnIn, algebra.FnNotIn:
		return e.evalIn(ctx, binding, fn)
	case algebra.FnNow:
		return quad.Time(e.Now()), nil
	}

	args, err := e.evalArgs(ctx, binding, fn.Args)
	if err != nil {
		return nil, err
	}
	return evalBuiltin(fn.Name, args)
}

func (e *Engine) evalLogicalAnd(ctx context.Context, b Binding, args []algebra.Expr) (quad.Value, error) {
	for _, a := range args {
		v, err := e.evalExpr(ctx, b, a)
		if err != nil {
			return nil, err
		}
		if !effectiveBool(v) {
			return quad.Bool(false), nil
		}
	}
	return quad.Bool(true), nil
}

func (e *Engine) evalLogicalOr(ctx context.Context, b Binding, args []algebra.Expr) (quad.Value, error) {
	for _, a := range args {
		v, err := e.evalExpr(ctx, b, a)
		if err != nil {
			continue
		}
		if effectiveBool(v) {
			return quad.Bool(true), nil
		}
	}
	return quad.Bool(false), nil
}

func (e *Engine) evalIf(ctx context.Context, b Binding, args []algebra.Expr) (quad.Value, error) {
	cond, err := e.evalExpr(ctx, b, args[0])
	if err != nil {
		return nil, err
	}
	if effectiveBool(cond) {
		return e.evalExpr(ctx, b, args[1])
	}
	return e.evalExpr(ctx, b, args[2])
}

func (e *Engine) evalCoalesce(ctx context.Context, b Binding, args []algebra.Expr) (quad.Value, error) {
	for _, a := range args {
		v, err := e.evalExpr(ctx, b, a)
		if err == nil {
			return v, nil
		}
	}
	return nil, errUnbound
}

func (e *Engine) evalIn(ctx context.Context, b Binding, fn algebra.Func) (quad.Value, error) {
	needle, err := e.evalExpr(ctx, b, fn.Args[0])
	if err != nil {
		return nil, err
	}
	found := false
	for _, a := range fn.Args[1:] {
		v, err := e.evalExpr(ctx, b, a)
		if err != nil {
			continue
		}
		if valuesEqual(needle, v) {
			found = true
			break
		}
	}
	if fn.Name == algebra.FnNotIn {
		found = !found
	}
	return quad.Bool(found), nil
}

// effectiveBool implements SPARQL's EBV coercion for the Const/VarRef
// results evalExpr produces (Bool, numeric, and non-empty String/IRI are
// the cases that arise from builtin/function results).
func effectiveBool(v quad.Value) bool {
	switch t := v.(type) {
	case quad.Bool:
		return bool(t)
	case quad.Int:
		return t != 0
	case quad.Float:
		return t != 0
	case quad.String:
		return t != ""
	case quad.IRI, quad.BNode:
		return true
	default:
		return v != nil
	}
}

func asFloat(v quad.Value) (float64, bool) {
	switch t := v.(type) {
	case quad.Int:
		return float64(t), true
	case quad.Float:
		return float64(t), true
	}
	return 0, false
}

func asString(v quad.Value) string {
	switch t := v.(type) {
	case quad.String:
		return string(t)
	case quad.IRI:
		return string(t)
	case quad.LangString:
		return string(t.Value)
	case quad.TypedString:
		return string(t.Value)
	default:
		return quad.StringOf(v)
	}
}

// evalBuiltin dispatches the fixed-arity, eagerly-evaluated builtins:
// string, numeric, date/time, hash, type-test, and comparison functions
// (spec.md §4.4's builtin catalogue).
func evalBuiltin(name algebra.FuncName, a []quad.Value) (quad.Value, error) {
	switch name {
	case algebra.FnLogicalNot:
		return quad.Bool(!effectiveBool(a[0])), nil
	// --- string functions ---
	case algebra.FnStr:
		return quad.String(asString(a[0])), nil
	case algebra.FnLang:
		if ls, ok := a[0].(quad.LangString); ok {
			return quad.String(ls.Lang), nil
		}
		return quad.String(""), nil
	case algebra.FnDatatype:
		if ts, ok := a[0].(quad.TypedString); ok {
			return ts.Type, nil
		}
		return nil, errUnbound
	case algebra.FnStrlen:
		return quad.Int(len([]rune(asString(a[0])))), nil
	case algebra.FnSubstr:
		s := []rune(asString(a[0]))
		start, _ := asFloat(a[1])
		i := int(start) - 1
		if i < 0 {
			i = 0
		}
		if i > len(s) {
			i = len(s)
		}
		end := len(s)
		if len(a) > 2 {
			n, _ := asFloat(a[2])
			end = i + int(n)
			if end > len(s) {
				end = len(s)
			}
		}
		if end < i {
			end = i
		}
		return quad.String(string(s[i:end])), nil
	case algebra.FnUcase:
		return quad.String(strings.ToUpper(asString(a[0]))), nil
	case algebra.FnLcase:
		return quad.String(strings.ToLower(asString(a[0]))), nil
	case algebra.FnStrStarts:
		return quad.Bool(strings.HasPrefix(asString(a[0]), asString(a[1]))), nil
	case algebra.FnStrEnds:
		return quad.Bool(strings.HasSuffix(asString(a[0]), asString(a[1]))), nil
	case algebra.FnContains:
		return quad.Bool(strings.Contains(asString(a[0]), asString(a[1]))), nil
	case algebra.FnStrBefore:
		s, sep := asString(a[0]), asString(a[1])
		if i := strings.Index(s, sep); i >= 0 {
			return quad.String(s[:i]), nil
		}
		return quad.String(""), nil
	case algebra.FnStrAfter:
		s, sep := asString(a[0]), asString(a[1])
		if i := strings.Index(s, sep); i >= 0 {
			return quad.String(s[i+len(sep):]), nil
		}
		return quad.String(""), nil
	case algebra.FnEncodeForURI:
		return quad.String(url.QueryEscape(asString(a[0]))), nil
	case algebra.FnConcat:
		var sb strings.Builder
		for _, v := range a {
			sb.WriteString(asString(v))
		}
		return quad.String(sb.String()), nil
	case algebra.FnReplace:
		return quad.String(strings.ReplaceAll(asString(a[0]), asString(a[1]), asString(a[2]))), nil
	case algebra.FnRegex:
		return evalRegex(a)
	case algebra.FnLangMatches:
		lang, rng := strings.ToLower(asString(a[0])), strings.ToLower(asString(a[1]))
		return quad.Bool(rng == "*" || lang == rng || strings.HasPrefix(lang, rng+"-")), nil

	// --- numeric functions ---
	case algebra.FnAbs:
		f, _ := asFloat(a[0])
		return numericResult(a[0], math.Abs(f)), nil
	case algebra.FnRound:
		f, _ := asFloat(a[0])
		return numericResult(a[0], math.Round(f)), nil
	case algebra.FnCeil:
		f, _ := asFloat(a[0])
		return numericResult(a[0], math.Ceil(f)), nil
	case algebra.FnFloor:
		f, _ := asFloat(a[0])
		return numericResult(a[0], math.Floor(f)), nil
	case algebra.FnRand:
		return quad.Float(pseudoRand()), nil

	// --- date/time functions ---
	// FnNow is handled in evalFunc, which has access to Engine.Now; it
	// never reaches this engine-agnostic dispatcher.
	case algebra.FnYear, algebra.FnMonth, algebra.FnDay, algebra.FnHours, algebra.FnMinutes, algebra.FnSeconds, algebra.FnTimezone, algebra.FnTz:
		return evalDateTimePart(name, a[0])

	// --- hash functions ---
	case algebra.FnMD5:
		sum := md5.Sum([]byte(asString(a[0])))
		return quad.String(hex.EncodeToString(sum[:])), nil
	case algebra.FnSHA1:
		sum := sha1.Sum([]byte(asString(a[0])))
		return quad.String(hex.EncodeToString(sum[:])), nil
	case algebra.FnSHA256:
		sum := sha256.Sum256([]byte(asString(a[0])))
		return quad.String(hex.EncodeToString(sum[:])), nil
	case algebra.FnSHA384:
		sum := sha512.Sum384([]byte(asString(a[0])))
		return quad.String(hex.EncodeToString(sum[:])), nil
	case algebra.FnSHA512:
		sum := sha512.Sum512([]byte(asString(a[0])))
		return quad.String(hex.EncodeToString(sum[:])), nil

	// --- type-test / comparison functions ---
	case algebra.FnIsIRI:
		_, ok := a[0].(quad.IRI)
		return quad.Bool(ok), nil
	case algebra.FnIsBlank:
		_, ok := a[0].(quad.BNode)
		return quad.Bool(ok), nil
	case algebra.FnIsLiteral:
		switch a[0].(type) {
		case quad.String, quad.LangString, quad.TypedString, quad.Int, quad.Float, quad.Bool, quad.Time:
			return quad.Bool(true), nil
		}
		return quad.Bool(false), nil
	case algebra.FnIsNumeric:
		_, ok := asFloat(a[0])
		return quad.Bool(ok), nil
	case algebra.FnSameTerm:
		return quad.Bool(valuesEqual(a[0], a[1])), nil

	// --- constructor functions ---
	case algebra.FnBNode:
		return quad.RandomBlankNode(), nil
	case algebra.FnIRI:
		return quad.IRI(asString(a[0])), nil
	case algebra.FnStrDt:
		return quad.TypedString{Value: quad.String(asString(a[0])), Type: quad.IRI(asString(a[1]))}, nil
	case algebra.FnStrLang:
		return quad.LangString{Value: quad.String(asString(a[0])), Lang: asString(a[1])}, nil

	// --- arithmetic / comparison operators ---
	case algebra.FnUnaryPlus:
		f, _ := asFloat(a[0])
		return numericResult(a[0], f), nil
	case algebra.FnUnaryMinus:
		f, _ := asFloat(a[0])
		return numericResult(a[0], -f), nil
	case algebra.FnAdd, algebra.FnSub, algebra.FnMul, algebra.FnDiv:
		return evalArith(name, a[0], a[1])
	case algebra.FnEq:
		return quad.Bool(compareValues(a[0], a[1]) == 0), nil
	case algebra.FnNeq:
		return quad.Bool(compareValues(a[0], a[1]) != 0), nil
	case algebra.FnLt:
		return quad.Bool(compareValues(a[0], a[1]) < 0), nil
	case algebra.FnLte:
		return quad.Bool(compareValues(a[0], a[1]) <= 0), nil
	case algebra.FnGt:
		return quad.Bool(compareValues(a[0], a[1]) > 0), nil
	case algebra.FnGte:
		return quad.Bool(compareValues(a[0], a[1]) >= 0), nil
	}
	return nil, fmt.Errorf("exec: unimplemented builtin %d", name)
}

// numericResult preserves Int-ness when the input was an Int and the
// computed value has no fractional part, otherwise returns Float, per
// XPath's numeric type promotion rules that SPARQL builtins inherit.
func numericResult(orig quad.Value, f float64) quad.Value {
	if _, ok := orig.(quad.Int); ok && f == math.Trunc(f) {
		return quad.Int(int64(f))
	}
	return quad.Float(f)
}

func evalArith(name algebra.FuncName, l, r quad.Value) (quad.Value, error) {
	lf, lok := asFloat(l)
	rf, rok := asFloat(r)
	if !lok || !rok {
		return nil, errUnbound
	}
	var res float64
	switch name {
	case algebra.FnAdd:
		res = lf + rf
	case algebra.FnSub:
		res = lf - rf
	case algebra.FnMul:
		res = lf * rf
	case algebra.FnDiv:
		if rf == 0 {
			return nil, fmt.Errorf("exec: division by zero")
		}
		res = lf / rf
	}
	_, lInt := l.(quad.Int)
	_, rInt := r.(quad.Int)
	if lInt && rInt && name != algebra.FnDiv && res == math.Trunc(res) {
		return quad.Int(int64(res)), nil
	}
	return quad.Float(res), nil
}

// compareValues implements SPARQL ORDER BY / relational term order:
// numeric values compare by magnitude, everything else falls back to
// canonical string form.
func compareValues(l, r quad.Value) int {
	lf, lok := asFloat(l)
	rf, rok := asFloat(r)
	if lok && rok {
		switch {
		case lf < rf:
			return -1
		case lf > rf:
			return 1
		default:
			return 0
		}
	}
	ls, rs := quad.StringOf(l), quad.StringOf(r)
	switch {
	case ls < rs:
		return -1
	case ls > rs:
		return 1
	default:
		return 0
	}
}

func evalDateTimePart(name algebra.FuncName, v quad.Value) (quad.Value, error) {
	t, ok := v.(quad.Time)
	if !ok {
		return nil, errUnbound
	}
	tt := time.Time(t)
	switch name {
	case algebra.FnYear:
		return quad.Int(tt.Year()), nil
	case algebra.FnMonth:
		return quad.Int(int(tt.Month())), nil
	case algebra.FnDay:
		return quad.Int(tt.Day()), nil
	case algebra.FnHours:
		return quad.Int(tt.Hour()), nil
	case algebra.FnMinutes:
		return quad.Int(tt.Minute()), nil
	case algebra.FnSeconds:
		return quad.Int(tt.Second()), nil
	case algebra.FnTimezone, algebra.FnTz:
		_, offset := tt.Zone()
		return quad.String(formatOffset(offset)), nil
	}
	return nil, errUnbound
}

// evalRegex implements REGEX(text, pattern[, flags]), translating the
// SPARQL/XPath "i" flag to Go's inline (?i) syntax.
func evalRegex(a []quad.Value) (quad.Value, error) {
	pattern := asString(a[1])
	if len(a) > 2 {
		for _, f := range asString(a[2]) {
			switch f {
			case 'i':
				pattern = "(?i)" + pattern
			case 's':
				pattern = "(?s)" + pattern
			case 'm':
				pattern = "(?m)" + pattern
			}
		}
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return quad.Bool(re.MatchString(asString(a[0]))), nil
}

func formatOffset(seconds int) string {
	sign := "+"
	if seconds < 0 {
		sign = "-"
		seconds = -seconds
	}
	return fmt.Sprintf("%sPT%dH%dM", sign, seconds/3600, (seconds%3600)/60)
}

// pseudoRand derives RAND()'s value from the wall clock's current
// nanosecond modulo 1000, so it returns one of 0, 0.001, ..., 0.999 and is
// not reproducible.
func pseudoRand() float64 {
	return float64(time.Now().Nanosecond()%1000) / 1000
}
