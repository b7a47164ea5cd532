// Package flatzinc is a thin text front end: a small FlatZinc-like model
// language translated directly into gobori.Model API calls. It is the only
// component in this module that parses an external format, and the only one
// that reaches for github.com/pkg/errors: parse diagnostics want call-site
// wrapping context that the core's plain sentinel-error convention
// (gobori/errors.go) doesn't need.
//
// Grammar, one statement per line, ';'-terminated, '%' starts a line comment:
//
//	var <min>..<max>: <name>;
//	var {<v1>,<v2>,...}: <name>;
//	var int: <name> = <value>;          % constant
//	alias <aliasName> = <varName>;
//	defined <name>;
//	constraint <op>(<arg>, <arg>, ...);
//	solve satisfy;
//	solve minimize <name>;
//	solve maximize <name>;
//
// Supported constraint ops: eq, ne, lt, le (binary int comparisons over two
// named variables), alldifferent(<name>, <name>, ...), circuit(<name>, ...),
// linear_eq/linear_le/linear_ne([<c1>,<c2>,...], [<name>,<name>,...], <rhs>),
// and element(<name index>, [<v1>,<v2>,...], <name result>[, offset]). Each
// list is a single bracketed argument; the element offset defaults to 1.
package flatzinc

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/soraci/gobori/pkg/gobori"
)

// Solve names what the trailing solve statement asked for.
type Solve struct {
	Mode      string // "satisfy", "minimize", or "maximize"
	Objective string // variable name, empty for "satisfy"
}

// Parse reads a model from r, builds every variable and constraint into m via
// the Model construction API, and returns the trailing solve goal. The
// caller is still responsible for calling m.BuildConstraintWatchList()
// before solving.
func Parse(r io.Reader, m *gobori.Model) (Solve, error) {
	p := &parser{m: m, names: make(map[string]int)}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		p.line++
		raw := scanner.Text()
		if idx := strings.Index(raw, "%"); idx >= 0 {
			raw = raw[:idx]
		}
		stmt := strings.TrimSpace(raw)
		if stmt == "" {
			continue
		}
		stmt = strings.TrimSuffix(stmt, ";")
		if err := p.statement(stmt); err != nil {
			return Solve{}, errors.Wrapf(err, "line %d: %q", p.line, raw)
		}
	}
	if err := scanner.Err(); err != nil {
		return Solve{}, errors.Wrap(err, "reading model")
	}
	if !p.haveSolve {
		return Solve{}, errors.New("model has no solve statement")
	}
	return p.solve, nil
}

type parser struct {
	m         *gobori.Model
	names     map[string]int
	line      int
	solve     Solve
	haveSolve bool
}

func (p *parser) statement(stmt string) error {
	switch {
	case strings.HasPrefix(stmt, "var "):
		return p.varDecl(stmt[len("var "):])
	case strings.HasPrefix(stmt, "alias "):
		return p.aliasDecl(stmt[len("alias "):])
	case strings.HasPrefix(stmt, "defined "):
		return p.definedDecl(stmt[len("defined "):])
	case strings.HasPrefix(stmt, "constraint "):
		return p.constraintDecl(stmt[len("constraint "):])
	case strings.HasPrefix(stmt, "solve "):
		return p.solveDecl(stmt[len("solve "):])
	default:
		return errors.Errorf("unrecognized statement %q", stmt)
	}
}

func (p *parser) varDecl(body string) error {
	colon := strings.Index(body, ":")
	if colon < 0 {
		return errors.New("var declaration missing ':'")
	}
	domainSpec := strings.TrimSpace(body[:colon])
	rest := strings.TrimSpace(body[colon+1:])

	name := rest
	var constValue *int
	if eq := strings.Index(rest, "="); eq >= 0 {
		name = strings.TrimSpace(rest[:eq])
		v, err := strconv.Atoi(strings.TrimSpace(rest[eq+1:]))
		if err != nil {
			return errors.Wrap(err, "parsing constant value")
		}
		constValue = &v
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("var declaration missing a name")
	}
	if _, exists := p.names[name]; exists {
		return errors.Errorf("variable %q declared twice", name)
	}

	var vIdx int
	var err error
	switch {
	case constValue != nil:
		vIdx, err = p.m.CreateVariableFromValue(name, *constValue)
	case strings.HasPrefix(domainSpec, "{"):
		var values []int
		values, err = parseIntSet(domainSpec)
		if err == nil {
			vIdx, err = p.m.CreateVariableFromValues(name, values)
		}
	case domainSpec == "int":
		return errors.New("var int: requires a constant value (use '= <n>')")
	default:
		var lo, hi int
		lo, hi, err = parseRange(domainSpec)
		if err == nil {
			vIdx, err = p.m.CreateVariable(name, lo, hi)
		}
	}
	if err != nil {
		return err
	}
	p.names[name] = vIdx
	return nil
}

func parseRange(spec string) (int, int, error) {
	parts := strings.SplitN(spec, "..", 2)
	if len(parts) != 2 {
		return 0, 0, errors.Errorf("expected '<min>..<max>', got %q", spec)
	}
	lo, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, errors.Wrap(err, "parsing range min")
	}
	hi, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, errors.Wrap(err, "parsing range max")
	}
	return lo, hi, nil
}

func parseIntSet(spec string) ([]int, error) {
	spec = strings.TrimSpace(spec)
	if !strings.HasPrefix(spec, "{") || !strings.HasSuffix(spec, "}") {
		return nil, errors.Errorf("expected '{v1,v2,...}', got %q", spec)
	}
	return parseIntList(spec[1 : len(spec)-1])
}

func parseIntList(s string) ([]int, error) {
	fields := splitArgs(s)
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, errors.Wrapf(err, "parsing integer %q", f)
		}
		out = append(out, v)
	}
	return out, nil
}

// splitArgs splits a top-level comma list, treating '[' ']' as grouping so a
// nested array argument's commas aren't mistaken for argument separators.
func splitArgs(s string) []string {
	var out []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '[', '{':
			depth++
		case ']', '}':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	if strings.TrimSpace(s[start:]) != "" || len(out) > 0 {
		out = append(out, s[start:])
	}
	for i := range out {
		out[i] = strings.TrimSpace(out[i])
	}
	return out
}

func (p *parser) aliasDecl(body string) error {
	eq := strings.Index(body, "=")
	if eq < 0 {
		return errors.New("alias declaration missing '='")
	}
	aliasName := strings.TrimSpace(body[:eq])
	varName := strings.TrimSpace(body[eq+1:])
	vIdx, err := p.resolve(varName)
	if err != nil {
		return err
	}
	return p.m.AddVariableAlias(aliasName, vIdx)
}

func (p *parser) definedDecl(body string) error {
	vIdx, err := p.resolve(strings.TrimSpace(body))
	if err != nil {
		return err
	}
	return p.m.SetDefinedVar(vIdx)
}

func (p *parser) resolve(name string) (int, error) {
	vIdx, ok := p.names[name]
	if !ok {
		return 0, errors.Errorf("unknown variable %q", name)
	}
	return vIdx, nil
}

func (p *parser) resolveList(names []string) ([]int, error) {
	out := make([]int, 0, len(names))
	for _, n := range names {
		vIdx, err := p.resolve(strings.TrimSpace(n))
		if err != nil {
			return nil, err
		}
		out = append(out, vIdx)
	}
	return out, nil
}

func (p *parser) constraintDecl(body string) error {
	paren := strings.Index(body, "(")
	if paren < 0 || !strings.HasSuffix(body, ")") {
		return errors.Errorf("expected 'op(args...)', got %q", body)
	}
	op := strings.TrimSpace(body[:paren])
	args := splitArgs(body[paren+1 : len(body)-1])

	c, err := p.buildConstraint(op, args)
	if err != nil {
		return err
	}
	_, err = p.m.AddConstraint(c)
	return err
}

func (p *parser) buildConstraint(op string, args []string) (gobori.Constraint, error) {
	switch op {
	case "eq", "ne", "lt", "le":
		return p.binaryComparison(op, args)
	case "alldifferent":
		vars, err := p.resolveList(args)
		if err != nil {
			return nil, err
		}
		return gobori.NewAllDifferent(vars), nil
	case "circuit":
		vars, err := p.resolveList(args)
		if err != nil {
			return nil, err
		}
		return gobori.NewCircuit(vars), nil
	case "linear_eq", "linear_le", "linear_ne":
		return p.linear(op, args)
	case "element":
		return p.element(args)
	default:
		return nil, errors.Errorf("unknown constraint op %q", op)
	}
}

func (p *parser) binaryComparison(op string, args []string) (gobori.Constraint, error) {
	if len(args) != 2 {
		return nil, errors.Errorf("%s expects 2 arguments, got %d", op, len(args))
	}
	x, err := p.resolve(args[0])
	if err != nil {
		return nil, err
	}
	y, err := p.resolve(args[1])
	if err != nil {
		return nil, err
	}
	switch op {
	case "eq":
		return gobori.NewIntEq(x, y), nil
	case "ne":
		return gobori.NewIntNe(x, y), nil
	case "lt":
		return gobori.NewIntLt(x, y), nil
	case "le":
		return gobori.NewIntLe(x, y), nil
	}
	return nil, errors.Errorf("unreachable comparison op %q", op)
}

func (p *parser) linear(op string, args []string) (gobori.Constraint, error) {
	if len(args) != 3 {
		return nil, errors.Errorf("%s expects 3 arguments ([coeffs], [vars], rhs), got %d", op, len(args))
	}
	coeffs, err := parseIntList(stripBrackets(args[0]))
	if err != nil {
		return nil, err
	}
	vars, err := p.resolveList(splitArgs(stripBrackets(args[1])))
	if err != nil {
		return nil, err
	}
	if len(coeffs) != len(vars) {
		return nil, errors.Errorf("%s: %d coefficients but %d variables", op, len(coeffs), len(vars))
	}
	rhs, err := strconv.Atoi(strings.TrimSpace(args[2]))
	if err != nil {
		return nil, errors.Wrap(err, "parsing rhs")
	}
	switch op {
	case "linear_eq":
		return gobori.NewIntLinEq(coeffs, vars, rhs), nil
	case "linear_le":
		return gobori.NewIntLinLe(coeffs, vars, rhs), nil
	case "linear_ne":
		return gobori.NewIntLinNe(coeffs, vars, rhs), nil
	}
	return nil, errors.Errorf("unreachable linear op %q", op)
}

func (p *parser) element(args []string) (gobori.Constraint, error) {
	if len(args) != 3 && len(args) != 4 {
		return nil, errors.Errorf("element expects (index, [array], result[, offset]), got %d args", len(args))
	}
	index, err := p.resolve(args[0])
	if err != nil {
		return nil, err
	}
	array, err := parseIntList(stripBrackets(args[1]))
	if err != nil {
		return nil, err
	}
	result, err := p.resolve(args[2])
	if err != nil {
		return nil, err
	}
	offset := 1
	if len(args) == 4 {
		offset, err = strconv.Atoi(strings.TrimSpace(args[3]))
		if err != nil {
			return nil, errors.Wrap(err, "parsing offset")
		}
	}
	return gobori.NewIntElement(index, array, result, offset), nil
}

func stripBrackets(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		return s[1 : len(s)-1]
	}
	return s
}

func (p *parser) solveDecl(body string) error {
	fields := strings.Fields(body)
	if len(fields) == 0 {
		return errors.New("empty solve statement")
	}
	switch fields[0] {
	case "satisfy":
		p.solve = Solve{Mode: "satisfy"}
	case "minimize", "maximize":
		if len(fields) != 2 {
			return errors.Errorf("solve %s expects exactly one objective variable", fields[0])
		}
		if _, err := p.resolve(fields[1]); err != nil {
			return err
		}
		p.solve = Solve{Mode: fields[0], Objective: fields[1]}
	default:
		return errors.Errorf("unknown solve goal %q", fields[0])
	}
	p.haveSolve = true
	return nil
}
