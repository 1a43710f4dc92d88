package queryir

import (
	"fmt"
	"strings"

	"github.com/roach88/blockdoc/internal/ir"
)

// CheckResult lists the problems found in a query.
type CheckResult struct {
	// Errors make the query uncompilable.
	Errors []string

	// Warnings flag predicates that compile but can never match.
	Warnings []string
}

// OK reports whether the query can be compiled.
func (r CheckResult) OK() bool {
	return len(r.Errors) == 0
}

// Check walks a query and reports unsupported values and field names, and
// predicates that can never match. It has no side effects.
func Check(query Query) CheckResult {
	c := &checker{}
	c.checkQuery(query)
	return CheckResult{Errors: c.errors, Warnings: c.warnings}
}

type checker struct {
	errors   []string
	warnings []string
}

func (c *checker) addError(format string, args ...any) {
	c.errors = append(c.errors, fmt.Sprintf(format, args...))
}

func (c *checker) addWarning(format string, args ...any) {
	c.warnings = append(c.warnings, fmt.Sprintf(format, args...))
}

func (c *checker) checkQuery(q Query) {
	switch query := q.(type) {
	case nil:
		c.addError("nil query")
	case Blocks:
		c.checkBlocks(query)
	case *Blocks:
		c.checkBlocks(*query)
	default:
		c.addError("unknown query type: %T", q)
	}
}

func (c *checker) checkBlocks(b Blocks) {
	if b.Limit < 0 {
		c.addError("negative limit %d", b.Limit)
	}
	if b.Filter != nil {
		c.checkPredicate(b.Filter)
	}
}

func (c *checker) checkPredicate(p Predicate) {
	switch pred := p.(type) {
	case nil:
		c.addError("nil predicate")
	case Equals:
		c.checkEquals(pred)
	case *Equals:
		c.checkEquals(*pred)
	case Exists:
		c.checkField(pred.Field)
	case *Exists:
		c.checkField(pred.Field)
	case Not:
		c.checkPredicate(pred.Predicate)
	case *Not:
		c.checkPredicate(pred.Predicate)
	case And:
		c.checkAnd(pred)
	case *And:
		c.checkAnd(*pred)
	default:
		c.addError("unknown predicate type: %T", p)
	}
}

func (c *checker) checkEquals(eq Equals) {
	c.checkField(eq.Field)

	switch eq.Value.(type) {
	case ir.IRString, ir.IRInt, ir.IRBool:
	case nil, ir.IRNull:
		c.addWarning("field %q compared to null never matches; use Exists", eq.Field)
	case ir.IRArray, ir.IRObject:
		c.addError("field %q: cannot compare with %T", eq.Field, eq.Value)
	default:
		c.addError("field %q: unsupported value %T", eq.Field, eq.Value)
	}
}

// checkField rejects names that cannot be quoted in a JSON path.
func (c *checker) checkField(field string) {
	switch {
	case field == "":
		c.addError("empty field name")
	case strings.ContainsAny(field, "\"\\"):
		c.addError("field %q: quotes and backslashes are not supported", field)
	}
}

func (c *checker) checkAnd(and And) {
	for _, sub := range and.Predicates {
		c.checkPredicate(sub)
	}
}
