// Package formula parses the R-style model formulas consumed by the
// mixed-effects adapter: "response ~ fixed1 + fixed2 + (1|group)". Only
// the subset needed for formula bookkeeping is supported: additive fixed
// terms and parenthesized random terms with a single grouping factor.
package formula

import (
	"strings"

	"github.com/YuminosukeSato/statviz/pkg/errors"
)

// RandomTerm is one "(expr|group)" term. Variable is "1" for a random
// intercept, otherwise the name of the covariate whose slope varies by
// group.
type RandomTerm struct {
	Variable string
	Group    string
}

// Intercept reports whether the term is a random intercept.
func (rt RandomTerm) Intercept() bool { return rt.Variable == "1" }

// Formula is a parsed model formula.
type Formula struct {
	Response string
	Fixed    []string
	Random   []RandomTerm
}

// Parse parses a full formula of the form "response ~ rhs".
func Parse(s string) (*Formula, error) {
	parts := strings.Split(s, "~")
	if len(parts) != 2 {
		return nil, errors.NewFormulaError(s, "expected exactly one '~'")
	}

	response := strings.TrimSpace(parts[0])
	if response == "" {
		return nil, errors.NewFormulaError(s, "empty response")
	}

	f, err := ParseRHS(parts[1])
	if err != nil {
		return nil, err
	}
	f.Response = response
	return f, nil
}

// ParseRHS parses a right-hand side only, as supplied to the adapter's
// Formulas field (the response label is prepended per response).
func ParseRHS(rhs string) (*Formula, error) {
	if strings.Contains(rhs, "~") {
		return nil, errors.NewFormulaError(rhs, "right-hand side must not contain '~'; omit the response")
	}
	f := &Formula{}

	terms, err := splitTerms(rhs)
	if err != nil {
		return nil, err
	}
	if len(terms) == 0 {
		return nil, errors.NewFormulaError(rhs, "empty right-hand side")
	}

	for _, term := range terms {
		if strings.HasPrefix(term, "(") {
			if !strings.HasSuffix(term, ")") {
				return nil, errors.NewFormulaError(rhs, "unbalanced parentheses in term "+term)
			}
			rt, err := parseRandomTerm(rhs, term[1:len(term)-1])
			if err != nil {
				return nil, err
			}
			f.Random = append(f.Random, rt)
			continue
		}
		if strings.ContainsAny(term, "|()") {
			return nil, errors.NewFormulaError(rhs, "random term must be parenthesized: "+term)
		}
		f.Fixed = append(f.Fixed, term)
	}
	return f, nil
}

// String renders the formula back to its R-style form.
func (f *Formula) String() string {
	var sb strings.Builder
	if f.Response != "" {
		sb.WriteString(f.Response)
		sb.WriteString(" ~ ")
	}
	terms := append([]string(nil), f.Fixed...)
	for _, rt := range f.Random {
		terms = append(terms, "("+rt.Variable+"|"+rt.Group+")")
	}
	sb.WriteString(strings.Join(terms, " + "))
	return sb.String()
}

// splitTerms splits a RHS on '+' at parenthesis depth zero.
func splitTerms(rhs string) ([]string, error) {
	var terms []string
	depth := 0
	current := strings.Builder{}

	flush := func() error {
		term := strings.TrimSpace(current.String())
		current.Reset()
		if term == "" {
			return errors.NewFormulaError(rhs, "empty term")
		}
		terms = append(terms, term)
		return nil
	}

	trimmed := strings.TrimSpace(rhs)
	if trimmed == "" {
		return nil, errors.NewFormulaError(rhs, "empty right-hand side")
	}

	for _, r := range trimmed {
		switch {
		case r == '(':
			depth++
			current.WriteRune(r)
		case r == ')':
			depth--
			if depth < 0 {
				return nil, errors.NewFormulaError(rhs, "unbalanced parentheses")
			}
			current.WriteRune(r)
		case r == '+' && depth == 0:
			if err := flush(); err != nil {
				return nil, err
			}
		default:
			current.WriteRune(r)
		}
	}
	if depth != 0 {
		return nil, errors.NewFormulaError(rhs, "unbalanced parentheses")
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return terms, nil
}

func parseRandomTerm(rhs, inner string) (RandomTerm, error) {
	parts := strings.Split(inner, "|")
	if len(parts) != 2 {
		return RandomTerm{}, errors.NewFormulaError(rhs, "random term must have the form (expr|group)")
	}
	variable := strings.TrimSpace(parts[0])
	group := strings.TrimSpace(parts[1])
	if variable == "" || group == "" {
		return RandomTerm{}, errors.NewFormulaError(rhs, "random term must have the form (expr|group)")
	}
	return RandomTerm{Variable: variable, Group: group}, nil
}
