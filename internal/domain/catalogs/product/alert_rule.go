package product

import (
	"fmt"

	"github.com/google/cel-go/cel"
)

// DefaultAlertExpression flags a product once stock falls to its MinStock.
const DefaultAlertExpression = "stock <= min_stock"

// AlertRule decides whether a product belongs on the low-stock alert list.
type AlertRule interface {
	Matches(p *Product) (bool, error)
}

// CELAlertRule evaluates a CEL expression over the product fields
// stock, min_stock, price (double), category and name.
// Example: `stock <= min_stock || (category == "Battery" && stock < 20)`.
type CELAlertRule struct {
	expr    string
	program cel.Program
}

// NewCELAlertRule compiles expr. An empty expr uses DefaultAlertExpression.
func NewCELAlertRule(expr string) (*CELAlertRule, error) {
	if expr == "" {
		expr = DefaultAlertExpression
	}

	env, err := cel.NewEnv(
		cel.Variable("stock", cel.IntType),
		cel.Variable("min_stock", cel.IntType),
		cel.Variable("price", cel.DoubleType),
		cel.Variable("category", cel.StringType),
		cel.Variable("name", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("create alert rule env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile alert rule %q: %w", expr, issues.Err())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("build alert rule %q: %w", expr, err)
	}

	rule := &CELAlertRule{expr: expr, program: program}

	// Reject non-boolean expressions at startup rather than on first sale.
	if _, err := rule.Matches(&Product{}); err != nil {
		return nil, err
	}
	return rule, nil
}

func (r *CELAlertRule) String() string {
	return r.expr
}

func (r *CELAlertRule) Matches(p *Product) (bool, error) {
	out, _, err := r.program.Eval(map[string]any{
		"stock":     int64(p.Stock),
		"min_stock": int64(p.MinStock),
		"price":     p.Price.InexactFloat64(),
		"category":  string(p.Category),
		"name":      p.Name,
	})
	if err != nil {
		return false, fmt.Errorf("evaluate alert rule %q: %w", r.expr, err)
	}
	matched, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("alert rule %q returned %T, want bool", r.expr, out.Value())
	}
	return matched, nil
}

// MinStockRule is the built-in rule without CEL.
type MinStockRule struct{}

func (MinStockRule) Matches(p *Product) (bool, error) {
	return p.Stock <= p.MinStock, nil
}
