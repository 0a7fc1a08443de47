package utils

import (
	"fmt"
	"sort"

	goeval "github.com/edisonguo/govaluate"
)

// BandExpressions holds a set of parsed band-maths expressions together with
// the band variables each of them references.
type BandExpressions struct {
	ExprText    []string
	Expressions []*goeval.EvaluableExpression
	VarList     []string
	ExprVarRef  [][]string
}

func ParseBandExpressions(bands []string) (*BandExpressions, error) {
	bandExpr := &BandExpressions{ExprText: bands}
	varFound := make(map[string]struct{})
	for _, bandRaw := range bands {
		expr, err := goeval.NewEvaluableExpression(bandRaw)
		if err != nil {
			return nil, fmt.Errorf("parsing error in band expression '%s': %v", bandRaw, err)
		}
		bandExpr.Expressions = append(bandExpr.Expressions, expr)

		exprVars := expr.Vars()
		varRef := make([]string, 0, len(exprVars))
		seen := make(map[string]struct{})
		for _, v := range exprVars {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			varRef = append(varRef, v)
			if _, ok := varFound[v]; !ok {
				varFound[v] = struct{}{}
				bandExpr.VarList = append(bandExpr.VarList, v)
			}
		}
		sort.Strings(varRef)
		bandExpr.ExprVarRef = append(bandExpr.ExprVarRef, varRef)
	}
	sort.Strings(bandExpr.VarList)
	return bandExpr, nil
}

// EvaluateFloat32 evaluates the ix-th expression against the supplied
// variable bindings and coerces the result to float32.
func (be *BandExpressions) EvaluateFloat32(ix int, parameters map[string]interface{}) (float32, error) {
	result, err := be.Expressions[ix].Evaluate(parameters)
	if err != nil {
		return 0, fmt.Errorf("eval '%v' error: %v", be.ExprText[ix], err)
	}
	switch val := result.(type) {
	case float32:
		return val, nil
	case float64:
		return float32(val), nil
	case int:
		return float32(val), nil
	default:
		return 0, fmt.Errorf("failed to cast eval result '%v' of '%v' to float32", result, be.ExprText[ix])
	}
}

// EvaluateBool evaluates the ix-th expression as a predicate.
func (be *BandExpressions) EvaluateBool(ix int, parameters map[string]interface{}) (bool, error) {
	result, err := be.Expressions[ix].Evaluate(parameters)
	if err != nil {
		return false, fmt.Errorf("eval '%v' error: %v", be.ExprText[ix], err)
	}
	val, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("expression '%v' is not a predicate, got '%v'", be.ExprText[ix], result)
	}
	return val, nil
}
