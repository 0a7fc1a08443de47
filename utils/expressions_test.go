package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBandExpressions(t *testing.T) {
	be, err := ParseBandExpressions([]string{"(b2 - b1) / (b2 + b1)", "b1"})
	require.NoError(t, err)
	require.Len(t, be.Expressions, 2)
	assert.Equal(t, []string{"b1", "b2"}, be.VarList)
	assert.Equal(t, []string{"b1", "b2"}, be.ExprVarRef[0])
	assert.Equal(t, []string{"b1"}, be.ExprVarRef[1])
}

func TestParseBandExpressionsInvalid(t *testing.T) {
	_, err := ParseBandExpressions([]string{"b1 +* b2"})
	assert.Error(t, err)
}

func TestEvaluateFloat32(t *testing.T) {
	be, err := ParseBandExpressions([]string{"(b2 - b1) / (b2 + b1)"})
	require.NoError(t, err)

	v, err := be.EvaluateFloat32(0, map[string]interface{}{"b1": 1.0, "b2": 3.0})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, float64(v), 1e-6)
}

func TestEvaluateFloat32UnboundVariable(t *testing.T) {
	be, err := ParseBandExpressions([]string{"b1 + b2"})
	require.NoError(t, err)

	_, err = be.EvaluateFloat32(0, map[string]interface{}{"b1": 1.0})
	assert.Error(t, err)
}

func TestEvaluateBool(t *testing.T) {
	be, err := ParseBandExpressions([]string{"ndvi > 0.2 && ndvi < 0.9"})
	require.NoError(t, err)

	valid, err := be.EvaluateBool(0, map[string]interface{}{"ndvi": 0.5})
	require.NoError(t, err)
	assert.True(t, valid)

	valid, err = be.EvaluateBool(0, map[string]interface{}{"ndvi": 0.95})
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestEvaluateBoolRejectsNumericExpression(t *testing.T) {
	be, err := ParseBandExpressions([]string{"ndvi * 2"})
	require.NoError(t, err)

	_, err = be.EvaluateBool(0, map[string]interface{}{"ndvi": 0.5})
	assert.Error(t, err)
}
