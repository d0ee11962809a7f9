package condition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEval_EmptyIsTrue(t *testing.T) {
	ev, err := NewEvaluator()
	require.NoError(t, err)

	ok, err := ev.Eval("   ", nil)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEval_StateLookups(t *testing.T) {
	ev, err := NewEvaluator()
	require.NoError(t, err)

	ctx := &EvalContext{State: map[string]any{
		"cartCount": 2,
		"loggedIn":  true,
		"favorites": []any{"sku-1", "sku-9"},
		"screen":    "/home",
	}}

	cases := []struct {
		expr string
		want bool
	}{
		{"state.cartCount > 0", true},
		{"state.cartCount > 5", false},
		{"state.loggedIn && state.screen == '/home'", true},
		{"'sku-9' in state.favorites", true},
		{"'sku-2' in state.favorites", false},
		{"has(state.coupon)", false},
	}
	for _, tc := range cases {
		got, err := ev.Eval(tc.expr, ctx)
		require.NoError(t, err, tc.expr)
		assert.Equal(t, tc.want, got, tc.expr)
	}
}

func TestEval_Errors(t *testing.T) {
	ev, err := NewEvaluator()
	require.NoError(t, err)

	_, err = ev.Eval("state.cartCount >", nil)
	assert.Error(t, err, "syntax error should fail to compile")

	_, err = ev.Eval("state.screen", &EvalContext{State: map[string]any{"screen": "/home"}})
	assert.Error(t, err, "non-bool result should be an error")

	_, err = ev.Eval("state.missing > 1", &EvalContext{State: map[string]any{}})
	assert.Error(t, err, "missing key should be an evaluation error")
}

func TestCheck_CachesProgram(t *testing.T) {
	ev, err := NewEvaluator()
	require.NoError(t, err)

	require.NoError(t, ev.Check("state.x == 1"))
	assert.Len(t, ev.cache, 1)
	require.NoError(t, ev.Check("state.x == 1"))
	assert.Len(t, ev.cache, 1)
	assert.NoError(t, ev.Check(""))
	assert.Error(t, ev.Check("(("))
}
