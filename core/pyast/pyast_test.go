package pyast

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// literalOf parses src as a module whose first statement is an
// expression, and evaluates that expression
func literalOf(t *testing.T, src string) (interface{}, bool) {
	t.Helper()
	parser := NewParser()
	tree, err := parser.Parse(context.Background(), []byte(src))
	require.NoError(t, err)
	defer tree.Close()

	expr := manifestExpression(tree.RootNode())
	require.NotNil(t, expr, "no expression in %q", src)
	return Literal(expr, []byte(src))
}

func TestLiteralScalars(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want interface{}
	}{
		{"single quoted string", `'res.partner'`, "res.partner"},
		{"double quoted string", `"Sale Order"`, "Sale Order"},
		{"empty string", `''`, ""},
		{"concatenated string", `'a' 'b'`, "ab"},
		{"integer", `16`, int64(16)},
		{"integer with underscore", `1_000`, int64(1000)},
		{"float", `1.5`, 1.5},
		{"true", `True`, true},
		{"false", `False`, false},
		{"none", `None`, nil},
		{"parenthesized", `('base')`, "base"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := literalOf(t, tt.src)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLiteralCollections(t *testing.T) {
	got, ok := literalOf(t, `['base', 'sale', 'stock']`)
	require.True(t, ok)
	assert.Equal(t, []interface{}{"base", "sale", "stock"}, got)

	got, ok = literalOf(t, `{'name': 'Sale', 'depends': ['base'], 'installable': True}`)
	require.True(t, ok)
	assert.Equal(t, map[string]interface{}{
		"name":        "Sale",
		"depends":     []interface{}{"base"},
		"installable": true,
	}, got)
}

func TestLiteralRejectsNonLiterals(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"function call", `dict(a=1)`},
		{"name reference", `VERSION`},
		{"attribute access", `config.version`},
		{"comprehension", `[x for x in range(3)]`},
		{"list with call inside", `['a', f()]`},
		{"dict with name value", `{'a': VERSION}`},
		{"dict with non-string key", `{1: 'a'}`},
		{"binary expression", `1 + 2`},
		{"f-string interpolation", `f"v{n}"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := literalOf(t, tt.src)
			assert.False(t, ok)
		})
	}
}

func TestEvalManifest(t *testing.T) {
	parser := NewParser()
	ctx := context.Background()

	t.Run("valid manifest", func(t *testing.T) {
		src := `{
    'name': 'Sales',
    'version': '1.2',
    'depends': ['base', 'mail'],
    'installable': True,
    'auto_install': False,
}`
		data, clean, err := parser.EvalManifest(ctx, []byte(src))
		require.NoError(t, err)
		assert.True(t, clean)
		assert.Equal(t, "Sales", data["name"])
		assert.Equal(t, []interface{}{"base", "mail"}, data["depends"])
	})

	t.Run("braces wrapped in comment and parens", func(t *testing.T) {
		src := "# manifest\n({'name': 'x'})\n"
		data, clean, err := parser.EvalManifest(ctx, []byte(src))
		require.NoError(t, err)
		assert.True(t, clean)
		assert.Equal(t, "x", data["name"])
	})

	t.Run("whitelist violation yields empty mapping", func(t *testing.T) {
		src := `{'name': 'x', 'version': get_version()}`
		data, clean, err := parser.EvalManifest(ctx, []byte(src))
		require.NoError(t, err)
		assert.False(t, clean)
		assert.Empty(t, data)
	})

	t.Run("non-mapping expression is an error", func(t *testing.T) {
		_, _, err := parser.EvalManifest(ctx, []byte(`['not', 'a', 'dict']`))
		assert.Error(t, err)
	})

	t.Run("empty file is an error", func(t *testing.T) {
		_, _, err := parser.EvalManifest(ctx, []byte(""))
		assert.Error(t, err)
	})
}

func TestTruthy(t *testing.T) {
	assert.True(t, Truthy(true))
	assert.True(t, Truthy(int64(1)))
	assert.True(t, Truthy("x"))
	assert.False(t, Truthy(nil))
	assert.False(t, Truthy(false))
	assert.False(t, Truthy(int64(0)))
	assert.False(t, Truthy(""))
	assert.False(t, Truthy([]interface{}{}))
}

func TestStringList(t *testing.T) {
	assert.Equal(t, []string{"mail.thread"}, StringList("mail.thread"))
	assert.Equal(t, []string{"a", "b"}, StringList([]interface{}{"a", "b"}))
	assert.Nil(t, StringList(int64(3)))
	assert.Nil(t, StringList(nil))
}
