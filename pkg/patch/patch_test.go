package patch

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  Field[string] `json:"name"`
	Price Field[float64] `json:"price"`
	Stock Field[int]    `json:"stock"`
}

func TestField_Absent(t *testing.T) {
	var p payload
	require.NoError(t, json.Unmarshal([]byte(`{}`), &p))

	assert.False(t, p.Name.IsSet())
	assert.False(t, p.Name.IsNull())

	_, ok := p.Name.Get()
	assert.False(t, ok)
}

func TestField_Set(t *testing.T) {
	var p payload
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Widget","stock":0}`), &p))

	name, ok := p.Name.Get()
	require.True(t, ok)
	assert.Equal(t, "Widget", name)

	// Zero values still count as set: the key was present.
	stock, ok := p.Stock.Get()
	require.True(t, ok)
	assert.Equal(t, 0, stock)

	assert.False(t, p.Price.IsSet())
}

func TestField_ExplicitNull(t *testing.T) {
	var p payload
	require.NoError(t, json.Unmarshal([]byte(`{"price":null}`), &p))

	assert.True(t, p.Price.IsNull())
	assert.False(t, p.Price.IsSet())

	_, ok := p.Price.Get()
	assert.False(t, ok)
}

func TestField_Or(t *testing.T) {
	assert.Equal(t, "kept", Field[string]{}.Or("kept"))
	assert.Equal(t, "new", Set("new").Or("kept"))
	assert.Equal(t, 7, Null[int]().Or(7))
}

func TestField_InvalidValue(t *testing.T) {
	var p payload
	err := json.Unmarshal([]byte(`{"stock":"many"}`), &p)
	require.Error(t, err)
}
