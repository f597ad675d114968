package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cities() Grid {
	return New([]string{"id", "city", "pop"}, []Row{
		{"id": "1", "city": "a", "pop": "10"},
		{"id": "2", "city": "b", "pop": "20"},
		{"id": "3", "city": nil, "pop": "5"},
	})
}

func countries() Grid {
	return New([]string{"id", "town", "country"}, []Row{
		{"id": "7", "town": "a", "country": "X"},
		{"id": "8", "town": "c", "country": "Y"},
		{"id": "9", "town": nil, "country": "Z"},
	})
}

func TestJoinInner(t *testing.T) {
	out, err := Join(cities(), countries(), "city", "town", JoinInner)
	require.NoError(t, err)

	assert.Equal(t, []string{"city", "pop", "country"}, out.Columns)
	assert.Equal(t, []Row{
		{"city": "a", "pop": "10", "country": "X"},
		{"city": nil, "pop": "5", "country": "Z"},
	}, out.Rows)
}

func TestJoinLeftKeepsAnchorRows(t *testing.T) {
	out, err := Join(cities(), countries(), "city", "town", JoinLeft)
	require.NoError(t, err)

	assert.Equal(t, []string{"city", "pop", "country"}, out.Columns)
	assert.Equal(t, []Row{
		{"city": "a", "pop": "10", "country": "X"},
		{"city": "b", "pop": "20", "country": nil},
		{"city": nil, "pop": "5", "country": "Z"},
	}, out.Rows)
}

func TestJoinRightKeepsAnchorRows(t *testing.T) {
	out, err := Join(cities(), countries(), "city", "town", JoinRight)
	require.NoError(t, err)

	assert.Equal(t, []string{"town", "pop", "country"}, out.Columns)
	assert.Equal(t, []Row{
		{"town": "a", "pop": "10", "country": "X"},
		{"town": "c", "pop": nil, "country": "Y"},
		{"town": nil, "pop": "5", "country": "Z"},
	}, out.Rows)
}

func TestJoinEmitsEveryMatchingPair(t *testing.T) {
	left := New([]string{"k", "l"}, []Row{{"k": "1", "l": "a"}, {"k": "1", "l": "b"}})
	right := New([]string{"k", "r"}, []Row{{"k": "1", "r": "x"}, {"k": "1", "r": "y"}})

	out, err := Join(left, right, "k", "k", JoinInner)
	require.NoError(t, err)
	assert.Len(t, out.Rows, 4)
}

func TestJoinComparesKeysAsText(t *testing.T) {
	left := New([]string{"k", "l"}, []Row{{"k": int64(1), "l": "a"}})
	right := New([]string{"k", "r"}, []Row{{"k": "1", "r": "x"}})

	out, err := Join(left, right, "k", "k", JoinInner)
	require.NoError(t, err)
	require.Len(t, out.Rows, 1)
	assert.Equal(t, "x", out.Rows[0]["r"])
}

func TestJoinColumnCollision(t *testing.T) {
	left := New([]string{"k", "v", "left.id"}, []Row{{"k": "1", "v": "L", "left.id": "9"}, {"k": "2", "v": "L2", "left.id": "8"}})
	right := New([]string{"k2", "v"}, []Row{{"k2": "1", "v": "R"}})

	out, err := Join(left, right, "k", "k2", JoinLeft)
	require.NoError(t, err)

	assert.Equal(t, []string{"k", "v"}, out.Columns)
	assert.Equal(t, "R", out.Rows[0]["v"])
	assert.Equal(t, "L2", out.Rows[1]["v"])
}

func TestJoinUnknownColumn(t *testing.T) {
	_, err := Join(cities(), countries(), "nope", "town", JoinInner)
	assert.ErrorIs(t, err, ErrUnknownColumn)

	_, err = Join(cities(), countries(), "city", "nope", JoinInner)
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestJoinEmptyResult(t *testing.T) {
	left := New([]string{"k"}, []Row{{"k": "1"}})
	right := New([]string{"k"}, []Row{{"k": "2"}})

	out, err := Join(left, right, "k", "k", JoinInner)
	require.NoError(t, err)
	assert.NotNil(t, out.Rows)
	assert.Empty(t, out.Rows)
}

func TestParseJoinKind(t *testing.T) {
	k, err := ParseJoinKind("LEFT")
	require.NoError(t, err)
	assert.Equal(t, JoinLeft, k)

	k, err = ParseJoinKind("")
	require.NoError(t, err)
	assert.Equal(t, JoinInner, k)

	_, err = ParseJoinKind("outer")
	assert.Error(t, err)
}
