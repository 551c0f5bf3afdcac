package check

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseComparator(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want Comparator
	}{
		{"bare int", 3, Comparator{Op: OpEQ, Value: 3}},
		{"json number", float64(4), Comparator{Op: OpEQ, Value: 4}},
		{"yaml int64", int64(0), Comparator{Op: OpEQ, Value: 0}},
		{"greater", ">2", Comparator{Op: OpGT, Value: 2}},
		{"at least", ">=5", Comparator{Op: OpGTE, Value: 5}},
		{"explicit equal", "==3", Comparator{Op: OpEQ, Value: 3}},
		{"plain string", "7", Comparator{Op: OpEQ, Value: 7}},
		{"spaces", " >= 1 ", Comparator{Op: OpGTE, Value: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseComparator(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseComparator_Invalid(t *testing.T) {
	for _, in := range []any{
		"<2", ">-1", "=>2", "two", "", ">", -1, 2.5, true, []any{1},
	} {
		_, err := ParseComparator(in)
		assert.Error(t, err, "%v", in)
	}
}

func TestComparator_Compare(t *testing.T) {
	gt := Comparator{Op: OpGT, Value: 2}
	assert.False(t, gt.Compare(2))
	assert.True(t, gt.Compare(3))

	gte := Comparator{Op: OpGTE, Value: 2}
	assert.True(t, gte.Compare(2))
	assert.False(t, gte.Compare(1))

	eq := Comparator{Op: OpEQ, Value: 2}
	assert.True(t, eq.Compare(2))
	assert.False(t, eq.Compare(3))
}

func TestComparator_Render(t *testing.T) {
	assert.Equal(t, ">2", Comparator{Op: OpGT, Value: 2}.String())
	assert.Equal(t, ">=5", Comparator{Op: OpGTE, Value: 5}.String())
	assert.Equal(t, "==3", Comparator{Op: OpEQ, Value: 3}.String())

	assert.Equal(t, "more than 2", Comparator{Op: OpGT, Value: 2}.Describe())
	assert.Equal(t, "at least 5", Comparator{Op: OpGTE, Value: 5}.Describe())
	assert.Equal(t, "exactly 3", Comparator{Op: OpEQ, Value: 3}.Describe())
}

func TestParseCount(t *testing.T) {
	valid := map[string]int{
		"3":        3,
		"3\n":      3,
		"  12\r\n": 12,
		"\t0\t":    0,
		"007":      7,
	}
	for in, want := range valid {
		got, err := ParseCount(in)
		require.NoError(t, err, "%q", in)
		assert.Equal(t, want, got, "%q", in)
	}

	for _, in := range []string{
		"", "\n", "-1", "+3", "1,000", "1 000", "3\n4", "\u0663",
		"grep: /home/u/.bash_history: No such file or directory",
		"99999999999999999999999",
	} {
		_, err := ParseCount(in)
		require.Error(t, err, "%q", in)
		assert.Contains(t, err.Error(), "could not parse count")
	}
}
