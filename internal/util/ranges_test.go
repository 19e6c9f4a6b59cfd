package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressRanges(t *testing.T) {
	type testCase struct {
		args   []int
		expect string
	}

	testCases := []testCase{
		{args: []int{3, 4, 5, 7, 8, 10}, expect: "3-5,7-8,10"},
		{args: []int{3, 4, 5, 7}, expect: "3-5,7"},
		{args: []int{7, 5, 3, 4}, expect: "3-5,7"},
		{args: []int{1}, expect: "1"},
		{args: []int{2, 2, 3}, expect: "2-3"},
		{args: []int{0, 2, 4}, expect: "0,2,4"},
		{args: nil, expect: ""},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expect, CompressRanges(tc.args), "args: %v", tc.args)
	}
}

func TestExpandRangesRoundTrip(t *testing.T) {
	for _, values := range [][]int{
		{3, 4, 5, 7, 8, 10},
		{0},
		{1, 3, 5, 6, 7, 8, 20},
	} {
		expanded, err := ExpandRanges(CompressRanges(values))
		require.NoError(t, err)
		assert.Equal(t, values, expanded)
	}
}

func TestExpandRangesRejectsGarbage(t *testing.T) {
	_, err := ExpandRanges("3-x")
	assert.Error(t, err)
	_, err = ExpandRanges("5-3")
	assert.Error(t, err)

	values, err := ExpandRanges("")
	require.NoError(t, err)
	assert.Empty(t, values)
}
