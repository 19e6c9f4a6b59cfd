package async

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapPreservesOrder(t *testing.T) {
	src := []int{5, 4, 3, 2, 1}
	res, err := Map(src, 2, func(i int) (int, error) {
		// later elements finish first
		time.Sleep(time.Duration(i) * time.Millisecond)
		return i * 10, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{50, 40, 30, 20, 10}, res)
}

func TestMapCollectsErrors(t *testing.T) {
	_, err := Map([]int{1, 2, 3}, 0, func(i int) (int, error) {
		if i%2 == 1 {
			return 0, errors.New("odd")
		}
		return i, nil
	})
	require.Error(t, err)
	var errs Errors
	require.True(t, errors.As(err, &errs))
	assert.Len(t, errs.E, 2)
	assert.Equal(t, "odd, odd", err.Error())
}

func TestFlatMap(t *testing.T) {
	res, err := FlatMap([]int{1, 2}, 1, func(i int) ([]int, error) {
		return []int{i, i}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 2, 2}, res)
}

func TestMapEmpty(t *testing.T) {
	res, err := Map([]string{}, 4, func(s string) (string, error) { return s, nil })
	require.NoError(t, err)
	assert.Empty(t, res)
}
