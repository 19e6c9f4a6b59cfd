package util

import (
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// CompressRanges renders integers as a comma separated list where runs of
// consecutive values collapse into "start-end", e.g. [3 4 5 7] -> "3-5,7".
// Input order and duplicates do not matter.
func CompressRanges(values []int) string {
	if len(values) == 0 {
		return ""
	}
	sorted := lo.Uniq(values)
	sort.Ints(sorted)

	parts := make([]string, 0)
	flush := func(start, prev int) {
		if start == prev {
			parts = append(parts, strconv.Itoa(start))
		} else {
			parts = append(parts, strconv.Itoa(start)+"-"+strconv.Itoa(prev))
		}
	}

	start, prev := sorted[0], sorted[0]
	for _, v := range sorted[1:] {
		if v == prev+1 {
			prev = v
			continue
		}
		flush(start, prev)
		start, prev = v, v
	}
	flush(start, prev)
	return strings.Join(parts, ",")
}

// ExpandRanges is the inverse of CompressRanges and returns the sorted values.
func ExpandRanges(s string) ([]int, error) {
	values := make([]int, 0)
	if strings.TrimSpace(s) == "" {
		return values, nil
	}
	for _, part := range strings.Split(s, ",") {
		bounds := strings.SplitN(strings.TrimSpace(part), "-", 2)
		start, err := strconv.Atoi(bounds[0])
		if err != nil {
			return nil, errors.Wrapf(err, "invalid range start in %q", part)
		}
		end := start
		if len(bounds) == 2 {
			end, err = strconv.Atoi(bounds[1])
			if err != nil {
				return nil, errors.Wrapf(err, "invalid range end in %q", part)
			}
		}
		if end < start {
			return nil, errors.Errorf("descending range %q", part)
		}
		for v := start; v <= end; v++ {
			values = append(values, v)
		}
	}
	sort.Ints(values)
	return values, nil
}
