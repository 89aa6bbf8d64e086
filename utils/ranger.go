package utils

import (
	"fmt"
	"strconv"
	"strings"
)

func ParseDim(dimI interface{}, max int) (i1, i2 int) {
	/*
		Converts phrases including:
			":"   = full range, from 0 to max (loop indexing)
			"end" = last index, from max-1, max
			"N"   = middle index, from N-1, N
		   	N     = middle index, from N-1, N
		    "2:N" = range, from 2 to N (loop indexing)
		   	":N"  = range, from 0 to N (loop indexing)
		   	"N:"  = range, from N to max-1 (loop indexing)
	*/
	switch dim := dimI.(type) {
	case string:
		switch strings.TrimSpace(dim) {
		case "end":
			i1, i2 = max-1, max
		case ":":
			i1, i2 = 0, max
		default:
			i1, i2 = parseRange(strings.TrimSpace(dim), max)
		}
	case int:
		i1, i2 = dim, dim+1
	}
	return
}

func parseRange(dim string, max int) (i1, i2 int) {
	var (
		splits = strings.Split(dim, ":")
		err    error
	)
	if i1, err = strconv.Atoi(strings.TrimSpace(splits[0])); err != nil {
		i1 = 0
	}
	if len(splits) == 1 {
		i2 = i1 + 1
		return
	}
	if i2, err = strconv.Atoi(strings.TrimSpace(splits[1])); err != nil {
		i2 = max
	}
	if i2 == i1 {
		i2 = i1 + 1
	}
	return
}

// ParseWindow is ParseDim for ranges given by a user, every bound present in
// "N", "N:M", ":M" or "N:" must be an integer.
func ParseWindow(window string, max int) (i1, i2 int, err error) {
	w := strings.TrimSpace(window)
	switch w {
	case "":
		return 0, 0, fmt.Errorf("empty range")
	case ":", "end":
	default:
		splits := strings.Split(w, ":")
		if len(splits) > 2 {
			return 0, 0, fmt.Errorf("invalid range %q, expected N:M", window)
		}
		for _, b := range splits {
			if b = strings.TrimSpace(b); len(b) == 0 {
				continue
			}
			if _, err = strconv.Atoi(b); err != nil {
				return 0, 0, fmt.Errorf("invalid range %q, bound %q is not an integer", window, b)
			}
		}
	}
	i1, i2 = ParseDim(w, max)
	return
}
