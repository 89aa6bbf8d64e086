package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRanger(t *testing.T) {
	var (
		i1, i2 int
	)
	// Dimension parsing
	{
		i1, i2 = ParseDim(":", 10)
		assert.Equal(t, 0, i1)
		assert.Equal(t, 10, i2)
		i1, i2 = ParseDim(":5", 10)
		assert.Equal(t, 0, i1)
		assert.Equal(t, 5, i2)
		i1, i2 = ParseDim("5:5", 10)
		assert.Equal(t, 5, i1)
		assert.Equal(t, 6, i2)
		i1, i2 = ParseDim(4, 10)
		assert.Equal(t, 4, i1)
		assert.Equal(t, 5, i2)
		i1, i2 = ParseDim("2", 10)
		assert.Equal(t, 2, i1)
		assert.Equal(t, 3, i2)
	}
	// Iteration windows
	{
		i1, i2 = ParseDim("30:50", 60)
		assert.Equal(t, 30, i1)
		assert.Equal(t, 50, i2)
		i1, i2 = ParseDim(" 30 : ", 60)
		assert.Equal(t, 30, i1)
		assert.Equal(t, 60, i2)
		i1, i2 = ParseDim("end", 60)
		assert.Equal(t, 59, i1)
		assert.Equal(t, 60, i2)
	}
	// Strict windows
	{
		var err error
		i1, i2, err = ParseWindow(" 30 : ", 60)
		assert.NoError(t, err)
		assert.Equal(t, 30, i1)
		assert.Equal(t, 60, i2)
		for _, w := range []string{"", "30-50", "abc", "30..50", "1:2:3"} {
			_, _, err = ParseWindow(w, 60)
			assert.Error(t, err, w)
		}
	}
}
