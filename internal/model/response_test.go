package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		name         string
		page         int
		pageSize     int
		wantPage     int
		wantPageSize int
	}{
		{"defaults", 0, 0, 1, DefaultPageSize},
		{"negative page", -3, 20, 1, 20},
		{"oversized page size", 2, 1000, 2, MaxPageSize},
		{"page at limit", MaxPage, 10, MaxPage, 10},
		{"huge page clamped", math.MaxInt, MaxPageSize, MaxPage, MaxPageSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, pageSize := NormalizePage(tt.page, tt.pageSize, 0)

			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantPageSize, pageSize)
			assert.GreaterOrEqual(t, (page-1)*pageSize, 0)
		})
	}
}
