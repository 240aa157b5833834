package utils

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPaginationParams(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		query  string
		page   int
		limit  int
		offset int
	}{
		{"", 1, 20, 0},
		{"?page=3&limit=10", 3, 10, 20},
		{"?page=0&limit=500", 1, 20, 0},
		{"?page=abc&limit=-2", 1, 20, 0},
	}
	for _, tt := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/api/clients"+tt.query, nil)
		p := GetPaginationParams(c)
		assert.Equal(t, tt.page, p.Page, tt.query)
		assert.Equal(t, tt.limit, p.Limit, tt.query)
		assert.Equal(t, tt.offset, p.Offset, tt.query)
	}
}

func TestIsUUID(t *testing.T) {
	assert.True(t, IsUUID("3f2b8c1e-9a4d-4e2b-8f1a-0c9d8e7f6a5b"))
	assert.True(t, IsUUID("3F2B8C1E-9A4D-4E2B-8F1A-0C9D8E7F6A5B"))
	assert.False(t, IsUUID("client-1"))
	assert.False(t, IsUUID("3f2b8c1e9a4d4e2b8f1a0c9d8e7f6a5b"))
	assert.False(t, IsUUID(""))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), *d)

	d, err = ParseDate("2024-03-01T10:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, 10, d.Hour())

	d, err = ParseDate("")
	require.NoError(t, err)
	assert.Nil(t, d)

	_, err = ParseDate("03/01/2024")
	assert.Error(t, err)
}

func TestRoundCents(t *testing.T) {
	assert.Equal(t, 10.13, RoundCents(10.125000001))
	assert.Equal(t, 99.99, RoundCents(99.994))
	assert.Equal(t, 0.0, RoundCents(0))
}

func TestParseSkills(t *testing.T) {
	assert.Equal(t, []string{"video", "seo", "copywriting"}, ParseSkills(" video, seo ,,copywriting, "))
	assert.Equal(t, []string{}, ParseSkills(""))
}
