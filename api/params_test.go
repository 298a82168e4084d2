package api

import (
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"wallet/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		err  bool
	}{
		{"", time.Time{}, false},
		{"2024-03-05", time.Date(2024, 3, 5, 0, 0, 0, 0, time.Local), false},
		{"2024-03-05 18:30:00", time.Date(2024, 3, 5, 18, 30, 0, 0, time.Local), false},
		{"2024-03-05T18:30:00Z", time.Date(2024, 3, 5, 18, 30, 0, 0, time.UTC), false},
		{"05/03/2024", time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseDate(tt.in)
			if tt.err {
				assert.ErrorIs(t, err, service.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v", got)
		})
	}
}

func TestParsePage(t *testing.T) {
	tests := []struct {
		query          string
		page, pageSize int
	}{
		{"", 1, 20},
		{"?page=3&page_size=50", 3, 50},
		{"?page=0&page_size=500", 1, 20},
		{"?page=x&page_size=-1", 1, 20},
	}
	for _, tt := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/"+tt.query, nil)
		page, size := parsePage(c)
		assert.Equal(t, tt.page, page, tt.query)
		assert.Equal(t, tt.pageSize, size, tt.query)
	}
}

func TestParseUint(t *testing.T) {
	id, err := parseUint("42", "id")
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	for _, bad := range []string{"", "0", "-1", "abc"} {
		_, err := parseUint(bad, "id")
		assert.ErrorIs(t, err, service.ErrValidation, bad)
	}
}

func TestRespondError_StatusMapping(t *testing.T) {
	tests := []struct {
		err     error
		code    int
		message string
	}{
		{service.ValidationError("名称不能为空"), 400, "名称不能为空"},
		{service.InsufficientFundsError("余额不足"), 400, "余额不足"},
		{service.NotFoundError("账户不存在"), 404, "账户不存在"},
		{fmt.Errorf("wrap: %w", service.NotFoundError("交易不存在")), 404, "交易不存在"},
		{errors.New("dial tcp 10.0.0.1:3306: connection refused"), 500, "操作失败"},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("GET", "/", nil)
		RespondError(c, tt.err, "操作失败")

		assert.Equal(t, tt.code, w.Code)
		resp := decodeBody(t, w)
		assert.Equal(t, float64(tt.code), resp["code"])
		if tt.code != 500 {
			assert.Equal(t, tt.message, resp["message"])
		}
	}
}
