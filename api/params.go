package api

import (
	"strconv"
	"time"

	"wallet/service"

	"github.com/gin-gonic/gin"
)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// parseID 解析路径参数中的正整数 ID
func parseID(c *gin.Context, name string) (uint, error) {
	return parseUint(c.Param(name), name)
}

func parseUint(value, name string) (uint, error) {
	id, err := strconv.ParseUint(value, 10, 64)
	if err != nil || id == 0 {
		return 0, service.ValidationError("无效的 %s", name)
	}
	return uint(id), nil
}

// parseDate 支持 2006-01-02 / RFC3339 / 2006-01-02 15:04:05，空字符串返回零值
func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, service.ValidationError("日期格式错误: %s", value)
}

// parseDateRange 读取 startDate / endDate 查询参数（均含当天）
func parseDateRange(c *gin.Context) (service.DateRange, error) {
	start, err := parseDate(c.Query("startDate"))
	if err != nil {
		return service.DateRange{}, err
	}
	end, err := parseDate(c.Query("endDate"))
	if err != nil {
		return service.DateRange{}, err
	}
	r := service.NewDateRange(start, end)
	if err := r.Validate(); err != nil {
		return service.DateRange{}, err
	}
	return r, nil
}

// parsePage 分页参数，page 从 1 开始，pageSize 上限 100
func parsePage(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
