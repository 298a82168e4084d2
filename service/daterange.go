package service

import (
	"time"

	"gorm.io/gorm"
)

// DateRange 闭区间日期范围，任一端为 nil 表示该侧不限
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

// NewDateRange 零值时间视为不限
func NewDateRange(start, end time.Time) DateRange {
	var r DateRange
	if !start.IsZero() {
		r.Start = &start
	}
	if !end.IsZero() {
		r.End = &end
	}
	return r
}

// Apply 将范围条件追加到查询，结束日期包含当天
func (r DateRange) Apply(q *gorm.DB, column string) *gorm.DB {
	if r.Start != nil {
		q = q.Where(column+" >= ?", startOfDay(*r.Start))
	}
	if r.End != nil {
		q = q.Where(column+" <= ?", endOfDay(*r.End))
	}
	return q
}

// Validate 开始日期不能晚于结束日期
func (r DateRange) Validate() error {
	if r.Start != nil && r.End != nil && startOfDay(*r.Start).After(endOfDay(*r.End)) {
		return ValidationError("开始日期不能晚于结束日期")
	}
	return nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999999999, t.Location())
}
