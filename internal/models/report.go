package models

import (
	"time"
)

// BatchReport 一次批处理运行的报告
type BatchReport struct {
	// 运行信息
	RunID   string `json:"run_id"`
	URLList string `json:"url_list"`

	// 时间信息
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Duration  float64   `json:"duration"` // 秒

	// 统计信息
	Total   int `json:"total"`
	Success int `json:"success"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`

	// 未成功的URL
	Failures []FailedPage `json:"failures"`

	// 配置快照
	Output OutputPaths `json:"output"`
	Config CrawlConfig `json:"config"`
}

// FailedPage 未成功处理的URL
type FailedPage struct {
	Index  int        `json:"index"`
	URL    string     `json:"url"`
	Status PageStatus `json:"status"`
	Error  string     `json:"error"`
}

// Record 计入一个结果
func (r *BatchReport) Record(result *PageResult) {
	switch result.Status {
	case PageStatusSuccess:
		r.Success++
		return
	case PageStatusSkipped:
		r.Skipped++
	default:
		r.Failed++
	}
	r.Failures = append(r.Failures, FailedPage{
		Index:  result.Index,
		URL:    result.URL,
		Status: result.Status,
		Error:  result.Error,
	})
}

// Finish 记录结束时间
func (r *BatchReport) Finish() {
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime).Seconds()
}
