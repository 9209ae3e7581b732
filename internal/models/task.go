package models

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"
)

// PageStatus 单个URL的处理状态
type PageStatus string

const (
	PageStatusSuccess PageStatus = "success" // 三个产物均已写出
	PageStatusSkipped PageStatus = "skipped" // 按规则跳过(PDF/已存在)
	PageStatusFailed  PageStatus = "failed"  // 处理失败
)

// PageTask 一个待处理的URL及其在列表中的下标
type PageTask struct {
	Index int    `json:"index"`
	URL   string `json:"url"`
}

// PageResult 单个URL的处理结果,由处理它的worker创建,不与其他worker共享
type PageResult struct {
	Index          int           `json:"index"`
	URL            string        `json:"url"`
	Status         PageStatus    `json:"status"`
	Error          string        `json:"error,omitempty"`
	ScreenshotPath string        `json:"screenshot_path,omitempty"`
	AnnotationPath string        `json:"annotation_path,omitempty"`
	BBoxPath       string        `json:"bbox_path,omitempty"`
	NodeCount      int           `json:"node_count"`
	LeafCount      int           `json:"leaf_count"`
	PageWidth      int           `json:"page_width,omitempty"`  // 调整后的视口宽度 (页面滚动宽度)
	PageHeight     int           `json:"page_height,omitempty"` // 调整后的视口高度 (页面滚动高度)
	Duration       time.Duration `json:"duration"`
}

// Failed 构造失败结果
func (r *PageResult) Failed(err error) *PageResult {
	r.Status = PageStatusFailed
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// Skipped 构造跳过结果
func (r *PageResult) Skipped(reason string) *PageResult {
	r.Status = PageStatusSkipped
	r.Error = reason
	return r
}

// CrawlConfig 页面采集配置
type CrawlConfig struct {
	Processes        int           `mapstructure:"processes" json:"processes"`                 // worker数量 (默认:4)
	URLList          string        `mapstructure:"url_list" json:"url_list"`                   // URL列表文件路径或 "dummy"
	Headless         bool          `mapstructure:"headless" json:"headless"`                   // 无头模式 (默认:true)
	NavTimeout       time.Duration `mapstructure:"nav_timeout" json:"nav_timeout"`             // 导航超时 (默认:60s)
	ViewportWidth    int           `mapstructure:"viewport_width" json:"viewport_width"`       // 初始视口宽度 (默认:1920)
	ViewportHeight   int           `mapstructure:"viewport_height" json:"viewport_height"`     // 初始视口高度 (默认:1080)
	SettleTimeout    time.Duration `mapstructure:"settle_timeout" json:"settle_timeout"`       // 等待网络空闲的上限,0表示不等待
	WaitTime         int           `mapstructure:"wait_time" json:"wait_time"`                 // 调整视口后额外等待(秒)
	SkipExisting     bool          `mapstructure:"skip_existing" json:"skip_existing"`         // 三个产物都存在时跳过
	IgnoreCertErrors bool          `mapstructure:"ignore_cert_errors" json:"ignore_cert_errors"` // 跳过TLS证书校验
	BrowserBin       string        `mapstructure:"browser_bin" json:"browser_bin"`             // 浏览器可执行文件, 为空时自动查找或下载
}

// Validate 验证配置
func (c *CrawlConfig) Validate() error {
	if c.Processes < 1 || c.Processes > 64 {
		return fmt.Errorf("worker数量必须在1-64之间,当前值: %d", c.Processes)
	}
	if c.ViewportWidth < 1 || c.ViewportHeight < 1 {
		return fmt.Errorf("视口尺寸必须为正数,当前值: %dx%d", c.ViewportWidth, c.ViewportHeight)
	}
	if c.NavTimeout <= 0 {
		return fmt.Errorf("导航超时必须大于0,当前值: %s", c.NavTimeout)
	}
	if c.SettleTimeout < 0 {
		return fmt.Errorf("网络空闲等待时间不能为负数,当前值: %s", c.SettleTimeout)
	}
	if c.WaitTime < 0 || c.WaitTime > 60 {
		return fmt.Errorf("等待时间必须在0-60秒之间,当前值: %d", c.WaitTime)
	}
	return nil
}

// OutputPaths 三类产物的输出目录
type OutputPaths struct {
	BBoxPath    string `mapstructure:"bbox_path" json:"bbox_path"`
	Screenshots string `mapstructure:"screenshots" json:"screenshots"`
	Annotations string `mapstructure:"annotations" json:"annotations"`
}

// Dirs 返回所有输出目录
func (o OutputPaths) Dirs() []string {
	return []string{o.BBoxPath, o.Screenshots, o.Annotations}
}

// ScreenshotFile 第index个URL的截图路径
func (o OutputPaths) ScreenshotFile(index int) string {
	return filepath.Join(o.Screenshots, strconv.Itoa(index)+".png")
}

// AnnotationFile 第index个URL的元素树路径
func (o OutputPaths) AnnotationFile(index int) string {
	return filepath.Join(o.Annotations, strconv.Itoa(index)+".json")
}

// BBoxFile 第index个URL的包围盒可视化路径
func (o OutputPaths) BBoxFile(index int) string {
	return filepath.Join(o.BBoxPath, strconv.Itoa(index)+".png")
}
