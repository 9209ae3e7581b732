package core

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/RecoveryAshes/PageTreeShot/internal/crawlers"
	"github.com/RecoveryAshes/PageTreeShot/internal/models"
	"github.com/RecoveryAshes/PageTreeShot/internal/render"
	"github.com/RecoveryAshes/PageTreeShot/internal/utils"
	"github.com/spf13/viper"
)

// Config 应用程序配置
type Config struct {
	Crawl       models.CrawlConfig `mapstructure:"crawl"`
	Output      models.OutputPaths `mapstructure:"output"`
	Render      RenderConfig       `mapstructure:"render"`
	Logging     LoggingConfig      `mapstructure:"logging"`
	Resource    ResourceConfig     `mapstructure:"resource"`
	Collect     CollectConfig      `mapstructure:"collect"`
	HeadersFile string             `mapstructure:"headers_file"`
}

// RenderConfig 包围盒绘制配置
type RenderConfig struct {
	Color     string  `mapstructure:"color"`
	LineWidth float64 `mapstructure:"line_width"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level    string         `mapstructure:"level"`
	LogDir   string         `mapstructure:"log_dir"`
	Console  bool           `mapstructure:"console"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig 日志轮转配置
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// ResourceConfig 资源监控配置
type ResourceConfig struct {
	AutoLimit           bool          `mapstructure:"auto_limit"`         // 按可用内存自动限制worker数
	SafetyReserveMemory int           `mapstructure:"safety_reserve_mb"`  // 系统保留内存(MB)
	BrowserMemory       int           `mapstructure:"browser_memory_mb"`  // 单个浏览器内存估算(MB)
	CPULoadThreshold    int           `mapstructure:"cpu_load_threshold"` // CPU告警阈值(%)
	MaxWorkersLimit     int           `mapstructure:"max_workers_limit"`  // worker绝对上限
	MonitorInterval     time.Duration `mapstructure:"monitor_interval"`   // 采样间隔, 0表示不监控
}

// CollectConfig collect 子命令配置
type CollectConfig struct {
	MaxPages    int           `mapstructure:"max_pages"`
	Depth       int           `mapstructure:"depth"`
	Parallelism int           `mapstructure:"parallelism"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// LoadConfig 加载配置文件, 文件不存在时使用默认值
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".pagetreeshot"))
		}
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	return &config, nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// 采集配置
	v.SetDefault("crawl.processes", 4)
	v.SetDefault("crawl.url_list", "")
	v.SetDefault("crawl.headless", true)
	v.SetDefault("crawl.nav_timeout", 60*time.Second)
	v.SetDefault("crawl.viewport_width", 1920)
	v.SetDefault("crawl.viewport_height", 1080)
	v.SetDefault("crawl.settle_timeout", 0)
	v.SetDefault("crawl.browser_bin", "")
	v.SetDefault("crawl.wait_time", 0)
	v.SetDefault("crawl.skip_existing", false)
	v.SetDefault("crawl.ignore_cert_errors", false)

	// 输出目录
	v.SetDefault("output.bbox_path", "checkboxes")
	v.SetDefault("output.screenshots", "screenshots")
	v.SetDefault("output.annotations", "annotations")

	// 绘制配置
	v.SetDefault("render.color", "#FF0000")
	v.SetDefault("render.line_width", 2)

	// 日志配置
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_dir", "logs")
	v.SetDefault("logging.console", false)
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)

	// 资源配置
	v.SetDefault("resource.auto_limit", false)
	v.SetDefault("resource.safety_reserve_mb", 1024)
	v.SetDefault("resource.browser_memory_mb", 300)
	v.SetDefault("resource.cpu_load_threshold", 90)
	v.SetDefault("resource.max_workers_limit", 16)
	v.SetDefault("resource.monitor_interval", 5*time.Second)

	// 收集配置
	v.SetDefault("collect.max_pages", 50)
	v.SetDefault("collect.depth", 1)
	v.SetDefault("collect.parallelism", 4)
	v.SetDefault("collect.timeout", 30*time.Second)

	v.SetDefault("headers_file", "configs/headers.yaml")
}

// Validate 验证配置
func (c *Config) Validate() error {
	if err := c.Crawl.Validate(); err != nil {
		return err
	}
	if err := c.RenderOptions().Validate(); err != nil {
		return err
	}
	for name, dir := range map[string]string{
		"bbox_path":   c.Output.BBoxPath,
		"screenshots": c.Output.Screenshots,
		"annotations": c.Output.Annotations,
	} {
		if dir == "" {
			return fmt.Errorf("输出目录 %s 不能为空", name)
		}
	}
	return nil
}

// CLIOverrides 命令行中显式设置的参数, nil 表示未设置
type CLIOverrides struct {
	Processes    *int
	URLList      *string
	BBoxPath     *string
	Screenshots  *string
	Annotations  *string
	Headless     *bool
	SkipExisting *bool
	WaitTime     *int
	LogLevel     *string
}

// MergeCLIFlags 合并命令行参数到配置, 命令行优先于配置文件
func (c *Config) MergeCLIFlags(o CLIOverrides) {
	if o.Processes != nil {
		c.Crawl.Processes = *o.Processes
	}
	if o.URLList != nil {
		c.Crawl.URLList = *o.URLList
	}
	if o.BBoxPath != nil {
		c.Output.BBoxPath = *o.BBoxPath
	}
	if o.Screenshots != nil {
		c.Output.Screenshots = *o.Screenshots
	}
	if o.Annotations != nil {
		c.Output.Annotations = *o.Annotations
	}
	if o.Headless != nil {
		c.Crawl.Headless = *o.Headless
	}
	if o.SkipExisting != nil {
		c.Crawl.SkipExisting = *o.SkipExisting
	}
	if o.WaitTime != nil {
		c.Crawl.WaitTime = *o.WaitTime
	}
	if o.LogLevel != nil && *o.LogLevel != "" {
		c.Logging.Level = *o.LogLevel
	}
}

// LogConfig 转换为日志系统配置
func (c *Config) LogConfig() utils.LogConfig {
	logConfig := utils.DefaultLogConfig()
	logConfig.Level = c.Logging.Level
	logConfig.LogDir = c.Logging.LogDir
	logConfig.Console = c.Logging.Console
	logConfig.MaxSize = c.Logging.Rotation.MaxSize
	logConfig.MaxBackups = c.Logging.Rotation.MaxBackups
	logConfig.MaxAge = c.Logging.Rotation.MaxAge
	logConfig.Compress = c.Logging.Rotation.Compress
	return logConfig
}

// RenderOptions 转换为绘制参数
func (c *Config) RenderOptions() render.Options {
	return render.Options{Color: c.Render.Color, LineWidth: c.Render.LineWidth}
}

// SessionOptions 转换为浏览器会话参数, headers 为合并后的页面请求头部
func (c *Config) SessionOptions(headers http.Header) crawlers.SessionOptions {
	userAgent, extra := models.BrowserHeaders(headers)
	return crawlers.SessionOptions{
		Headless:         c.Crawl.Headless,
		BrowserBin:       c.Crawl.BrowserBin,
		IgnoreCertErrors: c.Crawl.IgnoreCertErrors,
		NavTimeout:       c.Crawl.NavTimeout,
		ViewportWidth:    c.Crawl.ViewportWidth,
		ViewportHeight:   c.Crawl.ViewportHeight,
		SettleTimeout:    c.Crawl.SettleTimeout,
		WaitTime:         time.Duration(c.Crawl.WaitTime) * time.Second,
		UserAgent:        userAgent,
		ExtraHeaders:     extra,
	}
}

// ResourceMonitorConfig 转换为资源监控参数
func (c *Config) ResourceMonitorConfig() crawlers.ResourceMonitorConfig {
	return crawlers.ResourceMonitorConfig{
		SafetyReserveMemory: int64(c.Resource.SafetyReserveMemory) * 1024 * 1024,
		BrowserMemoryUsage:  int64(c.Resource.BrowserMemory) * 1024 * 1024,
		CPULoadThreshold:    c.Resource.CPULoadThreshold,
		MaxWorkersLimit:     c.Resource.MaxWorkersLimit,
	}
}

// CollectorOptions 转换为收集器参数
func (c *Config) CollectorOptions(headers http.Header) crawlers.CollectorOptions {
	return crawlers.CollectorOptions{
		MaxPages:         c.Collect.MaxPages,
		Depth:            c.Collect.Depth,
		Parallelism:      c.Collect.Parallelism,
		Timeout:          c.Collect.Timeout,
		IgnoreCertErrors: c.Crawl.IgnoreCertErrors,
		Headers:          headers,
	}
}
