package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/RecoveryAshes/PageTreeShot/internal/core"
	"github.com/RecoveryAshes/PageTreeShot/internal/crawlers"
	"github.com/RecoveryAshes/PageTreeShot/internal/utils"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// 命令行参数
var (
	// 全局参数
	configFile string
	verbose    bool
	logLevel   string

	// HTTP头部参数
	headers        []string // 自定义HTTP请求头
	validateConfig bool     // 验证配置文件

	// 批处理参数
	processes      int
	urlList        string
	bboxPath       string
	screenshotsDir string
	annotationsDir string
	headless       bool
	skipExisting   bool
	waitTime       int

	// collect 参数
	seedURL      string
	maxPages     int
	collectDepth int
	collectOut   string
)

// appConfig 在 PersistentPreRunE 中加载, 已合并命令行参数
var appConfig *core.Config

var rootCmd = &cobra.Command{
	Use:   "pagetreeshot",
	Short: "网页元素树与整页截图批量采集工具",
	Long: `PageTreeShot - 网页元素树与整页截图批量采集工具

对URL列表中的每个页面:
  • 以 1920x1080 视口打开, 调整为整页尺寸
  • 提取可见元素树 (xpath + 包围盒) 保存为 annotations/<i>.json
  • 截取整页截图保存为 screenshots/<i>.png
  • 在截图上绘制叶子节点包围盒保存为 checkboxes/<i>.png

示例:
  # 使用内置测试列表
  pagetreeshot --url_list dummy

  # 8个worker处理URL文件
  pagetreeshot --url_list urls.json --processes 8

  # 从种子页面收集同站点URL
  pagetreeshot collect --seed https://www.example.com --max 100 --out urls.json

  # 自定义请求头
  pagetreeshot --url_list urls.txt -H "User-Agent: MyBot/1.0" -H "Cookie: a=b"

版本: ` + Version + `
构建时间: ` + BuildTime,
	Version:      Version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		// 命令行参数覆盖配置文件
		config.MergeCLIFlags(cliOverrides(cmd))

		logConfig := config.LogConfig()
		if verbose {
			logConfig.Console = true
		}
		if err := utils.InitLogger(logConfig); err != nil {
			return fmt.Errorf("初始化日志系统失败: %w", err)
		}

		if verbose {
			utils.Info("详细模式已启用")
		}

		appConfig = config
		return nil
	},
	RunE: runBatch,
}

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "从种子页面收集同站点URL, 生成URL列表",
	RunE:  runCollect,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("PageTreeShot %s\n", Version)
		fmt.Printf("构建时间: %s\n", BuildTime)
	},
}

// cliOverrides 只收集用户显式设置的参数
func cliOverrides(cmd *cobra.Command) core.CLIOverrides {
	flags := cmd.Flags()
	var o core.CLIOverrides
	if flags.Changed("processes") {
		o.Processes = &processes
	}
	if flags.Changed("url_list") {
		o.URLList = &urlList
	}
	if flags.Changed("bbox_path") {
		o.BBoxPath = &bboxPath
	}
	if flags.Changed("screenshots") {
		o.Screenshots = &screenshotsDir
	}
	if flags.Changed("annotations") {
		o.Annotations = &annotationsDir
	}
	if flags.Changed("headless") {
		o.Headless = &headless
	}
	if flags.Changed("skip-existing") {
		o.SkipExisting = &skipExisting
	}
	if flags.Changed("wait") {
		o.WaitTime = &waitTime
	}
	if logLevel != "" {
		o.LogLevel = &logLevel
	}
	return o
}

// signalContext Ctrl+C 取消批处理: 未开始的URL不再处理
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newHeaderManager() (*core.HeaderManager, error) {
	headerManager, err := core.NewHeaderManager(appConfig.HeadersFile, headers)
	if err != nil {
		return nil, fmt.Errorf("创建HTTP头部管理器失败: %w", err)
	}
	return headerManager, nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	headerManager, err := newHeaderManager()
	if err != nil {
		return err
	}

	if validateConfig {
		return runValidateConfig(headerManager)
	}

	// 未指定URL列表属于致命配置错误, 记录日志后返回非零退出码
	if err := ValidateFlags(appConfig); err != nil {
		utils.Error(err, "参数验证失败")
		return err
	}

	pageHeaders, err := headerManager.GetHeaders()
	if err != nil {
		return fmt.Errorf("加载HTTP头部失败: %w", err)
	}
	utils.Debugf("页面请求头部: %s", utils.NewHeaderRedactor().RedactToString(pageHeaders))

	urls, err := utils.LoadURLList(appConfig.Crawl.URLList)
	if err != nil {
		utils.Error(err, "加载URL列表失败")
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	runner := core.NewBatchRunner(appConfig, crawlers.NewPageCapturer(appConfig.SessionOptions(pageHeaders)))
	runner.SetResourceMonitor(crawlers.NewResourceMonitor(appConfig.ResourceMonitorConfig()))

	report, err := runner.Run(ctx, urls)
	if err != nil {
		utils.Error(err, "批处理失败")
		return err
	}

	fmt.Printf("✅ 成功 %d, ⏭️ 跳过 %d, ❌ 失败 %d (共 %d, 耗时 %.2f秒)\n",
		report.Success, report.Skipped, report.Failed, report.Total, report.Duration)
	utils.Info("✨ 批处理任务完成!")
	return nil
}

func runValidateConfig(headerManager *core.HeaderManager) error {
	utils.Info("🔍 验证配置...")
	if err := appConfig.Validate(); err != nil {
		return fmt.Errorf("配置验证失败: %w", err)
	}
	if err := headerManager.LoadConfig(); err != nil {
		return fmt.Errorf("加载头部配置失败: %w", err)
	}
	if err := headerManager.Validate(); err != nil {
		return fmt.Errorf("头部配置验证失败: %w", err)
	}

	safeHeaders := headerManager.GetSafeHeaders()
	fmt.Println("✅ 配置验证通过!")
	fmt.Printf("当前有效的HTTP头部 (%d个):\n", len(safeHeaders))
	for name, value := range safeHeaders {
		fmt.Printf("  %s: %s\n", name, value)
	}
	return nil
}

func runCollect(cmd *cobra.Command, args []string) error {
	seed, err := NormalizeURL(seedURL)
	if err != nil {
		return fmt.Errorf("无效的种子URL: %w", err)
	}

	opts := appConfig.CollectorOptions(nil)
	if cmd.Flags().Changed("max") {
		opts.MaxPages = maxPages
	}
	if cmd.Flags().Changed("depth") {
		opts.Depth = collectDepth
	}
	if err := ValidateCollectFlags(seed, opts.MaxPages, opts.Depth, collectOut); err != nil {
		return err
	}

	headerManager, err := newHeaderManager()
	if err != nil {
		return err
	}
	opts.Headers, err = core.CollectorHeaders(headerManager)
	if err != nil {
		return fmt.Errorf("加载HTTP头部失败: %w", err)
	}

	ctx, stop := signalContext()
	defer stop()

	pages, err := crawlers.NewCollector(opts).Collect(ctx, seed)
	if err != nil {
		utils.Error(err, "收集URL失败")
		return err
	}

	if err := utils.SaveURLList(collectOut, pages); err != nil {
		return err
	}
	fmt.Printf("✅ 已保存 %d 个URL到 %s\n", len(pages), collectOut)
	utils.Infof("📝 URL列表已保存: %s (%d个)", collectOut, len(pages))
	return nil
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "配置文件路径")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "详细输出模式(日志同时输出到终端)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (trace|debug|info|warn|error)")

	// HTTP头部参数
	rootCmd.PersistentFlags().StringSliceVarP(&headers, "header", "H", []string{}, "自定义HTTP头部,格式: 'Name: Value',可多次指定")
	rootCmd.Flags().BoolVar(&validateConfig, "validate-config", false, "验证配置文件正确性")

	// 批处理参数
	rootCmd.Flags().IntVar(&processes, "processes", 4, "并行worker数量 (1-64)")
	rootCmd.Flags().StringVar(&urlList, "url_list", "", "URL列表文件 (.json/.yaml/.txt) 或 dummy")
	rootCmd.Flags().StringVar(&bboxPath, "bbox_path", "checkboxes", "包围盒可视化输出目录")
	rootCmd.Flags().StringVar(&screenshotsDir, "screenshots", "screenshots", "整页截图输出目录")
	rootCmd.Flags().StringVar(&annotationsDir, "annotations", "annotations", "元素树JSON输出目录")
	rootCmd.Flags().BoolVar(&headless, "headless", true, "无头浏览器模式")
	rootCmd.Flags().BoolVar(&skipExisting, "skip-existing", false, "三个产物都已存在时跳过")
	rootCmd.Flags().IntVarP(&waitTime, "wait", "w", 0, "调整视口后额外等待时间(秒)")

	// collect 参数
	collectCmd.Flags().StringVar(&seedURL, "seed", "", "种子URL (必需)")
	collectCmd.Flags().IntVar(&maxPages, "max", 50, "最多收集的页面数")
	collectCmd.Flags().IntVar(&collectDepth, "depth", 1, "链接层数 (0-5)")
	collectCmd.Flags().StringVarP(&collectOut, "out", "o", "urls.json", "输出的URL列表文件")
	_ = collectCmd.MarkFlagRequired("seed")

	// 添加子命令
	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
