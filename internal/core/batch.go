package core

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/RecoveryAshes/PageTreeShot/internal/crawlers"
	"github.com/RecoveryAshes/PageTreeShot/internal/models"
	"github.com/RecoveryAshes/PageTreeShot/internal/utils"
)

// BatchRunner 把URL列表分发给固定数量的worker处理
type BatchRunner struct {
	config   *Config
	capturer Capturer
	monitor  *crawlers.ResourceMonitor

	// progress 进度条输出, nil 时为标准错误
	progress io.Writer
}

// NewBatchRunner 创建批处理器
func NewBatchRunner(config *Config, capturer Capturer) *BatchRunner {
	return &BatchRunner{
		config:   config,
		capturer: capturer,
	}
}

// SetResourceMonitor 设置资源监控器, 配置 auto_limit 时用于限制worker数量
func (br *BatchRunner) SetResourceMonitor(monitor *crawlers.ResourceMonitor) {
	br.monitor = monitor
}

// SetProgressWriter 设置进度条输出
func (br *BatchRunner) SetProgressWriter(w io.Writer) {
	br.progress = w
}

// Run 处理全部URL, 结果按完成顺序计入报告
// 单个URL的失败不会中断批处理; 只有输出目录无法创建或列表为空时返回错误
func (br *BatchRunner) Run(ctx context.Context, urls []string) (*models.BatchReport, error) {
	if len(urls) == 0 {
		return nil, utils.ErrEmptyURLList
	}

	output := br.config.Output
	if err := utils.PreparePaths(output.Dirs()...); err != nil {
		return nil, err
	}

	report := &models.BatchReport{
		RunID:     models.NewRunID(),
		URLList:   br.config.Crawl.URLList,
		StartTime: time.Now(),
		Total:     len(urls),
		Failures:  []models.FailedPage{},
		Output:    output,
		Config:    br.config.Crawl,
	}

	workers := br.workerCount(len(urls))
	utils.Infof("🚀 开始批处理: %d个URL, %d个worker (run=%s)", len(urls), workers, report.RunID)

	if br.monitor != nil && br.config.Resource.MonitorInterval > 0 {
		br.monitor.StartMonitoring(br.config.Resource.MonitorInterval)
		defer br.monitor.StopMonitoring()
	}

	worker := NewPageWorker(br.capturer, output, br.config.RenderOptions(), br.config.Crawl.SkipExisting)
	tasks := make(chan models.PageTask)
	results := make(chan *models.PageResult, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range tasks {
				results <- worker.Process(ctx, task)
			}
		}()
	}

	go func() {
		defer close(tasks)
		for i, u := range urls {
			select {
			case <-ctx.Done():
				utils.Warnf("⚠️ 批处理被中断, 剩余 %d 个URL未处理", len(urls)-i)
				return
			case tasks <- models.PageTask{Index: i, URL: u}:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	bar := utils.NewProgressBar(len(urls), "处理页面", br.progress)
	for result := range results {
		report.Record(result)
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	report.Finish()

	reportPath, err := utils.NewReporter(br.config.Logging.LogDir).SaveBatchReport(report)
	if err != nil {
		utils.Warnf("保存批处理报告失败: %v", err)
	} else {
		utils.Infof("📝 报告已保存: %s", reportPath)
	}

	br.printSummary(report)
	return report, nil
}

// workerCount 实际worker数量: 不超过URL数, auto_limit 时再按可用内存限制
func (br *BatchRunner) workerCount(total int) int {
	workers := br.config.Crawl.Processes
	if workers < 1 {
		workers = 1
	}
	if br.monitor != nil && br.config.Resource.AutoLimit {
		br.monitor.Sample()
		limited := br.monitor.RecommendWorkers(workers)
		if limited < workers {
			utils.Warnf("可用内存不足, worker数量从 %d 降为 %d", workers, limited)
			workers = limited
		}
	}
	if workers > total {
		workers = total
	}
	return workers
}

// printSummary 打印批处理摘要
func (br *BatchRunner) printSummary(report *models.BatchReport) {
	utils.Info("==================================================")
	utils.Info("📊 批处理摘要")
	utils.Info("==================================================")
	utils.Infof("总URL数: %d", report.Total)
	utils.Infof("✅ 成功: %d", report.Success)
	utils.Infof("⏭️  跳过: %d", report.Skipped)
	utils.Infof("❌ 失败: %d", report.Failed)
	utils.Infof("⏱️  总耗时: %.2f秒", report.Duration)
	utils.Info("==================================================")

	for _, failure := range report.Failures {
		utils.Debugf("  [%d] %s (%s): %s", failure.Index, failure.URL, failure.Status, failure.Error)
	}
}
