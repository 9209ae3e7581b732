package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/RecoveryAshes/PageTreeShot/internal/core"
	"github.com/RecoveryAshes/PageTreeShot/internal/crawlers"
	"github.com/go-rod/rod/lib/launcher"
)

// 运行环境检查: go run ./scripts
func main() {
	fmt.Println("==============================================")
	fmt.Println("  PageTreeShot 环境验证")
	fmt.Println("==============================================")
	fmt.Println()

	allOK := true

	fmt.Printf("✅ Go版本: %s\n", runtime.Version())
	fmt.Printf("✅ 操作系统: %s/%s\n", runtime.GOOS, runtime.GOARCH)

	// 浏览器: 本地没有时 rod 会在首次启动时自动下载
	if path, found := launcher.LookPath(); found {
		fmt.Printf("✅ Chromium: %s\n", path)
	} else {
		fmt.Println("⚠️  未找到本地Chromium - 首次运行时会自动下载")
	}

	// 配置
	fmt.Println()
	fmt.Println("检查配置...")
	config, err := core.LoadConfig("")
	if err != nil {
		fmt.Printf("❌ 加载配置失败: %v\n", err)
		os.Exit(1)
	}
	if err := config.Validate(); err != nil {
		fmt.Printf("❌ 配置无效: %v\n", err)
		allOK = false
	} else {
		fmt.Printf("✅ 配置有效 (worker=%d, 视口=%dx%d, 导航超时=%s)\n",
			config.Crawl.Processes, config.Crawl.ViewportWidth, config.Crawl.ViewportHeight, config.Crawl.NavTimeout)
	}

	// 内存: 按每个浏览器的估算检查配置的worker数量
	monitor := crawlers.NewResourceMonitor(config.ResourceMonitorConfig())
	status := monitor.Status()
	fmt.Printf("✅ 可用内存: %.2f GB / %.2f GB\n",
		float64(status.AvailableMemory)/(1024*1024*1024), float64(status.TotalMemory)/(1024*1024*1024))
	if recommended := monitor.RecommendWorkers(config.Crawl.Processes); recommended < config.Crawl.Processes {
		fmt.Printf("⚠️  可用内存只够 %d 个浏览器, 建议 --processes %d 或开启 resource.auto_limit\n", recommended, recommended)
	}

	// 输出目录可写
	fmt.Println()
	fmt.Println("检查输出目录...")
	for _, dir := range append(config.Output.Dirs(), config.Logging.LogDir) {
		if err := checkWritable(dir); err != nil {
			fmt.Printf("❌ %s/ 不可写: %v\n", dir, err)
			allOK = false
		} else {
			fmt.Printf("✅ %s/\n", dir)
		}
	}

	fmt.Println()
	fmt.Println("==============================================")
	if allOK {
		fmt.Println("✅ 环境验证通过!")
		fmt.Println()
		fmt.Println("下一步:")
		fmt.Println("  go run ./cmd/pagetreeshot --url_list dummy")
		os.Exit(0)
	}
	fmt.Println("❌ 环境验证失败,请解决上述问题。")
	os.Exit(1)
}

// checkWritable 创建目录并写入一个临时文件
func checkWritable(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	testFile := filepath.Join(dir, ".write_test")
	if err := os.WriteFile(testFile, []byte("ok"), 0644); err != nil {
		return err
	}
	return os.Remove(testFile)
}
