package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/RecoveryAshes/PageTreeShot/internal/crawlers"
	"github.com/RecoveryAshes/PageTreeShot/internal/dom"
	"github.com/RecoveryAshes/PageTreeShot/internal/models"
	"github.com/RecoveryAshes/PageTreeShot/internal/render"
	"github.com/RecoveryAshes/PageTreeShot/internal/utils"
)

var (
	// ErrPDFURL URL指向PDF文档, 不做处理
	ErrPDFURL = errors.New("PDF链接不支持处理")

	// ErrEmptyTree 页面没有提取到元素树
	ErrEmptyTree = errors.New("未提取到元素树")

	// ErrInvalidTree 元素树不满足结构约束
	ErrInvalidTree = errors.New("元素树结构无效")
)

// Capturer 打开一个URL并返回元素树和整页截图
type Capturer interface {
	Capture(ctx context.Context, pageURL string) (*crawlers.Capture, error)
}

// PageWorker 处理单个URL: 采集 -> 序列化 -> 绘制包围盒 -> 写出三个产物
type PageWorker struct {
	capturer     Capturer
	output       models.OutputPaths
	render       render.Options
	skipExisting bool
}

// NewPageWorker 创建页面处理器
func NewPageWorker(capturer Capturer, output models.OutputPaths, opts render.Options, skipExisting bool) *PageWorker {
	return &PageWorker{
		capturer:     capturer,
		output:       output,
		render:       opts,
		skipExisting: skipExisting,
	}
}

// Process 处理一个URL, 任何错误(包括panic)都转为结果返回, 不影响其他URL
func (w *PageWorker) Process(ctx context.Context, task models.PageTask) (result *models.PageResult) {
	start := time.Now()
	result = &models.PageResult{Index: task.Index, URL: task.URL}
	defer func() {
		if r := recover(); r != nil {
			utils.Errorf("处理URL时发生panic [%d] %s: %v", task.Index, task.URL, r)
			result.Failed(fmt.Errorf("panic: %v", r))
		}
		result.Duration = time.Since(start)
	}()

	if models.IsPDFURL(task.URL) {
		utils.Errorf("跳过PDF链接 (index %d): %s", task.Index, task.URL)
		return result.Skipped(ErrPDFURL.Error())
	}

	if w.skipExisting && w.outputsExist(task.Index) {
		utils.Debugf("产物已存在,跳过 [%d] %s", task.Index, task.URL)
		return result.Skipped("产物已存在")
	}

	if err := ctx.Err(); err != nil {
		return result.Failed(err)
	}

	utils.Infof("🌐 开始处理 [%d]: %s", task.Index, task.URL)

	capture, err := w.capturer.Capture(ctx, task.URL)
	if err != nil {
		if errors.Is(err, crawlers.ErrNoBody) {
			err = ErrEmptyTree
		}
		utils.Errorf("处理URL失败 [%d] %s: %v", task.Index, task.URL, err)
		return result.Failed(err)
	}
	if capture == nil || capture.Tree == nil {
		utils.Errorf("处理URL失败 [%d] %s: %v", task.Index, task.URL, ErrEmptyTree)
		return result.Failed(ErrEmptyTree)
	}

	if err := capture.Tree.Validate(); err != nil {
		utils.Errorf("元素树结构无效 [%d] %s: %v", task.Index, task.URL, err)
		return result.Failed(fmt.Errorf("%w: %v", ErrInvalidTree, err))
	}

	// 先在内存中生成全部产物, 全部成功后再落盘
	annotation, err := capture.Tree.MarshalIndented()
	if err != nil {
		utils.Errorf("序列化元素树失败 [%d] %s: %v", task.Index, task.URL, err)
		return result.Failed(err)
	}
	bbox, err := render.Annotate(capture.Screenshot, capture.Tree, w.render)
	if err != nil {
		utils.Errorf("绘制包围盒失败 [%d] %s: %v", task.Index, task.URL, err)
		return result.Failed(err)
	}

	files := []struct {
		path string
		data []byte
	}{
		{w.output.ScreenshotFile(task.Index), capture.Screenshot},
		{w.output.AnnotationFile(task.Index), annotation},
		{w.output.BBoxFile(task.Index), bbox},
	}
	for i, f := range files {
		if err := os.WriteFile(f.path, f.data, 0644); err != nil {
			for _, written := range files[:i] {
				_ = os.Remove(written.path)
			}
			utils.Errorf("写入文件失败 [%d] %s: %v", task.Index, f.path, err)
			return result.Failed(fmt.Errorf("写入 %s 失败: %w", f.path, err))
		}
	}

	result.Status = models.PageStatusSuccess
	result.ScreenshotPath = files[0].path
	result.AnnotationPath = files[1].path
	result.BBoxPath = files[2].path
	result.NodeCount = capture.Tree.Count()
	result.LeafCount = len(dom.Leaves(capture.Tree))
	result.PageWidth = capture.PageWidth
	result.PageHeight = capture.PageHeight

	utils.Infof("✅ 处理完成 [%d]: %s (节点 %d, 叶子 %d, 页面 %dx%d)",
		task.Index, task.URL, result.NodeCount, result.LeafCount, result.PageWidth, result.PageHeight)
	return result
}

func (w *PageWorker) outputsExist(index int) bool {
	return utils.FileExists(w.output.ScreenshotFile(index)) &&
		utils.FileExists(w.output.AnnotationFile(index)) &&
		utils.FileExists(w.output.BBoxFile(index))
}
