package crawlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RecoveryAshes/PageTreeShot/internal/dom"
	"github.com/RecoveryAshes/PageTreeShot/internal/models"
	"github.com/RecoveryAshes/PageTreeShot/internal/utils"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// ErrNoBody 页面没有 document.body, 无法提取元素树
var ErrNoBody = errors.New("页面没有body,未提取到元素树")

// SessionOptions 浏览器会话参数
type SessionOptions struct {
	Headless         bool
	IgnoreCertErrors bool
	BrowserBin       string        // 为空时由launcher查找或下载
	NavTimeout       time.Duration // 导航+首次加载的超时
	ViewportWidth    int
	ViewportHeight   int
	SettleTimeout    time.Duration // 调整视口后等待网络空闲的上限, 0表示不等待
	WaitTime         time.Duration // 调整视口后的固定等待
	UserAgent        string
	ExtraHeaders     []string // name, value, name, value...
}

// Capture 一次页面采集的产物
type Capture struct {
	Tree       *models.Node
	Screenshot []byte // 整页PNG
	PageWidth  int
	PageHeight int
}

// PageCapturer 每次采集都启动一个独立的浏览器, 采集结束后关闭
type PageCapturer struct {
	opts SessionOptions
}

// NewPageCapturer 创建采集器
func NewPageCapturer(opts SessionOptions) *PageCapturer {
	if opts.NavTimeout <= 0 {
		opts.NavTimeout = 60 * time.Second
	}
	if opts.ViewportWidth <= 0 {
		opts.ViewportWidth = 1920
	}
	if opts.ViewportHeight <= 0 {
		opts.ViewportHeight = 1080
	}
	return &PageCapturer{opts: opts}
}

// Capture 打开页面, 提取元素树并截取整页截图
//
// 流程: 导航 -> 等待load -> 视口调整为滚动尺寸 -> 再次等待 -> 提取 -> 截图
func (pc *PageCapturer) Capture(ctx context.Context, pageURL string) (*Capture, error) {
	browser, cleanup, err := pc.launch(ctx)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("创建页面失败: %w", err)
	}
	defer page.Close()

	if err := pc.setViewport(page, pc.opts.ViewportWidth, pc.opts.ViewportHeight); err != nil {
		return nil, err
	}
	if err := pc.applyHeaders(page); err != nil {
		return nil, err
	}

	if err := pc.navigate(page, pageURL); err != nil {
		return nil, err
	}

	width, height, err := dom.ScrollSize(page)
	if err != nil {
		return nil, err
	}
	utils.Debugf("页面滚动尺寸: %dx%d [%s]", width, height, pageURL)
	if width > 0 && height > 0 {
		if err := pc.setViewport(page, width, height); err != nil {
			return nil, err
		}
	}
	if err := pc.waitLoad(page); err != nil {
		return nil, fmt.Errorf("调整视口后等待加载失败: %w", err)
	}
	pc.settle(ctx, page)

	tree, err := dom.Extract(page)
	if err != nil {
		return nil, err
	}
	if tree == nil {
		return nil, ErrNoBody
	}

	shot, err := page.Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, fmt.Errorf("截图失败: %w", err)
	}

	return &Capture{
		Tree:       tree,
		Screenshot: shot,
		PageWidth:  width,
		PageHeight: height,
	}, nil
}

// launch 启动并连接浏览器, 返回的 cleanup 关闭浏览器并清理用户数据目录
func (pc *PageCapturer) launch(ctx context.Context) (*rod.Browser, func(), error) {
	l := launcher.New().Context(ctx).Headless(pc.opts.Headless)
	if pc.opts.BrowserBin != "" {
		l = l.Bin(pc.opts.BrowserBin)
	}
	if pc.opts.IgnoreCertErrors {
		l = l.Set("ignore-certificate-errors")
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, nil, fmt.Errorf("启动浏览器失败: %w", err)
	}

	browser := rod.New().Context(ctx).ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, nil, fmt.Errorf("连接浏览器失败: %w", err)
	}

	cleanup := func() {
		if err := browser.Close(); err != nil {
			utils.Debugf("关闭浏览器失败: %v", err)
		}
		l.Cleanup()
	}
	return browser, cleanup, nil
}

func (pc *PageCapturer) setViewport(page *rod.Page, width, height int) error {
	err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             width,
		Height:            height,
		DeviceScaleFactor: 1,
	})
	if err != nil {
		return fmt.Errorf("设置视口 %dx%d 失败: %w", width, height, err)
	}
	return nil
}

func (pc *PageCapturer) applyHeaders(page *rod.Page) error {
	if pc.opts.UserAgent != "" {
		err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: pc.opts.UserAgent})
		if err != nil {
			return fmt.Errorf("设置User-Agent失败: %w", err)
		}
	}
	if len(pc.opts.ExtraHeaders) > 0 {
		if _, err := page.SetExtraHeaders(pc.opts.ExtraHeaders); err != nil {
			return fmt.Errorf("设置额外请求头失败: %w", err)
		}
	}
	return nil
}

// navigate 在 NavTimeout 内完成导航和首次加载
func (pc *PageCapturer) navigate(page *rod.Page, pageURL string) error {
	nav := page.Timeout(pc.opts.NavTimeout)
	defer nav.CancelTimeout()

	if err := nav.Navigate(pageURL); err != nil {
		return fmt.Errorf("导航失败: %w", err)
	}
	if err := nav.WaitLoad(); err != nil {
		return fmt.Errorf("等待页面加载失败: %w", err)
	}
	return nil
}

func (pc *PageCapturer) waitLoad(page *rod.Page) error {
	loaded := page.Timeout(pc.opts.NavTimeout)
	defer loaded.CancelTimeout()
	return loaded.WaitLoad()
}

// settle 等待网络空闲和固定等待时间, 超时不视为错误
func (pc *PageCapturer) settle(ctx context.Context, page *rod.Page) {
	if pc.opts.SettleTimeout > 0 {
		idle := page.Timeout(pc.opts.SettleTimeout)
		idle.WaitRequestIdle(500*time.Millisecond, nil, nil, nil)()
		idle.CancelTimeout()
	}
	if pc.opts.WaitTime > 0 {
		select {
		case <-ctx.Done():
		case <-time.After(pc.opts.WaitTime):
		}
	}
}
