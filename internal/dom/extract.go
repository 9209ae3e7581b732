// Package dom 在渲染后的页面中提取可见元素树,并从中挑选叶子节点
package dom

import (
	_ "embed"
	"fmt"

	"github.com/RecoveryAshes/PageTreeShot/internal/models"
	"github.com/go-rod/rod"
)

// extractScript 在页面内递归遍历 document.body,返回 JSON 字符串
//
//go:embed extract.js
var extractScript string

const scrollSizeScript = `() => ({
	width: document.documentElement.scrollWidth,
	height: document.documentElement.scrollHeight
})`

// Extract 在已加载的页面中执行提取脚本
// 页面没有 body 时返回 (nil, nil),由调用方按失败处理
func Extract(page *rod.Page) (*models.Node, error) {
	result, err := page.Evaluate(rod.Eval(extractScript))
	if err != nil {
		return nil, fmt.Errorf("执行元素树提取脚本失败: %w", err)
	}

	node, err := models.ParseNode([]byte(result.Value.Str()))
	if err != nil {
		return nil, err
	}
	return node, nil
}

// ScrollSize 读取文档的完整滚动尺寸
func ScrollSize(page *rod.Page) (width, height int, err error) {
	result, err := page.Evaluate(rod.Eval(scrollSizeScript))
	if err != nil {
		return 0, 0, fmt.Errorf("读取页面滚动尺寸失败: %w", err)
	}
	return result.Value.Get("width").Int(), result.Value.Get("height").Int(), nil
}
