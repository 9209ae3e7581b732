package models

import (
	"encoding/json"
	"fmt"
)

// NodeType 节点类型
type NodeType string

const (
	NodeTypeText    NodeType = "text"    // 文本节点
	NodeTypeElement NodeType = "element" // 元素节点
)

// RootXPath 元素树根节点(document.body)的xpath
const RootXPath = "/html/body"

// BoxInfo 节点在视口坐标系中的包围盒(CSS像素)
type BoxInfo struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Positive 四个分量是否都严格大于0
// 坐标为0的盒子不算可见
func (b BoxInfo) Positive() bool {
	return b.Top > 0 && b.Left > 0 && b.Width > 0 && b.Height > 0
}

// Right 右边界
func (b BoxInfo) Right() float64 {
	return b.Left + b.Width
}

// Bottom 下边界
func (b BoxInfo) Bottom() float64 {
	return b.Top + b.Height
}

// Node 页面可见元素树中的一个节点
//
// 文本节点带 TextContent,元素节点带 TagName;img 元素额外带 Src/Alt,
// 即使为空字符串也会输出。Children 仅在至少有一个子节点保留时存在。
type Node struct {
	Type        NodeType `json:"type"`
	TagName     string   `json:"tagName,omitempty"`
	TextContent string   `json:"textContent,omitempty"`
	XPath       string   `json:"xpath"`
	BoxInfo     BoxInfo  `json:"boxInfo"`
	Src         *string  `json:"src,omitempty"`
	Alt         *string  `json:"alt,omitempty"`
	Children    []*Node  `json:"children,omitempty"`
}

// IsText 是否为文本节点
func (n *Node) IsText() bool {
	return n.Type == NodeTypeText
}

// IsElement 是否为元素节点
func (n *Node) IsElement() bool {
	return n.Type == NodeTypeElement
}

// HasChildren 是否存在子节点
func (n *Node) HasChildren() bool {
	return len(n.Children) > 0
}

// IsLeaf 判断是否为叶子节点: 无子节点且包围盒四个分量都严格为正
func (n *Node) IsLeaf() bool {
	return !n.HasChildren() && n.BoxInfo.Positive()
}

// Walk 深度优先遍历,fn 返回 false 时不再进入该节点的子树
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, child := range n.Children {
		child.Walk(fn)
	}
}

// Count 统计树中的节点总数
func (n *Node) Count() int {
	count := 0
	n.Walk(func(*Node) bool {
		count++
		return true
	})
	return count
}

// Validate 检查节点结构是否满足元素树约束
func (n *Node) Validate() error {
	switch {
	case n.IsText():
		if n.TextContent == "" {
			return fmt.Errorf("文本节点缺少textContent: %s", n.XPath)
		}
		if n.HasChildren() {
			return fmt.Errorf("文本节点不应包含子节点: %s", n.XPath)
		}
	case n.IsElement():
		if n.TagName == "" {
			return fmt.Errorf("元素节点缺少tagName: %s", n.XPath)
		}
		if n.TagName == "script" || n.TagName == "noscript" {
			return fmt.Errorf("元素树不应包含%s节点: %s", n.TagName, n.XPath)
		}
	default:
		return fmt.Errorf("未知的节点类型 %q: %s", n.Type, n.XPath)
	}

	if n.XPath == "" {
		return fmt.Errorf("节点缺少xpath")
	}

	for _, child := range n.Children {
		if err := child.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// MarshalIndented 序列化为4空格缩进的JSON
func (n *Node) MarshalIndented() ([]byte, error) {
	data, err := json.MarshalIndent(n, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("序列化元素树失败: %w", err)
	}
	return data, nil
}

// ParseNode 从JSON解析元素树,JSON为null时返回nil
func ParseNode(data []byte) (*Node, error) {
	var node *Node
	if err := json.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("解析元素树失败: %w", err)
	}
	return node, nil
}
