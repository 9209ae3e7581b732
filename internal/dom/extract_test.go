package dom

import (
	"strings"
	"testing"

	"github.com/RecoveryAshes/PageTreeShot/internal/models"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureHTML = "<html><head></head><body>\n" +
	"<p>Hello</p>\n" +
	"<script>var x = 1;</script><noscript><span>hidden</span></noscript> " +
	"<div> </div><img src=\"\" alt=\"logo\"></body></html>"

// newTestPage 启动本地浏览器,没有可用的浏览器时跳过
func newTestPage(t *testing.T, html string) *rod.Page {
	t.Helper()

	path, found := launcher.LookPath()
	if !found {
		t.Skip("未找到本地Chromium,跳过浏览器测试")
	}

	l := launcher.New().Bin(path).Headless(true)
	controlURL, err := l.Launch()
	if err != nil {
		t.Skipf("启动浏览器失败: %v", err)
	}
	t.Cleanup(l.Cleanup)

	browser := rod.New().ControlURL(controlURL)
	require.NoError(t, browser.Connect())
	t.Cleanup(func() { _ = browser.Close() })

	page, err := browser.Page(proto.TargetCreateTarget{})
	require.NoError(t, err)
	require.NoError(t, page.SetDocumentContent(html))
	require.NoError(t, page.WaitLoad())
	return page
}

func TestExtract_TreeShape(t *testing.T) {
	page := newTestPage(t, fixtureHTML)

	root, err := Extract(page)
	require.NoError(t, err)
	require.NotNil(t, root)
	require.NoError(t, root.Validate())

	assert.Equal(t, models.NodeTypeElement, root.Type)
	assert.Equal(t, "body", root.TagName)
	assert.Equal(t, models.RootXPath, root.XPath)

	// 空白文本、script、noscript均被排除,下标按全部childNodes计算
	require.Len(t, root.Children, 3)

	p := root.Children[0]
	assert.Equal(t, "p", p.TagName)
	assert.Equal(t, "/html/body/node()[2]", p.XPath)
	require.Len(t, p.Children, 1)
	assert.Equal(t, models.NodeTypeText, p.Children[0].Type)
	assert.Equal(t, "Hello", p.Children[0].TextContent)
	assert.Equal(t, "/html/body/node()[2]/node()[1]", p.Children[0].XPath)

	div := root.Children[1]
	assert.Equal(t, "div", div.TagName)
	assert.Equal(t, "/html/body/node()[7]", div.XPath)
	assert.Nil(t, div.Children)

	img := root.Children[2]
	assert.Equal(t, "img", img.TagName)
	assert.Equal(t, "/html/body/node()[8]", img.XPath)
	require.NotNil(t, img.Src)
	require.NotNil(t, img.Alt)
	assert.Equal(t, "logo", *img.Alt)

	root.Walk(func(n *models.Node) bool {
		if n.IsText() {
			assert.NotEmpty(t, strings.TrimSpace(n.TextContent))
		}
		if n.Src != nil {
			assert.Equal(t, "img", n.TagName)
		}
		return true
	})
}

func TestExtract_TextFiltering(t *testing.T) {
	// 纯中文和 &nbsp; 不含 0x21-0x7E 字符, 文本节点被丢弃; 元素本身保留
	page := newTestPage(t, "<html><body><p>中文</p><p>&nbsp;</p><p> a </p></body></html>")

	root, err := Extract(page)
	require.NoError(t, err)
	require.Len(t, root.Children, 3)

	chinese, nbsp, ascii := root.Children[0], root.Children[1], root.Children[2]
	assert.Equal(t, "/html/body/node()[1]", chinese.XPath)
	assert.Empty(t, chinese.Children)
	assert.Equal(t, "/html/body/node()[2]", nbsp.XPath)
	assert.Empty(t, nbsp.Children)

	require.Len(t, ascii.Children, 1)
	text := ascii.Children[0]
	assert.True(t, text.IsText())
	assert.Equal(t, "a", text.TextContent)
	assert.Equal(t, "/html/body/node()[3]/node()[1]", text.XPath)
}

func TestExtract_StableXPath(t *testing.T) {
	page := newTestPage(t, fixtureHTML)

	first, err := Extract(page)
	require.NoError(t, err)
	second, err := Extract(page)
	require.NoError(t, err)

	collect := func(root *models.Node) []string {
		var paths []string
		root.Walk(func(n *models.Node) bool {
			paths = append(paths, n.XPath)
			return true
		})
		return paths
	}
	assert.Equal(t, collect(first), collect(second))
}

func TestScrollSize(t *testing.T) {
	page := newTestPage(t, `<html><body style="margin:0"><div style="width:3000px;height:2500px"></div></body></html>`)

	width, height, err := ScrollSize(page)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, width, 3000)
	assert.GreaterOrEqual(t, height, 2500)
}
