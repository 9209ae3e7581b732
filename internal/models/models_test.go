package models

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"有效的HTTP URL", "http://example.com", false},
		{"有效的HTTPS URL", "https://example.com", false},
		{"带路径的URL", "https://example.com/path/to/resource", false},
		{"无效的协议", "ftp://example.com", true},
		{"无效的URL", "not a url", true},
		{"空URL", "", true},
		{"无协议", "example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestIsPDFURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want bool
	}{
		{"PDF后缀", "https://example.com/doc.pdf", true},
		{"大写后缀不匹配", "https://example.com/doc.PDF", false},
		{"查询参数在后", "https://example.com/doc.pdf?x=1", false},
		{"普通页面", "https://www.example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPDFURL(tt.url); got != tt.want {
				t.Errorf("IsPDFURL(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestBoxInfo_Positive(t *testing.T) {
	tests := []struct {
		name string
		box  BoxInfo
		want bool
	}{
		{"全部为正", BoxInfo{Top: 1, Left: 1, Width: 1, Height: 1}, true},
		{"top为0", BoxInfo{Top: 0, Left: 1, Width: 1, Height: 1}, false},
		{"left为0", BoxInfo{Top: 1, Left: 0, Width: 1, Height: 1}, false},
		{"宽度为0", BoxInfo{Top: 1, Left: 1, Width: 0, Height: 1}, false},
		{"高度为负", BoxInfo{Top: 1, Left: 1, Width: 1, Height: -3}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.box.Positive(); got != tt.want {
				t.Errorf("Positive() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNode_JSONShape(t *testing.T) {
	src, alt := "https://example.com/a.png", ""
	root := &Node{
		Type:    NodeTypeElement,
		TagName: "body",
		XPath:   RootXPath,
		BoxInfo: BoxInfo{Top: 0, Left: 0, Width: 1920, Height: 1080},
		Children: []*Node{
			{
				Type:        NodeTypeText,
				TextContent: "Hello",
				XPath:       RootXPath + "/node()[2]",
				BoxInfo:     BoxInfo{Top: 10, Left: 8, Width: 40, Height: 18},
			},
			{
				Type:    NodeTypeElement,
				TagName: "img",
				XPath:   RootXPath + "/node()[4]",
				BoxInfo: BoxInfo{Top: 30, Left: 8, Width: 100, Height: 100},
				Src:     &src,
				Alt:     &alt,
			},
		},
	}

	data, err := root.MarshalIndented()
	if err != nil {
		t.Fatalf("MarshalIndented() error = %v", err)
	}
	text := string(data)

	// 4空格缩进
	if !strings.Contains(text, "\n    \"type\": \"element\"") {
		t.Errorf("JSON未使用4空格缩进:\n%s", text)
	}

	// img 的空 alt 也要输出
	if !strings.Contains(text, `"alt": ""`) {
		t.Errorf("img节点缺少alt字段:\n%s", text)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	children := raw["children"].([]interface{})
	textNode := children[0].(map[string]interface{})
	if _, ok := textNode["children"]; ok {
		t.Error("无子节点时不应输出children字段")
	}
	if _, ok := textNode["tagName"]; ok {
		t.Error("文本节点不应输出tagName字段")
	}
	if _, ok := textNode["src"]; ok {
		t.Error("非img节点不应输出src字段")
	}
	box := textNode["boxInfo"].(map[string]interface{})
	for _, key := range []string{"top", "left", "width", "height"} {
		if _, ok := box[key]; !ok {
			t.Errorf("boxInfo缺少%s字段", key)
		}
	}
}

func TestParseNode_Null(t *testing.T) {
	node, err := ParseNode([]byte("null"))
	if err != nil {
		t.Fatalf("ParseNode() error = %v", err)
	}
	if node != nil {
		t.Errorf("null应解析为nil, got %+v", node)
	}
}

func TestNode_Validate(t *testing.T) {
	tests := []struct {
		name    string
		node    *Node
		wantErr bool
	}{
		{
			name:    "合法元素",
			node:    &Node{Type: NodeTypeElement, TagName: "div", XPath: RootXPath},
			wantErr: false,
		},
		{
			name:    "文本缺少内容",
			node:    &Node{Type: NodeTypeText, XPath: RootXPath + "/node()[1]"},
			wantErr: true,
		},
		{
			name: "包含script",
			node: &Node{Type: NodeTypeElement, TagName: "body", XPath: RootXPath, Children: []*Node{
				{Type: NodeTypeElement, TagName: "script", XPath: RootXPath + "/node()[1]"},
			}},
			wantErr: true,
		},
		{
			name:    "未知类型",
			node:    &Node{Type: "comment", XPath: RootXPath},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.node.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCrawlConfig_Validate(t *testing.T) {
	valid := CrawlConfig{
		Processes:      4,
		NavTimeout:     60 * time.Second,
		ViewportWidth:  1920,
		ViewportHeight: 1080,
	}

	tests := []struct {
		name    string
		mutate  func(c *CrawlConfig)
		wantErr bool
	}{
		{"有效配置", func(c *CrawlConfig) {}, false},
		{"worker为0", func(c *CrawlConfig) { c.Processes = 0 }, true},
		{"视口为0", func(c *CrawlConfig) { c.ViewportHeight = 0 }, true},
		{"导航超时为0", func(c *CrawlConfig) { c.NavTimeout = 0 }, true},
		{"等待时间过大", func(c *CrawlConfig) { c.WaitTime = 61 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := valid
			tt.mutate(&config)
			err := config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestOutputPaths_Files(t *testing.T) {
	out := OutputPaths{BBoxPath: "checkboxes", Screenshots: "screenshots", Annotations: "annotations"}

	if got, want := out.ScreenshotFile(3), filepath.Join("screenshots", "3.png"); got != want {
		t.Errorf("ScreenshotFile() = %v, want %v", got, want)
	}
	if got, want := out.AnnotationFile(3), filepath.Join("annotations", "3.json"); got != want {
		t.Errorf("AnnotationFile() = %v, want %v", got, want)
	}
	if got, want := out.BBoxFile(3), filepath.Join("checkboxes", "3.png"); got != want {
		t.Errorf("BBoxFile() = %v, want %v", got, want)
	}
}

func TestBatchReport_Record(t *testing.T) {
	report := &BatchReport{StartTime: time.Now()}
	report.Record(&PageResult{Index: 0, Status: PageStatusSuccess})
	report.Record(&PageResult{Index: 1, URL: "https://example.com/a.pdf", Status: PageStatusSkipped, Error: "pdf"})
	report.Record((&PageResult{Index: 2}).Failed(errors.New("timeout")))
	report.Finish()

	if report.Success != 1 || report.Skipped != 1 || report.Failed != 1 {
		t.Errorf("统计错误: success=%d skipped=%d failed=%d", report.Success, report.Skipped, report.Failed)
	}
	if len(report.Failures) != 2 {
		t.Fatalf("Failures长度 = %d, want 2", len(report.Failures))
	}
	if report.Failures[1].Error != "timeout" {
		t.Errorf("失败原因 = %q, want %q", report.Failures[1].Error, "timeout")
	}
}

func TestCliHeaders_Parse(t *testing.T) {
	h, err := CliHeaders{"User-Agent: Bot/1.0", "X-Token:abc:def"}.Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if h.Get("X-Token") != "abc:def" {
		t.Errorf("X-Token = %q, want %q", h.Get("X-Token"), "abc:def")
	}

	if _, err := (CliHeaders{"NoColon"}).Parse(); err == nil {
		t.Error("缺少冒号应返回错误")
	}
	if _, err := (CliHeaders{" : value"}).Parse(); err == nil {
		t.Error("空名称应返回错误")
	}
}

func TestBrowserHeaders(t *testing.T) {
	h := http.Header{}
	h.Set("User-Agent", "Bot/1.0")
	h.Set("X-B", "2")
	h.Set("Accept-Language", "zh-CN")

	ua, extra := BrowserHeaders(h)
	if ua != "Bot/1.0" {
		t.Errorf("userAgent = %q, want %q", ua, "Bot/1.0")
	}
	want := []string{"Accept-Language", "zh-CN", "X-B", "2"}
	if strings.Join(extra, "|") != strings.Join(want, "|") {
		t.Errorf("extra = %v, want %v", extra, want)
	}
}
