package models

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// ValidateURL 验证URL
func ValidateURL(urlStr string) error {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("无效的URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("URL必须是HTTP或HTTPS协议")
	}
	if parsed.Host == "" {
		return fmt.Errorf("URL必须包含主机名")
	}
	return nil
}

// IsPDFURL 原始URL字符串是否以 .pdf 结尾(区分大小写,不解析查询参数)
func IsPDFURL(rawURL string) bool {
	return strings.HasSuffix(rawURL, ".pdf")
}

// NewRunID 生成批处理运行ID
func NewRunID() string {
	return uuid.New().String()
}
