package main

import (
	"fmt"
	"net/url"

	"github.com/RecoveryAshes/PageTreeShot/internal/core"
	"github.com/RecoveryAshes/PageTreeShot/internal/models"
	"github.com/RecoveryAshes/PageTreeShot/internal/utils"
)

// ValidateFlags 验证合并命令行参数后的批处理配置
func ValidateFlags(config *core.Config) error {
	if config.Crawl.URLList == "" {
		return fmt.Errorf("%w: 必须指定 --url_list (文件路径或 dummy)", utils.ErrURLListNotFound)
	}
	return config.Validate()
}

// ValidateCollectFlags 验证 collect 子命令参数
func ValidateCollectFlags(seed string, maxPages, depth int, out string) error {
	if err := models.ValidateURL(seed); err != nil {
		return fmt.Errorf("无效的种子URL: %w", err)
	}
	if maxPages < 1 || maxPages > 10000 {
		return fmt.Errorf("收集页面数必须在1-10000之间,当前值: %d", maxPages)
	}
	if depth < 0 || depth > 5 {
		return fmt.Errorf("链接层数必须在0-5之间,当前值: %d", depth)
	}
	if out == "" {
		return fmt.Errorf("输出文件路径不能为空")
	}
	return nil
}

// NormalizeURL 规范化URL
func NormalizeURL(urlStr string) (string, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return "", err
	}

	// 如果没有协议,默认使用https
	if parsed.Scheme == "" {
		urlStr = "https://" + urlStr
		parsed, err = url.Parse(urlStr)
		if err != nil {
			return "", err
		}
	}

	return parsed.String(), nil
}
