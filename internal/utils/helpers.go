package utils

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/RecoveryAshes/PageTreeShot/internal/models"
	"gopkg.in/yaml.v3"
)

const (
	// DummyURLList 特殊取值: 使用内置的测试URL列表
	DummyURLList = "dummy"

	// DummyURL 测试URL
	DummyURL = "https://www.example.com"

	// DummyURLCount 测试URL数量
	DummyURLCount = 8
)

var (
	ErrURLListNotFound = errors.New("URL列表文件不存在")
	ErrEmptyURLList    = errors.New("URL列表为空")
)

// DummyURLs 返回内置测试列表
func DummyURLs() []string {
	urls := make([]string, DummyURLCount)
	for i := range urls {
		urls[i] = DummyURL
	}
	return urls
}

// LoadURLList 读取URL列表
//
// source 为 "dummy" 时返回内置测试列表; 否则按扩展名解析文件:
// .json 为字符串数组, .yaml/.yml 为字符串列表, 其余按行读取(跳过空行和#注释)。
// 列表中的下标即输出文件编号, 因此无效URL只告警不剔除。
func LoadURLList(source string) ([]string, error) {
	if source == DummyURLList {
		Info("使用内置测试URL列表")
		return DummyURLs(), nil
	}

	if source == "" {
		return nil, fmt.Errorf("%w: 未指定 --url_list", ErrURLListNotFound)
	}
	if _, err := os.Stat(source); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrURLListNotFound, source)
		}
		return nil, fmt.Errorf("读取URL列表文件信息失败: %w", err)
	}

	Infof("从文件读取URL列表: %s", source)
	data, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("打开URL文件失败: %w", err)
	}

	var urls []string
	switch strings.ToLower(filepath.Ext(source)) {
	case ".json":
		if err := json.Unmarshal(data, &urls); err != nil {
			return nil, fmt.Errorf("解析JSON URL列表失败: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &urls); err != nil {
			return nil, fmt.Errorf("解析YAML URL列表失败: %w", err)
		}
	default:
		urls, err = readURLLines(data)
		if err != nil {
			return nil, err
		}
	}

	if len(urls) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyURLList, source)
	}

	for i, u := range urls {
		if err := models.ValidateURL(u); err != nil {
			Warnf("URL格式可能无效 (index %d): %s - %v", i, u, err)
		}
	}

	Infof("从文件加载了 %d 个URL", len(urls))
	return urls, nil
}

func readURLLines(data []byte) ([]string, error) {
	urls := make([]string, 0)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("读取URL文件失败: %w", err)
	}
	return urls, nil
}

// SaveURLList 以JSON数组形式保存URL列表
func SaveURLList(path string, urls []string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("创建目录失败 [%s]: %w", dir, err)
		}
	}

	data, err := json.MarshalIndent(urls, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化URL列表失败: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("写入URL列表失败: %w", err)
	}
	return nil
}

// PreparePaths 创建所有输出目录
func PreparePaths(dirs ...string) error {
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("创建输出目录失败 [%s]: %w", dir, err)
		}
	}
	return nil
}

// FileExists 判断路径是否为已存在的普通文件
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
