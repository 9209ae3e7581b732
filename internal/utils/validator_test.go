package utils

import (
	"net/http"
	"strings"
	"testing"
)

func TestHeaderValidator_ValidateName(t *testing.T) {
	validator := NewHeaderValidator()

	tests := []struct {
		name        string
		headerName  string
		expectError bool
	}{
		{"合法名称-字母", "User-Agent", false},
		{"合法名称-数字", "X-Request-ID-123", false},
		{"非法名称-空格", "User Agent", true},
		{"非法名称-下划线", "User_Agent", true},
		{"非法名称-特殊字符", "User@Agent", true},
		{"非法名称-空字符串", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateName(tt.headerName)
			if (err != nil) != tt.expectError {
				t.Errorf("期望错误=%v, 实际错误=%v", tt.expectError, err)
			}
		})
	}
}

func TestHeaderValidator_ValidateHeader(t *testing.T) {
	validator := NewHeaderValidator()

	tests := []struct {
		name        string
		headerName  string
		headerValue string
		expectError bool
	}{
		{"合法头部", "Accept-Language", "zh-CN,zh;q=0.9", false},
		{"合法值-空字符串", "X-Empty", "", false},
		{"禁止头部-Host", "Host", "example.com", true},
		{"禁止头部-不区分大小写", "keep-alive", "timeout=5", true},
		{"非法值-控制字符", "User-Agent", "value\x00bad", true},
		{"非法值-超长", "X-Long", strings.Repeat("a", MaxHeaderValueLength+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateHeader(tt.headerName, tt.headerValue)
			if (err != nil) != tt.expectError {
				t.Errorf("期望错误=%v, 实际错误=%v", tt.expectError, err)
			}
		})
	}
}

func TestHeaderValidator_Validate(t *testing.T) {
	validator := NewHeaderValidator()

	ok := http.Header{
		"User-Agent": []string{"Mozilla/5.0"},
		"X-Custom":   []string{"value"},
	}
	if err := validator.Validate(ok); err != nil {
		t.Errorf("期望无错误, 实际错误=%v", err)
	}

	bad := http.Header{
		"User-Agent": []string{"Mozilla/5.0"},
		"Connection": []string{"close"},
	}
	if err := validator.Validate(bad); err == nil {
		t.Error("期望返回错误, 但无错误")
	}
}

func TestHeaderRedactor(t *testing.T) {
	redactor := NewHeaderRedactor()

	headers := http.Header{}
	headers.Set("Authorization", "Bearer token123")
	headers.Set("Cookie", "session=abcdefghijkl")
	headers.Set("X-Api-Key", "abc")
	headers.Set("Accept", "*/*")

	redacted := redactor.Redact(headers)
	if redacted["Authorization"] != "Bearer ***" {
		t.Errorf("Authorization = %q", redacted["Authorization"])
	}
	if redacted["Cookie"] != "sess***ijkl" {
		t.Errorf("Cookie = %q", redacted["Cookie"])
	}
	if redacted["X-Api-Key"] != "***" {
		t.Errorf("X-Api-Key = %q", redacted["X-Api-Key"])
	}
	if redacted["Accept"] != "*/*" {
		t.Errorf("非敏感头部不应被脱敏: %q", redacted["Accept"])
	}

	got := redactor.RedactToString(http.Header{"B": {"2"}, "A": {"1"}})
	if got != "A: 1, B: 2" {
		t.Errorf("RedactToString() = %q", got)
	}
}
