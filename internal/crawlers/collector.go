package crawlers

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/RecoveryAshes/PageTreeShot/internal/models"
	"github.com/RecoveryAshes/PageTreeShot/internal/utils"
	"github.com/andybalholm/brotli"
	"github.com/gocolly/colly/v2"
	"golang.org/x/net/publicsuffix"
)

// ErrNoPages 种子页面没有收集到任何页面
var ErrNoPages = errors.New("未收集到任何页面")

// CollectorOptions 种子URL收集参数
type CollectorOptions struct {
	MaxPages         int           // 最多收集的页面数
	Depth            int           // 从种子页面出发的链接层数, 0表示只收集种子
	Parallelism      int           // 并发请求数
	Timeout          time.Duration // 单个请求超时
	IgnoreCertErrors bool
	Headers          http.Header
}

// Collector 从种子页面出发, 收集同站点(eTLD+1)的页面URL, 作为批处理的输入列表
type Collector struct {
	opts CollectorOptions

	mu    sync.Mutex
	pages []string
	seen  map[string]bool
}

// NewCollector 创建收集器
func NewCollector(opts CollectorOptions) *Collector {
	if opts.MaxPages <= 0 {
		opts.MaxPages = 50
	}
	if opts.Depth < 0 {
		opts.Depth = 0
	}
	if opts.Parallelism <= 0 {
		opts.Parallelism = 4
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Collector{opts: opts}
}

// Collect 执行收集, 返回的第一个URL为种子页面
func (c *Collector) Collect(ctx context.Context, seed string) ([]string, error) {
	if err := models.ValidateURL(seed); err != nil {
		return nil, fmt.Errorf("种子URL无效: %w", err)
	}
	seedURL, _ := url.Parse(seed)
	site := registrableDomain(seedURL.Hostname())

	c.mu.Lock()
	c.pages = nil
	c.seen = map[string]bool{}
	c.mu.Unlock()

	collector := colly.NewCollector(
		colly.MaxDepth(c.opts.Depth+1),
		colly.Async(true),
	)
	collector.WithTransport(&http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: c.opts.IgnoreCertErrors},
	})
	collector.SetRequestTimeout(c.opts.Timeout)
	if err := collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: c.opts.Parallelism,
	}); err != nil {
		utils.Warnf("设置并发限制失败: %v", err)
	}

	collector.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil || c.full() {
			r.Abort()
			return
		}
		for name, values := range c.opts.Headers {
			if len(values) > 0 {
				r.Headers.Set(name, values[0])
			}
		}
	})

	// OnResponse 先于 OnHTML 执行, 在这里解压后 OnHTML 解析的就是明文
	collector.OnResponse(func(r *colly.Response) {
		encoding := r.Headers.Get("Content-Encoding")
		if encoding != "" {
			body, err := decompressResponse(encoding, r.Body)
			if err != nil {
				utils.Warnf("解压响应失败 [%s] (编码=%s): %v", r.Request.URL, encoding, err)
			} else {
				r.Body = body
			}
		}

		if strings.Contains(strings.ToLower(r.Headers.Get("Content-Type")), "html") {
			c.add(r.Request.URL.String())
		}
	})

	collector.OnHTML("a[href]", func(e *colly.HTMLElement) {
		link := normalizeLink(e.Request.AbsoluteURL(e.Attr("href")))
		if link == "" || models.IsPDFURL(link) || c.full() {
			return
		}
		parsed, err := url.Parse(link)
		if err != nil || registrableDomain(parsed.Hostname()) != site {
			return
		}
		if err := e.Request.Visit(link); err != nil {
			utils.Debugf("跳过链接 [%s]: %v", link, err)
		}
	})

	collector.OnError(func(r *colly.Response, err error) {
		utils.Warnf("收集页面失败 [%s]: %v", r.Request.URL, err)
	})

	utils.Infof("🔎 开始收集同站点页面: %s (站点=%s, 深度=%d, 上限=%d)", seed, site, c.opts.Depth, c.opts.MaxPages)
	if err := collector.Visit(seed); err != nil {
		return nil, fmt.Errorf("访问种子页面失败: %w", err)
	}
	collector.Wait()

	c.mu.Lock()
	pages := append([]string(nil), c.pages...)
	c.mu.Unlock()

	if len(pages) == 0 {
		return nil, ErrNoPages
	}
	utils.Infof("✅ 收集完成: %d 个页面", len(pages))
	return pages, nil
}

func (c *Collector) add(pageURL string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seen[pageURL] || len(c.pages) >= c.opts.MaxPages {
		return
	}
	c.seen[pageURL] = true
	c.pages = append(c.pages, pageURL)
}

func (c *Collector) full() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pages) >= c.opts.MaxPages
}

// normalizeLink 去掉片段, 仅保留 http/https 链接
func normalizeLink(link string) string {
	parsed, err := url.Parse(link)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return ""
	}
	parsed.Fragment = ""
	return parsed.String()
}

// registrableDomain 返回 eTLD+1, IP地址和无法识别的主机名原样返回
func registrableDomain(host string) string {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if net.ParseIP(host) != nil {
		return host
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return domain
}

// decompressResponse 按 Content-Encoding 解压响应体
// gzip 只在魔数匹配时解压, 已被HTTP客户端解压过的响应原样返回
func decompressResponse(contentEncoding string, body []byte) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(contentEncoding)) {
	case "br":
		decompressed, err := io.ReadAll(brotli.NewReader(bytes.NewReader(body)))
		if err != nil {
			return nil, fmt.Errorf("brotli读取失败: %w", err)
		}
		return decompressed, nil

	case "gzip":
		if len(body) < 2 || body[0] != 0x1f || body[1] != 0x8b {
			return body, nil
		}
		reader, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("gzip解压失败: %w", err)
		}
		defer reader.Close()
		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("gzip读取失败: %w", err)
		}
		return decompressed, nil

	case "deflate":
		reader := flate.NewReader(bytes.NewReader(body))
		defer reader.Close()
		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("deflate读取失败: %w", err)
		}
		return decompressed, nil

	case "", "identity":
		return body, nil

	default:
		utils.Warnf("未知的Content-Encoding: %s", contentEncoding)
		return body, nil
	}
}
