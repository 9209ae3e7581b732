// Package crawlers 提供页面采集所需的浏览器会话、种子URL收集和资源监控
//
// # 核心组件
//
// ## PageCapturer
//
// 基于go-rod的页面采集器。每次 Capture 都启动一个独立的浏览器进程,
// 采集结束后关闭并清理用户数据目录, 不同URL之间不共享任何浏览器状态。
//
//	capturer := NewPageCapturer(SessionOptions{Headless: true, NavTimeout: 60 * time.Second})
//	capture, err := capturer.Capture(ctx, "https://www.example.com")
//
// 采集流程:
//   - 初始视口 1920x1080, 导航并等待load事件(受 NavTimeout 限制)
//   - 读取 documentElement 的滚动尺寸, 把视口调整为整页大小, 再次等待
//   - 可选: 等待网络空闲(SettleTimeout)和固定等待(WaitTime)
//   - 在页面内执行元素树提取脚本
//   - 截取整页PNG
//
// ## Collector
//
// 基于Colly的同站点页面收集器, 从种子页面出发按深度收集同一 eTLD+1 下的页面,
// 结果可直接保存为批处理使用的URL列表。支持 br/gzip/deflate 压缩响应。
//
//	pages, err := NewCollector(CollectorOptions{MaxPages: 50, Depth: 1}).Collect(ctx, seed)
//
// ## ResourceMonitor
//
// 基于gopsutil采样系统可用内存和CPU。每个浏览器进程按 BrowserMemoryUsage 估算,
// RecommendWorkers 据此限制批处理的worker数量; 后台监控在内存压力升高时记录告警。
//
// 内存压力等级(扣除保留内存后):
//   - < 500MB: warning
//   - < 300MB: critical
//   - < 200MB: emergency
package crawlers
