package settings

import (
	"flag"
	"fmt"
	"io"
)

// NewFlagSet declares every flag on a fresh FlagSet bound to s.
//
// Flags:
//
//	-in            base config: path, http(s) URL or "-" for stdin
//	-out           output path, "-" for stdout
//	-profile       override profile: path or http(s) URL
//	-strict        treat name conflicts and dangling references as errors
//	-serve         run the HTTP server instead of a one-shot override
//	-listen        HTTP listen address
//	-healthcheck   probe a running server's /healthz and exit
func NewFlagSet(s *Settings, output io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("override-go", flag.ContinueOnError)
	fs.SetOutput(output)

	fs.StringVar(&s.Input, "in", "", "基础配置：文件路径、http(s) URL 或 - 表示 stdin")
	fs.StringVar(&s.Output, "out", "", "输出路径，- 表示 stdout")
	fs.StringVar(&s.Profile, "profile", "", "override profile：文件路径或 http(s) URL")
	fs.BoolVar(&s.Strict, "strict", false, "名称冲突或悬空引用时直接失败")

	fs.BoolVar(&s.Serve, "serve", false, "启动 HTTP 服务")
	fs.StringVar(&s.Listen, "listen", "", "HTTP 监听地址")
	fs.DurationVar(&s.ReadHeaderTimeout, "read-header-timeout", 0, "HTTP ReadHeaderTimeout（请求头读取超时）")
	fs.DurationVar(&s.OverrideTimeout, "override-timeout", 0, "单次 override 的总超时（包含远程拉取）")
	fs.DurationVar(&s.ShutdownTimeout, "shutdown-timeout", 0, "收到退出信号后的优雅退出等待时间")
	fs.Int64Var(&s.MaxBodyBytes, "max-body-bytes", 0, "POST 请求体大小上限")

	fs.DurationVar(&s.FetchTimeout, "fetch-timeout", 0, "单次远程拉取的超时")
	fs.IntVar(&s.FetchRetries, "fetch-retries", 0, "上游 5xx 或网络错误时的重试次数")

	fs.BoolVar(&s.Healthcheck, "healthcheck", false, "探测 /healthz 后退出（容器健康检查用）")
	fs.StringVar(&s.HealthcheckURL, "healthcheck-url", "", "健康检查 URL，默认由 -listen 推导")
	fs.DurationVar(&s.HealthcheckTimeout, "healthcheck-timeout", 0, "健康检查超时")

	fs.StringVar(&s.LogLevel, "log-level", "", "日志级别：debug | info | warn | error")
	return fs
}

func parseFlags(args []string, output io.Writer) (*Settings, error) {
	s := &Settings{}
	fs := NewFlagSet(s, output)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return s, nil
}
