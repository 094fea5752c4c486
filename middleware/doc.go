// Copyright (c) WebServer Authors.
// Licensed under the MIT License.

/*
包 middleware 提供 web-server 的 HTTP 中间件。

# 概述

所有中间件都是 func(http.Handler) http.Handler，可以直接传给
webserver.App.Use，也可以通过 Chain 组合。

# 核心中间件

  - HTTPSRedirect / HTTPSRedirectFunc：明文请求 302 到
    https://<host>:<port><path?query>，TLS 请求原样放行。
  - Static：从公共目录提供存在的文件，其余请求交给下游。
  - Fallback：未匹配路由重定向到 /。
  - RequestID / RequestLogger / Recovery：请求追踪、访问日志与 panic 恢复。
  - SecurityHeaders：安全响应头，TLS 请求附加 HSTS。
  - RateLimiter：基于 x/time/rate 的按 IP 限流。
  - Metrics / OTelTracing：Prometheus 指标与 OpenTelemetry 追踪。
*/
package middleware
