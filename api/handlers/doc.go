// Copyright (c) WebServer Authors.
// Licensed under the MIT License.

/*
Package handlers 提供 web-server 命令挂载的内置 HTTP 端点。

# 核心类型

  - HealthHandler：/health、/healthz 存活探针，/ready 就绪检查，/version 版本信息
  - HealthCheck：可插拔检查接口，内置 CheckFunc 与 ListenerHealthCheck
  - EchoHandler：基于 coder/websocket 的回显端点，连接数与消息数写入 metrics.Collector
  - Response / ErrorInfo：统一 JSON 响应结构

types.Error 的错误码通过 WriteError 映射为 HTTP 状态码：
BIND → 503，NOT_RUNNING / ALREADY_RUNNING → 409，TIMEOUT → 504，其余 → 500。
*/
package handlers
