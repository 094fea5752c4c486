// Copyright (c) WebServer Authors.
// Licensed under the MIT License.

/*
包 metrics 提供基于 Prometheus 的 web-server 指标采集能力。

# 概述

Collector 通过 promauto.With 把指标注册到调用方提供的 Registerer。
未提供时使用带 Go 运行时与进程指标的私有 Registry，因此同一进程内
可以创建多个 web-server 而不发生重复注册。

# 主要指标

  - http_requests_total / http_request_duration_seconds /
    http_response_size_bytes：按 protocol、method、route、状态码分组。
  - redirects_total：按 https 与 fallback 分组的重定向计数。
  - listener_up / bind_errors_total：监听器状态与绑定失败。
  - state_transitions_total：生命周期状态转换。
  - websocket_connections / websocket_messages_total。

Handler() 返回 promhttp 处理器，挂载到配置的 metrics 路径。
*/
package metrics
