// Copyright (c) WebServer Authors.
// Licensed under the MIT License.

/*
包 server 管理单个 HTTP 或 HTTPS 监听器的生命周期。

# 概述

Manager 封装 net/http.Server 与 net.Listener。Start 同步完成端口绑定，
使调用方可以在返回时立即得知 BIND 错误；服务在后台 goroutine 中运行。
web-server 为明文与加密两个监听器各创建一个 Manager。

# 核心类型

  - Manager：持有 http.Server、监听器与异步错误通道，提供
    Start/Shutdown/Errors/Listener/Port 等方法。
  - Config：绑定主机、端口、读写与空闲超时、最大请求头大小、
    优雅关闭超时，以及可选的 *tls.Config。

# 主要能力

  - 同步绑定：端口被占用时 Start 返回 types.ErrBind，端口不被保留。
  - TLS 与 HTTP/2：配置 TLSConfig 后通过 x/net/http2 启用 h2。
  - 优雅关闭：Shutdown 在超时内排空请求，超时后强制关闭。
  - 错误传播：Errors() 在服务协程退出时关闭。
  - 临时端口：Port 为 0 时由系统分配，Port() 返回实际端口。
*/
package server
