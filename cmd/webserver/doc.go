// Copyright (c) WebServer Authors.
// Licensed under the MIT License.

/*
Package main 提供 web-server 服务端程序入口，把 webserver 包组装成可独立运行的服务。

# 子命令

  - serve：加载配置（默认值 → YAML → WEBSERVER_* 环境变量 → 命令行参数），
    启动明文与 TLS 监听器，收到 SIGINT/SIGTERM 或监听器出错后优雅关闭
  - health：请求运行中实例的 /health
  - version：打印构建时注入的版本信息

# 路由

/health、/healthz、/ready、/readyz、/version、指标路径（默认 /metrics）与 /ws 回显。
*/
package main
