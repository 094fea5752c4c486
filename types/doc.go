// Copyright (c) WebServer Authors.
// Licensed under the MIT License.

/*
Package types 提供 web-server 的全局共享类型定义。

# 概述

types 是最底层的公共包，不依赖任何内部包，为 webserver、internal/server、
api 等上层模块提供统一的错误契约，以避免循环依赖。

# 核心类型

  - Error / ErrorCode: 结构化错误体系，含 HTTP 状态码、Retryable、监听器（协议 + 端口）标记

# 错误码

  - CONFIG: TLS 材料缺失或无效，构造时同步返回
  - BIND: 端口绑定失败，携带端口与 OS 错误
  - NOT_RUNNING: Stop 时没有运行中的监听器
  - ALREADY_RUNNING: Start 时实例已在运行
  - TIMEOUT: 启动或关闭超时
  - SHUTDOWN: 优雅关闭失败

# 主要能力

  - 错误工具链：AsError / IsErrorCode / GetErrorCode / IsRetryable，均基于 errors.As，
    对 fmt.Errorf("%w") 包装后的错误同样有效
*/
package types
