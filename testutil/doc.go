// Copyright (c) WebServer Authors.
// Licensed under the MIT License.

/*
Package testutil 提供 web-server 测试的共享工具和辅助函数。

# 概述

testutil 包为各包的单元测试与集成测试提供统一的辅助能力，
避免各包重复实现相似的测试基础设施。

# 核心能力

  - 上下文辅助: TestContext / TestContextWithTimeout / CancelledContext，
    自动注册 Cleanup 防止泄漏
  - 网络辅助: FreePort / OccupyPort / PortIsFree / NoRedirectClient，
    用于监听器生命周期与重定向测试
  - 证书辅助: SelfSignedPEM / WriteSelfSignedFiles，生成自签名 ECDSA 证书
  - 输出捕获: CaptureStdout，用于验证控制台回退日志
  - 异步断言: AssertEventuallyTrue / WaitForChannel

# 使用示例

	ctx := testutil.TestContext(t)
	keyPEM, certPEM := testutil.SelfSignedPEM(t)
	srv, err := webserver.New(webserver.WithTLS(keyPEM, certPEM))
*/
package testutil
