// Copyright (c) WebServer Authors.
// Licensed under the MIT License.

/*
Package webserver 是一个可嵌入的 HTTP(S) 服务器外观。

# 概述

WebServer 持有一个 App（基于 go-chi 的请求处理应用），并管理共享该 App 的
明文与加密两个监听器。构造时按顺序安装 HTTPS 重定向、静态文件与兜底路由；
Start 先绑定明文端口，成功后再绑定加密端口；Stop 依次关闭两者。

# 核心类型

  - WebServer：生命周期状态机 unstarted → starting → running → stopping → stopped，
    stopped 之后可以再次 Start。
  - App：中间件按注册顺序包裹整个路由器。
  - Logger / Translator：可注入的日志与翻译能力。未配置 Logger 时以
    "<level>: [web-server] <message>" 写入标准输出。
  - Option：WithHTTPPort、WithHTTPSPort、WithForceHTTPS、WithPublicDir、
    WithTLS、WithLogger、WithTranslator 等函数式选项。

# 错误

所有生命周期错误都是 *types.Error，可用 types.IsErrorCode 区分：
CONFIG、BIND、NOT_RUNNING、ALREADY_RUNNING、TIMEOUT、SHUTDOWN。

# 使用示例

	ws, err := webserver.New(
		webserver.WithTLS(keyPEM, certPEM),
		webserver.WithPublicDir("./public"),
	)
	if err != nil {
		return err
	}
	ws.App().HandleFunc("/hello", hello)
	if err := ws.Start(ctx); err != nil {
		return err
	}
	defer ws.Stop(context.Background())
*/
package webserver
