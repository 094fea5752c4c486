// Package config 提供 web-server 的配置管理功能。
//
// 支持从默认值、YAML 文件与 WEBSERVER_* 环境变量分层加载配置，
// 并在启动前通过 Validate 做整体校验。
package config
