// Package telemetry 初始化 OpenTelemetry SDK，把 web-server 的请求 span
// 通过 OTLP gRPC 导出。禁用时保持全局 noop provider，不连接外部服务。
package telemetry
