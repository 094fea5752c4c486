// Package tlsutil 提供集中式 TLS 配置，
// 为 HTTPS 监听器和健康检查客户端提供安全加固的 TLS 设置（TLS 1.2+，仅 AEAD 密码套件），
// 并负责把 PEM 字节解析为证书。
package tlsutil
