package middleware

import (
	"net"
	"net/http"
	"strconv"
)

// =============================================================================
// 🔒 HTTPS 重定向
// =============================================================================

// RedirectOption 配置 HTTPS 重定向
type RedirectOption func(*redirectOptions)

type redirectOptions struct {
	status     int
	onRedirect func(r *http.Request, target string)
}

// OnRedirect 在每次发出重定向前回调
func OnRedirect(fn func(r *http.Request, target string)) RedirectOption {
	return func(o *redirectOptions) {
		o.onRedirect = fn
	}
}

// RedirectStatus 覆盖重定向状态码，默认 302
func RedirectStatus(code int) RedirectOption {
	return func(o *redirectOptions) {
		if code >= 300 && code < 400 {
			o.status = code
		}
	}
}

// HTTPSRedirect 把明文请求重定向到固定的 HTTPS 端口
func HTTPSRedirect(port int, opts ...RedirectOption) Middleware {
	return HTTPSRedirectFunc(func() int { return port }, opts...)
}

// HTTPSRedirectFunc 把明文请求重定向到 port() 返回的 HTTPS 端口。
// 端口在每次请求时解析，因此可以指向临时绑定的端口。
// 已经是 TLS 的请求原样交给 next。
func HTTPSRedirectFunc(port func() int, opts ...RedirectOption) Middleware {
	o := redirectOptions{status: http.StatusFound}
	for _, opt := range opts {
		opt(&o)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.TLS != nil {
				next.ServeHTTP(w, r)
				return
			}

			target := RedirectTarget(r, port())
			if o.onRedirect != nil {
				o.onRedirect(r, target)
			}
			http.Redirect(w, r, target, o.status)
		})
	}
}

// RedirectTarget 计算 https://<host>:<port><path?query>。
// Host 头中的端口被丢弃；无法解析时原样使用 Host 头作为主机名。
func RedirectTarget(r *http.Request, port int) string {
	p := strconv.Itoa(port)

	authority := r.Host + ":" + p
	if host, _, err := net.SplitHostPort(r.Host); err == nil {
		authority = net.JoinHostPort(host, p)
	}

	return "https://" + authority + r.URL.RequestURI()
}
