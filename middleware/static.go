package middleware

import (
	"net/http"
	"path"
)

// =============================================================================
// 📁 静态文件与兜底路由
// =============================================================================

// Static 从 dir 提供静态文件。
// 仅处理 GET/HEAD，且路径需对应已存在的文件或含 index.html 的目录，
// 其余请求交给 next。
func Static(dir string) Middleware {
	root := http.Dir(dir)
	files := http.FileServer(root)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}
			if !servable(root, path.Clean("/"+r.URL.Path)) {
				next.ServeHTTP(w, r)
				return
			}
			files.ServeHTTP(w, r)
		})
	}
}

func servable(root http.FileSystem, name string) bool {
	f, err := root.Open(name)
	if err != nil {
		return false
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return false
	}
	if !info.IsDir() {
		return true
	}

	index, err := root.Open(path.Join(name, "index.html"))
	if err != nil {
		return false
	}
	index.Close()
	return true
}

// Fallback 返回兜底处理器：未匹配的请求 302 到根路径。
// 根路径本身未被处理时返回 404，避免重定向循环。
func Fallback(onRedirect func(r *http.Request)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			http.NotFound(w, r)
			return
		}
		if onRedirect != nil {
			onRedirect(r)
		}
		http.Redirect(w, r, "/", http.StatusFound)
	})
}
