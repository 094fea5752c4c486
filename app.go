package webserver

import (
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/BaSui01/webserver/middleware"
)

// App 是两个监听器共享的请求处理应用。
// 中间件按注册顺序包裹整个路由器，因此总是先于任何路由执行，
// 且可以在注册路由之后继续添加。静态文件位于所有中间件之内、
// 所有路由之前。
type App struct {
	mu      sync.RWMutex
	router  *chi.Mux
	mws     chi.Middlewares
	statics chi.Middlewares
	handler http.Handler
}

// NewApp 创建空的应用
func NewApp() *App {
	return &App{router: chi.NewRouter()}
}

// Use 追加中间件，先注册的位于外层
func (a *App) Use(mws ...func(http.Handler) http.Handler) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.mws = append(a.mws, mws...)
	a.handler = nil
}

// Static 从 dir 提供静态文件。无论 Use 的调用顺序如何，
// 静态请求都会经过全部中间件
func (a *App) Static(dir string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.statics = append(a.statics, middleware.Static(dir))
	a.handler = nil
}

// Router 返回底层 chi 路由器，用于注册路由与子路由
func (a *App) Router() chi.Router {
	return a.router
}

// Handle 注册处理器
func (a *App) Handle(pattern string, h http.Handler) {
	a.router.Handle(pattern, h)
}

// HandleFunc 注册处理函数
func (a *App) HandleFunc(pattern string, fn http.HandlerFunc) {
	a.router.HandleFunc(pattern, fn)
}

// NotFound 设置未被任何路由处理的请求的处理器，
// 包括路径匹配但方法不匹配的请求
func (a *App) NotFound(h http.Handler) {
	a.router.NotFound(h.ServeHTTP)
	a.router.MethodNotAllowed(h.ServeHTTP)
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mu.RLock()
	h := a.handler
	a.mu.RUnlock()

	if h == nil {
		a.mu.Lock()
		if a.handler == nil {
			var inner http.Handler = a.router
			if len(a.statics) > 0 {
				inner = a.statics.Handler(a.router)
			}
			a.handler = a.mws.Handler(inner)
		}
		h = a.handler
		a.mu.Unlock()
	}

	h.ServeHTTP(w, r)
}
