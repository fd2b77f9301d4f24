package public

import "github.com/lumen-store/internal/provider"

// Handler 前台接口处理器入口
// 说明：该处理器覆盖游客与登录用户两类访问端。
type Handler struct {
	*provider.Container
}

// New 创建前台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
