package server

import (
	"encoding/json"
	"net/http"
	"time"

	"NowFM/config"
	"NowFM/core/bus"
	"NowFM/core/session"
	"NowFM/logger"
)

// APIHandler holds the shared state every HTTP handler needs.
type APIHandler struct {
	cfg   *config.Config
	store *session.Store
	bus   *bus.Bus
	cache session.EventCache // nil when Redis is disabled
}

// NewAPIHandler creates the handler set.
func NewAPIHandler(cfg *config.Config, store *session.Store, b *bus.Bus, cache session.EventCache) *APIHandler {
	return &APIHandler{cfg: cfg, store: store, bus: b, cache: cache}
}

// NowPlayingHandler 返回最近广播的播放事件，无播放时返回204
func (h *APIHandler) NowPlayingHandler(w http.ResponseWriter, r *http.Request) {
	ev := h.store.CurrentEvent()
	if ev == nil && h.cache != nil {
		// 冷启动时回退到Redis镜像
		cached, err := h.cache.Get(r.Context())
		if err != nil {
			logger.Warn("now playing cache get failed", logger.ErrorField(err))
		} else {
			ev = cached
		}
	}

	if ev == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, ev)
}

// PositionHandler 返回当前播放进度估计
func (h *APIHandler) PositionHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.store.Progress(time.Now()))
}

// HealthHandler 健康检查
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("write json response failed", logger.ErrorField(err))
	}
}
