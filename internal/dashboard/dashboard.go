// Package dashboard はダッシュボードHTMLの配信を提供する。
// HTMLは外部の配信元から取得し、短時間メモリにキャッシュして返す。
package dashboard

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/hitoshi/fixit/internal/model"
)

// maxHTMLSize は取得するHTMLの上限サイズ（1MB）。
const maxHTMLSize = 1 << 20

// Handler は配信元からHTMLを取得してキャッシュ付きで返すHTTPハンドラー。
type Handler struct {
	client *http.Client
	url    string
	ttl    time.Duration

	mu        sync.RWMutex
	cached    []byte
	fetchedAt time.Time
}

// NewHandler はHandlerを生成する。
// clientがnilの場合は10秒タイムアウトのクライアントを使用する。
func NewHandler(client *http.Client, url string, ttl time.Duration) *Handler {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Handler{
		client: client,
		url:    url,
		ttl:    ttl,
	}
}

// ServeHTTP はダッシュボードHTMLを返す。
// キャッシュが新鮮ならそれを返し、古ければ再取得する。
// 再取得に失敗した場合は期限切れのキャッシュがあればそれで代替する。
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if html, ok := h.fresh(); ok {
		writeHTML(w, html)
		return
	}

	html, err := h.fetch(r)
	if err != nil {
		slog.Error("failed to fetch dashboard html",
			slog.String("url", h.url),
			slog.String("error", err.Error()),
		)

		// 古いキャッシュでも無応答よりは良い
		if stale := h.stale(); stale != nil {
			writeHTML(w, stale)
			return
		}

		writeUpstreamError(w)
		return
	}

	writeHTML(w, html)
}

// fresh はTTL内のキャッシュを返す。
func (h *Handler) fresh() ([]byte, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.cached != nil && time.Since(h.fetchedAt) < h.ttl {
		return h.cached, true
	}
	return nil, false
}

// stale は期限切れを含むキャッシュを返す。キャッシュがなければnil。
func (h *Handler) stale() []byte {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cached
}

// fetch は配信元からHTMLを取得してキャッシュを更新する。
func (h *Handler) fetch(r *http.Request) ([]byte, error) {
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, h.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upstream returned status %d", resp.StatusCode)
	}

	html, err := io.ReadAll(io.LimitReader(resp.Body, maxHTMLSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	h.mu.Lock()
	h.cached = html
	h.fetchedAt = time.Now()
	h.mu.Unlock()

	return html, nil
}

// writeHTML はHTMLレスポンスを書き込む。
func writeHTML(w http.ResponseWriter, html []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(html)
}

// writeUpstreamError は配信元取得失敗のエラーレスポンスを書き込む。
func writeUpstreamError(w http.ResponseWriter) {
	apiErr := model.NewUpstreamUnavailableError()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadGateway)
	json.NewEncoder(w).Encode(map[string]string{
		"code":     apiErr.Code,
		"message":  apiErr.Message,
		"category": apiErr.Category,
		"action":   apiErr.Action,
	})
}
