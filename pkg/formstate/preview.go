package formstate

import (
	"sync"

	"github.com/google/uuid"
)

// PreviewRegistry 记录所有存活的预览句柄
type PreviewRegistry struct {
	mu   sync.Mutex
	live map[Preview]string // preview -> 文件名
}

func NewPreviewRegistry() *PreviewRegistry {
	return &PreviewRegistry{live: make(map[Preview]string)}
}

// Create 为本地文件生成预览
func (r *PreviewRegistry) Create(f File) Preview {
	p := Preview("preview://" + uuid.NewString())
	r.mu.Lock()
	r.live[p] = f.Name
	r.mu.Unlock()
	return p
}

// Release 释放预览，重复释放无副作用
func (r *PreviewRegistry) Release(p Preview) {
	if p == "" {
		return
	}
	r.mu.Lock()
	delete(r.live, p)
	r.mu.Unlock()
}

// Live 当前未释放的预览数
func (r *PreviewRegistry) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.live)
}

// Alive 预览是否仍有效
func (r *PreviewRegistry) Alive(p Preview) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.live[p]
	return ok
}
