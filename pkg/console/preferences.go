package console

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
)

const (
	ThemeLight = "light"
	ThemeDark  = "dark"

	// CollapseBelowWidth 视口宽度低于该值时侧边栏默认收起
	CollapseBelowWidth = 1024

	keyTheme     = "theme"
	keyCollapsed = "sidebarCollapsed"
)

// ErrInvalidTheme 主题只能是 light 或 dark
var ErrInvalidTheme = errors.New("theme must be light or dark")

// KVStore 偏好持久化
type KVStore interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// ==================== 内存存储 ====================

type MemoryStore struct {
	mu   sync.Mutex
	data map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (m *MemoryStore) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

// ==================== 文件存储 ====================

// FileStore 以单个 JSON 文件保存全部键值
type FileStore struct {
	fs   afero.Fs
	path string
	mu   sync.Mutex
}

func NewFileStore(fs afero.Fs, path string) *FileStore {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &FileStore{fs: fs, path: path}
}

func (f *FileStore) load() (map[string]string, error) {
	data, err := afero.ReadFile(f.fs, f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("读取偏好文件失败: %w", err)
	}
	out := map[string]string{}
	if len(data) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("解析偏好文件失败: %w", err)
	}
	return out, nil
}

func (f *FileStore) Get(key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, err := f.load()
	if err != nil {
		return "", false, err
	}
	v, ok := m[key]
	return v, ok, nil
}

func (f *FileStore) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, err := f.load()
	if err != nil {
		return err
	}
	m[key] = value

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(f.path); dir != "" && dir != "." {
		if err := f.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("创建偏好目录失败: %w", err)
		}
	}
	return afero.WriteFile(f.fs, f.path, data, 0o644)
}

// ==================== 偏好 ====================

// Environment 首次使用时的环境提示
type Environment struct {
	SystemPrefersDark bool
	ViewportWidth     int
}

// Change 一次偏好变化
type Change struct {
	Key   string
	Value string
}

// Preferences 主题与侧边栏状态，修改立即写入存储并通知订阅者
type Preferences struct {
	store KVStore
	env   Environment

	mu     sync.Mutex
	subs   map[int]func(Change)
	nextID int
}

func NewPreferences(store KVStore, env Environment) *Preferences {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Preferences{store: store, env: env, subs: make(map[int]func(Change))}
}

// Theme 已保存的主题；未保存时跟随系统
func (p *Preferences) Theme() (string, error) {
	v, ok, err := p.store.Get(keyTheme)
	if err != nil {
		return "", err
	}
	if ok && (v == ThemeLight || v == ThemeDark) {
		return v, nil
	}
	if p.env.SystemPrefersDark {
		return ThemeDark, nil
	}
	return ThemeLight, nil
}

func (p *Preferences) SetTheme(theme string) error {
	if theme != ThemeLight && theme != ThemeDark {
		return ErrInvalidTheme
	}
	if err := p.store.Set(keyTheme, theme); err != nil {
		return err
	}
	p.publish(Change{Key: keyTheme, Value: theme})
	return nil
}

// ToggleTheme 切换主题并返回新值
func (p *Preferences) ToggleTheme() (string, error) {
	cur, err := p.Theme()
	if err != nil {
		return "", err
	}
	next := ThemeDark
	if cur == ThemeDark {
		next = ThemeLight
	}
	return next, p.SetTheme(next)
}

// SidebarCollapsed 已保存的侧边栏状态；未保存时窄屏默认收起
func (p *Preferences) SidebarCollapsed() (bool, error) {
	v, ok, err := p.store.Get(keyCollapsed)
	if err != nil {
		return false, err
	}
	switch {
	case ok && v == "true":
		return true, nil
	case ok && v == "false":
		return false, nil
	}
	return p.env.ViewportWidth > 0 && p.env.ViewportWidth < CollapseBelowWidth, nil
}

func (p *Preferences) SetSidebarCollapsed(collapsed bool) error {
	v := "false"
	if collapsed {
		v = "true"
	}
	if err := p.store.Set(keyCollapsed, v); err != nil {
		return err
	}
	p.publish(Change{Key: keyCollapsed, Value: v})
	return nil
}

// Subscribe 订阅变化，返回取消函数
func (p *Preferences) Subscribe(fn func(Change)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.subs[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}
}

func (p *Preferences) publish(c Change) {
	p.mu.Lock()
	fns := make([]func(Change), 0, len(p.subs))
	for _, fn := range p.subs {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(c)
	}
}
