package console

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultAutoplayInterval 自动轮播间隔
const DefaultAutoplayInterval = 2500 * time.Millisecond

// BannerAPI 轮播图数据来源
type BannerAPI interface {
	FetchBanners(ctx context.Context) ([]Banner, error)
}

// Slide 一张幻灯片
type Slide struct {
	BannerID int64
	URL      string
	Alt      string
}

// CarouselView 渲染结果: 骨架屏或幻灯片
type CarouselView struct {
	Skeleton bool
	Slides   []Slide
	Active   int
}

// Carousel 首页轮播图
// 加载中、为空或失败一律显示骨架屏，不向用户暴露错误
type Carousel struct {
	banners  *Slice[[]Banner]
	api      BannerAPI
	interval time.Duration
	log      *zap.Logger

	mu     sync.Mutex
	active int
	paused bool
}

func NewCarousel(api BannerAPI, interval time.Duration, logger *zap.Logger) *Carousel {
	if interval <= 0 {
		interval = DefaultAutoplayInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Carousel{
		banners:  NewSlice[[]Banner](),
		api:      api,
		interval: interval,
		log:      logger,
	}
}

// Banners 底层数据切片
func (c *Carousel) Banners() *Slice[[]Banner] { return c.banners }

// Mount 拉取轮播图，失败只记录日志
func (c *Carousel) Mount(ctx context.Context) {
	if err := c.banners.Load(ctx, c.api.FetchBanners); err != nil {
		c.log.Debug("轮播图加载失败", zap.Error(err))
	}
}

// Slides 所有轮播组的图片按顺序展开，alt 在组内从 1 编号
func (c *Carousel) Slides() []Slide {
	var out []Slide
	for _, b := range c.banners.Snapshot().Data {
		for i, p := range b.Photos {
			out = append(out, Slide{
				BannerID: b.ID,
				URL:      p.URL,
				Alt:      fmt.Sprintf("Fashion Slide %d", i+1),
			})
		}
	}
	return out
}

// View 当前应渲染的内容
func (c *Carousel) View() CarouselView {
	st := c.banners.Snapshot()
	slides := c.Slides()
	if st.Loading() || len(slides) == 0 {
		return CarouselView{Skeleton: true}
	}

	c.mu.Lock()
	if c.active >= len(slides) {
		c.active = 0
	}
	active := c.active
	c.mu.Unlock()
	return CarouselView{Slides: slides, Active: active}
}

// Next 下一张，末尾回到第一张
func (c *Carousel) Next() { c.step(1) }

// Prev 上一张，第一张回到末尾
func (c *Carousel) Prev() { c.step(-1) }

// GoTo 点击分页圆点
func (c *Carousel) GoTo(i int) {
	n := len(c.Slides())
	if n == 0 || i < 0 || i >= n {
		return
	}
	c.mu.Lock()
	c.active = i
	c.mu.Unlock()
}

func (c *Carousel) step(delta int) {
	n := len(c.Slides())
	if n == 0 {
		return
	}
	c.mu.Lock()
	c.active = ((c.active+delta)%n + n) % n
	c.mu.Unlock()
}

// Pause 悬停时暂停
func (c *Carousel) Pause() {
	c.mu.Lock()
	c.paused = true
	c.mu.Unlock()
}

func (c *Carousel) Resume() {
	c.mu.Lock()
	c.paused = false
	c.mu.Unlock()
}

// Autoplay 按间隔自动前进，直到 ctx 结束
// 手动切换不会停止自动播放
func (c *Carousel) Autoplay(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			paused := c.paused
			c.mu.Unlock()
			if !paused {
				c.Next()
			}
		}
	}
}
