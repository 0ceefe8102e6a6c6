package console

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	"storefront_202610/pkg/formstate"
)

// ErrNoProduct 未加载商品时提交，不发请求
var ErrNoProduct = errors.New("no product loaded")

const (
	// ProductsPath 保存成功后跳转的列表页
	ProductsPath = "/admin/products"
	// DefaultNavigateDelay 保存成功到跳转之间的停留
	DefaultNavigateDelay = 1200 * time.Millisecond
)

// ProductAPI 编辑器依赖的接口
type ProductAPI interface {
	FetchProduct(ctx context.Context, id string) (*Product, error)
	FetchCategories(ctx context.Context) ([]Category, error)
	UpdateProduct(ctx context.Context, id string, payload formstate.Payload) (*Product, error)
}

// Notice 给用户的一次提示
type Notice struct {
	Success bool
	Message string
}

// EditorOptions 编辑器配置
type EditorOptions struct {
	Navigate      func(path string)
	NavigateDelay time.Duration
	Previews      *formstate.PreviewRegistry
	Logger        *zap.Logger
}

// ProductEditor 商品编辑页
type ProductEditor struct {
	api        ProductAPI
	form       *formstate.Form
	product    *Slice[*Product]
	categories *Slice[[]Category]
	log        *zap.Logger

	navigate func(string)
	delay    time.Duration

	mu     sync.Mutex
	timer  *time.Timer
	notice *Notice
}

func NewProductEditor(api ProductAPI, opts EditorOptions) *ProductEditor {
	if opts.NavigateDelay <= 0 {
		opts.NavigateDelay = DefaultNavigateDelay
	}
	if opts.Navigate == nil {
		opts.Navigate = func(string) {}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &ProductEditor{
		api:        api,
		form:       formstate.NewForm(opts.Previews),
		product:    NewSlice[*Product](),
		categories: NewSlice[[]Category](),
		log:        opts.Logger,
		navigate:   opts.Navigate,
		delay:      opts.NavigateDelay,
	}
}

func (e *ProductEditor) Form() *formstate.Form            { return e.form }
func (e *ProductEditor) Product() State[*Product]         { return e.product.Snapshot() }
func (e *ProductEditor) Categories() State[[]Category]    { return e.categories.Snapshot() }
func (e *ProductEditor) ProductSlice() *Slice[*Product]   { return e.product }
func (e *ProductEditor) CategorySlice() *Slice[[]Category] { return e.categories }

// Mount 并发拉取分类与商品，productID 为空时表单保持未加载
// 返回商品加载错误，分类失败只影响下拉选项
func (e *ProductEditor) Mount(ctx context.Context, productID string) error {
	var productErr error
	var wg conc.WaitGroup

	wg.Go(func() {
		if err := e.categories.Load(ctx, e.api.FetchCategories); err != nil {
			e.log.Warn("加载分类失败", zap.Error(err))
		}
	})
	if productID != "" {
		wg.Go(func() {
			productErr = e.product.Load(ctx, func(ctx context.Context) (*Product, error) {
				return e.api.FetchProduct(ctx, productID)
			})
		})
	}
	wg.Wait()

	if productID == "" {
		e.form.Initialize(nil)
		return nil
	}
	if productErr != nil {
		return productErr
	}
	e.form.Initialize(e.product.Snapshot().Data.FormProduct())
	return nil
}

// Subcategories 当前所选分类下的子分类
func (e *ProductEditor) Subcategories() []Subcategory {
	selected := e.form.Basics().CategoryID
	for _, c := range e.categories.Snapshot().Data {
		if strconv.FormatInt(c.ID, 10) == selected {
			return c.Subcategories
		}
	}
	return nil
}

// Submit 提交表单
// 失败时表单保持原样以便重试；成功后用返回的商品重建表单并延迟跳转
func (e *ProductEditor) Submit(ctx context.Context) (*Product, error) {
	if !e.form.Loaded() {
		e.setNotice(false, "No product loaded")
		return nil, ErrNoProduct
	}

	updated, err := e.api.UpdateProduct(ctx, e.form.ProductID(), e.form.Payload())
	if err != nil {
		msg := FallbackMessage
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			msg = apiErr.UserMessage()
		}
		e.setNotice(false, msg)
		e.log.Warn("保存商品失败", zap.String("product_id", e.form.ProductID()), zap.Error(err))
		return nil, err
	}

	// 以服务端返回的商品重建表单，新上传的图才会出现在下次提交的 existingColorImageIds 中
	if updated != nil {
		e.form.Initialize(updated.FormProduct())
	} else {
		e.form.Commit()
	}
	e.product.Set(updated)
	e.setNotice(true, "Product updated!")

	e.mu.Lock()
	if e.timer != nil {
		e.timer.Stop()
	}
	e.timer = time.AfterFunc(e.delay, func() { e.navigate(ProductsPath) })
	e.mu.Unlock()
	return updated, nil
}

// Notice 最近一次提示
func (e *ProductEditor) Notice() *Notice {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.notice == nil {
		return nil
	}
	n := *e.notice
	return &n
}

// Close 取消未触发的跳转并释放全部预览
func (e *ProductEditor) Close() {
	e.mu.Lock()
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.mu.Unlock()
	e.form.Close()
}

func (e *ProductEditor) setNotice(success bool, msg string) {
	e.mu.Lock()
	e.notice = &Notice{Success: success, Message: msg}
	e.mu.Unlock()
}
