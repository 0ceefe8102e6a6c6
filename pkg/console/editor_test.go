package console

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront_202610/pkg/formstate"
)

type fakeProductAPI struct {
	mu        sync.Mutex
	product   *Product
	cats      []Category
	updateErr error
	respond   func(formstate.Payload) *Product
	updates   int
	lastID    string
	last      formstate.Payload
}

func (f *fakeProductAPI) FetchProduct(ctx context.Context, id string) (*Product, error) {
	if f.product == nil {
		return nil, &APIError{Status: 404, Message: "Product not found"}
	}
	p := *f.product
	return &p, nil
}

func (f *fakeProductAPI) FetchCategories(ctx context.Context) ([]Category, error) {
	return f.cats, nil
}

func (f *fakeProductAPI) UpdateProduct(ctx context.Context, id string, payload formstate.Payload) (*Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	f.lastID = id
	f.last = payload
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	if f.respond != nil {
		return f.respond(payload), nil
	}
	name, _ := payload.Value("name")
	p := *f.product
	p.Name = name
	return &p, nil
}

func (f *fakeProductAPI) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.updates
}

func sampleProduct() *Product {
	return &Product{
		ID:          42,
		Name:        "Tee",
		PriceAmount: 1999,
		CategoryID:  1,
		Colors: []Color{{
			ColorName: "Red",
			Stock:     3,
			Photos:    []ImageRef{{PublicID: "p1", URL: "http://img/p1.jpg"}},
		}},
	}
}

func sampleCategories() []Category {
	return []Category{
		{ID: 1, Name: "Women", Subcategories: []Subcategory{{ID: 10, Name: "Tops"}}},
		{ID: 2, Name: "Men", Subcategories: []Subcategory{{ID: 20, Name: "Shirts"}, {ID: 21, Name: "Pants"}}},
	}
}

func TestEditor_SubmitWithoutProduct(t *testing.T) {
	api := &fakeProductAPI{cats: sampleCategories()}
	e := NewProductEditor(api, EditorOptions{})
	defer e.Close()

	require.NoError(t, e.Mount(context.Background(), ""))
	_, err := e.Submit(context.Background())
	assert.ErrorIs(t, err, ErrNoProduct)
	assert.Equal(t, 0, api.calls(), "未加载商品时不应发请求")

	n := e.Notice()
	require.NotNil(t, n)
	assert.False(t, n.Success)
	assert.Equal(t, "No product loaded", n.Message)
}

func TestEditor_MountAndSubcategories(t *testing.T) {
	api := &fakeProductAPI{product: sampleProduct(), cats: sampleCategories()}
	e := NewProductEditor(api, EditorOptions{})
	defer e.Close()

	require.NoError(t, e.Mount(context.Background(), "42"))
	assert.True(t, e.Form().Loaded())
	assert.Equal(t, "19.99", e.Form().Basics().Price)
	assert.Len(t, e.Subcategories(), 1)

	e.Form().SetCategory("2")
	assert.Len(t, e.Subcategories(), 2)
	assert.Equal(t, "", e.Form().Basics().SubcategoryID)

	missing := NewProductEditor(&fakeProductAPI{cats: sampleCategories()}, EditorOptions{})
	defer missing.Close()
	err := missing.Mount(context.Background(), "9")
	require.Error(t, err)
	assert.False(t, missing.Form().Loaded())
	assert.Equal(t, StatusFailed, missing.Product().Status)
	assert.True(t, missing.Categories().Ready())
}

func TestEditor_SubmitFailureKeepsState(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"server message", &APIError{Status: 400, Message: "Invalid image reference"}, "Invalid image reference"},
		{"empty message", &APIError{Status: 500}, FallbackMessage},
		{"transport", errors.New("connection refused"), FallbackMessage},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			navigated := make(chan string, 1)
			api := &fakeProductAPI{product: sampleProduct(), cats: sampleCategories(), updateErr: tc.err}
			e := NewProductEditor(api, EditorOptions{
				Navigate:      func(p string) { navigated <- p },
				NavigateDelay: 10 * time.Millisecond,
			})
			defer e.Close()
			require.NoError(t, e.Mount(context.Background(), "42"))

			require.NoError(t, e.Form().AppendGalleryImages(0, formstate.File{Name: "a.png", Data: []byte("a")}))
			before := e.Form().Variants()
			live := e.Form().Previews().Live()

			_, err := e.Submit(context.Background())
			require.Error(t, err)
			assert.Equal(t, tc.want, e.Notice().Message)
			assert.False(t, e.Notice().Success)

			assert.Equal(t, before, e.Form().Variants(), "失败后表单应保持原样")
			assert.Equal(t, live, e.Form().Previews().Live())

			select {
			case p := <-navigated:
				t.Fatalf("失败后不应跳转: %s", p)
			case <-time.After(50 * time.Millisecond):
			}
		})
	}
}

func TestEditor_SubmitSuccessNavigates(t *testing.T) {
	navigated := make(chan string, 1)
	api := &fakeProductAPI{product: sampleProduct(), cats: sampleCategories()}
	e := NewProductEditor(api, EditorOptions{
		Navigate:      func(p string) { navigated <- p },
		NavigateDelay: 10 * time.Millisecond,
	})
	defer e.Close()
	require.NoError(t, e.Mount(context.Background(), "42"))

	b := e.Form().Basics()
	b.Name = "Renamed"
	e.Form().SetBasics(b)
	require.NoError(t, e.Form().AppendGalleryImages(0, formstate.File{Name: "a.png", Data: []byte("a")}))

	updated, err := e.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, "42", api.lastID)
	assert.Len(t, api.last.Files("colorImages0"), 1)

	assert.True(t, e.Notice().Success)
	assert.Equal(t, "Product updated!", e.Notice().Message)
	assert.Equal(t, "Renamed", e.Product().Data.Name)
	assert.Equal(t, 0, e.Form().Previews().Live(), "成功后应释放全部预览")

	select {
	case p := <-navigated:
		assert.Equal(t, ProductsPath, p)
	case <-time.After(time.Second):
		t.Fatal("成功后应跳转到商品列表")
	}
}

func TestEditor_CloseCancelsNavigation(t *testing.T) {
	navigated := make(chan string, 1)
	api := &fakeProductAPI{product: sampleProduct(), cats: sampleCategories()}
	e := NewProductEditor(api, EditorOptions{
		Navigate:      func(p string) { navigated <- p },
		NavigateDelay: 50 * time.Millisecond,
	})
	require.NoError(t, e.Mount(context.Background(), "42"))
	_, err := e.Submit(context.Background())
	require.NoError(t, err)
	e.Close()

	select {
	case p := <-navigated:
		t.Fatalf("关闭后不应跳转: %s", p)
	case <-time.After(120 * time.Millisecond):
	}
}

func TestEditor_SecondSubmitKeepsUploadedImages(t *testing.T) {
	api := &fakeProductAPI{product: sampleProduct(), cats: sampleCategories()}
	// 服务端把新上传的文件转为持久图，排在已有图之后
	api.respond = func(payload formstate.Payload) *Product {
		p := *sampleProduct()
		c := p.Colors[0]
		c.Photos = append([]ImageRef(nil), c.Photos...)
		for _, f := range payload.Files("colorImages0") {
			c.Photos = append(c.Photos, ImageRef{PublicID: "new-" + f.Name, URL: "http://img/new-" + f.Name})
		}
		p.Colors = []Color{c}
		return &p
	}
	e := NewProductEditor(api, EditorOptions{})
	defer e.Close()
	require.NoError(t, e.Mount(context.Background(), "42"))

	require.NoError(t, e.Form().AppendGalleryImages(0, formstate.File{Name: "a.png", Data: []byte("a")}))
	_, err := e.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, e.Form().Previews().Live())

	imgs := e.Form().Variants()[0].Images
	require.Len(t, imgs, 2)
	assert.Equal(t, formstate.PersistedImage{PublicID: "new-a.png", URL: "http://img/new-a.png"}, imgs[1])

	_, err = e.Submit(context.Background())
	require.NoError(t, err)
	ids, _ := api.last.Value("existingColorImageIds0")
	assert.Equal(t, "p1,new-a.png", ids, "第二次提交应保留上次上传的图")
	assert.Empty(t, api.last.Files("colorImages0"))
	assert.Equal(t, 2, api.calls())
}
