package console

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront_202610/pkg/formstate"
)

func writeEnvelope(w http.ResponseWriter, status int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	code := 0
	if status >= 400 {
		code = status
	}
	body := map[string]interface{}{"code": code, "message": message}
	if data != nil {
		body["data"] = data
	}
	_ = json.NewEncoder(w).Encode(body)
}

func TestClient_LoginSetsToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			writeEnvelope(w, 200, "success", map[string]interface{}{
				"access_token": "tok-1",
				"user":         map[string]interface{}{"id": 1, "username": "admin", "role": "admin"},
			})
		case "/api/admin/dashboard/stats":
			gotAuth = r.Header.Get("Authorization")
			writeEnvelope(w, 200, "success", map[string]interface{}{
				"count":         map[string]interface{}{"revenue": 120.5, "user": 3, "order": 2, "product": 7},
				"changePercent": map[string]float64{"revenue": 12.5},
			})
		default:
			writeEnvelope(w, 404, "not found", nil)
		}
	}))
	defer srv.Close()

	c := NewClient(ClientOptions{BaseURL: srv.URL})
	s, err := c.Login(context.Background(), "admin", "pw")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", s.AccessToken)
	assert.Equal(t, "admin", s.User.Role)

	stats, err := c.FetchDashboardStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-1", gotAuth)
	assert.Equal(t, int64(7), stats.Count.Product)
	assert.InDelta(t, 12.5, stats.ChangePercent["revenue"], 1e-9)
}

func TestClient_ErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/empty") {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		writeEnvelope(w, 400, "Price must be a number", nil)
	}))
	defer srv.Close()

	c := NewClient(ClientOptions{BaseURL: srv.URL})

	_, err := c.FetchProduct(context.Background(), "1")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "应返回 APIError, got %v", err)
	assert.Equal(t, 400, apiErr.Status)
	assert.Equal(t, "Price must be a number", apiErr.UserMessage())

	_, err = c.FetchProduct(context.Background(), "empty")
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 500, apiErr.Status)
	assert.Equal(t, FallbackMessage, apiErr.UserMessage())
}

func TestClient_UpdateProductMultipart(t *testing.T) {
	var fields map[string][]string
	var fileNames []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/admin/products/42" {
			writeEnvelope(w, 404, "not found", nil)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			writeEnvelope(w, 400, err.Error(), nil)
			return
		}
		fields = r.MultipartForm.Value
		for _, fh := range r.MultipartForm.File["colorImages0"] {
			fileNames = append(fileNames, fh.Filename)
		}
		writeEnvelope(w, 200, "success", map[string]interface{}{"id": 42, "name": fields["name"][0]})
	}))
	defer srv.Close()

	f := formstate.NewForm(nil)
	f.Initialize(&formstate.Product{
		ID:    "42",
		Name:  "Tee",
		Price: "19.99",
		Colors: []formstate.ProductColor{{
			ColorName: "Red",
			Stock:     2,
			Photos:    []formstate.PersistedImage{{PublicID: "p1", URL: "http://img/p1.jpg"}},
		}},
	})
	require.NoError(t, f.AppendGalleryImages(0, formstate.File{Name: "new.png", ContentType: "image/png", Data: []byte("png")}))

	c := NewClient(ClientOptions{BaseURL: srv.URL})
	p, err := c.UpdateProduct(context.Background(), "42", f.Payload())
	require.NoError(t, err)
	assert.Equal(t, "Tee", p.Name)

	assert.Equal(t, []string{"1"}, fields["numColorVariants"])
	assert.Equal(t, []string{"Red"}, fields["colorName0"])
	assert.Equal(t, []string{"2"}, fields["colorStock0"])
	assert.Equal(t, []string{"p1"}, fields["existingColorImageIds0"])
	assert.Equal(t, []string{"new.png"}, fileNames)
}

func TestProduct_FormProduct(t *testing.T) {
	p := &Product{
		ID:          7,
		Name:        "Tee",
		PriceAmount: 2599,
		CategoryID:  3,
		Colors: []Color{{
			ColorName:  "Red",
			Stock:      4,
			ColorImage: &ImageRef{URL: "http://img/c.jpg"},
			Photos:     []ImageRef{{PublicID: "a", URL: "http://img/a.jpg"}},
		}},
	}
	fp := p.FormProduct()
	assert.Equal(t, "7", fp.ID)
	assert.Equal(t, "25.99", fp.Price)
	assert.Equal(t, "3", fp.CategoryID)
	assert.Equal(t, "", fp.SubcategoryID)
	require.Len(t, fp.Colors, 1)
	assert.Equal(t, "http://img/c.jpg", fp.Colors[0].ColorImageURL)
	assert.Equal(t, "a", fp.Colors[0].Photos[0].PublicID)

	assert.Equal(t, "0.05", formatMinor(5))
	assert.Equal(t, "-1.50", formatMinor(-150))
}
