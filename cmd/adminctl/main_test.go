package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	require.NoError(t, app.Run(append([]string{"adminctl"}, args...)), out.String())
	return out.String()
}

func reply(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"code": 0, "message": "success", "data": data})
}

func fakeBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/products/42", func(w http.ResponseWriter, r *http.Request) {
		reply(w, map[string]interface{}{
			"id": 42, "name": "Tee", "price": 19.99, "price_amount": 1999, "category_id": 1,
			"colors": []map[string]interface{}{
				{"colorName": "Red", "stock": 3, "photos": []map[string]string{
					{"public_id": "p1", "url": "http://img/p1.jpg"},
					{"public_id": "p2", "url": "http://img/p2.jpg"},
				}},
			},
		})
	})
	mux.HandleFunc("/api/categories", func(w http.ResponseWriter, r *http.Request) {
		reply(w, []map[string]interface{}{{"id": 1, "name": "Women"}})
	})
	mux.HandleFunc("/api/banners", func(w http.ResponseWriter, r *http.Request) {
		reply(w, []map[string]interface{}{})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestParseIndexed(t *testing.T) {
	v, val, err := parseIndexed("2:Navy Blue")
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.Equal(t, "Navy Blue", val)

	v, val, err = parseIndexed("0:a.png,b.png")
	require.NoError(t, err)
	assert.Equal(t, 0, v)
	assert.Equal(t, "a.png,b.png", val)

	for _, bad := range []string{"Navy", "x:Navy", "-1:Navy"} {
		_, _, err := parseIndexed(bad)
		assert.Error(t, err, bad)
	}

	v, idx, err := parseIndexPair("1:3")
	require.NoError(t, err)
	assert.Equal(t, [2]int{1, 3}, [2]int{v, idx})
	_, _, err = parseIndexPair("1:z")
	assert.Error(t, err)
}

func TestPrefsCommands(t *testing.T) {
	prefs := filepath.Join(t.TempDir(), "prefs.json")

	out := run(t, "--prefs", prefs, "--system-dark", "--viewport-width", "800", "prefs", "get")
	assert.Contains(t, out, "theme=dark")
	assert.Contains(t, out, "sidebarCollapsed=true")

	out = run(t, "--prefs", prefs, "prefs", "set", "sidebar", "false")
	assert.Contains(t, out, "sidebarCollapsed=false")

	out = run(t, "--prefs", prefs, "prefs", "toggle-theme")
	assert.Contains(t, out, "theme=dark")

	out = run(t, "--prefs", prefs, "--viewport-width", "800", "prefs", "get")
	assert.Contains(t, out, "theme=dark")
	assert.Contains(t, out, "sidebarCollapsed=false")
}

func TestProductEditDryRun(t *testing.T) {
	srv := fakeBackend(t)
	prefs := filepath.Join(t.TempDir(), "prefs.json")

	out := run(t, "--server", srv.URL, "--prefs", prefs,
		"product", "edit",
		"--add-variant", "1",
		"--name", "0:Navy",
		"--stock", "1:7",
		"--set-default", "0:1",
		"--dry-run",
		"42",
	)
	assert.Contains(t, out, "numColorVariants=2")
	assert.Contains(t, out, "colorName0=Navy")
	assert.Contains(t, out, "existingColorImageIds0=p2,p1")
	assert.Contains(t, out, "colorName1=Variant 2")
	assert.Contains(t, out, "colorStock1=7")
	assert.Contains(t, out, "price=19.99")
}

func TestBannersSkeleton(t *testing.T) {
	srv := fakeBackend(t)
	out := run(t, "--server", srv.URL, "--prefs", filepath.Join(t.TempDir(), "p.json"), "banners")
	assert.Contains(t, out, "[skeleton]")
}
