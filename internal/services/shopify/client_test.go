package shopify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"catalogsync/internal/logger"
	"catalogsync/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, status int, body string) (*httptest.Server, func() *http.Request) {
	t.Helper()
	var (
		mu       sync.Mutex
		captured *http.Request
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		captured = r.Clone(context.Background())
		mu.Unlock()
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, func() *http.Request {
		mu.Lock()
		defer mu.Unlock()
		return captured
	}
}

func TestFetchProductsSendsHeaders(t *testing.T) {
	srv, lastRequest := newTestServer(t, http.StatusOK, `{"products":[]}`)
	client := NewClient(time.Second, logger.Nop())

	records, err := client.FetchProducts(context.Background(), models.SyncConfig{
		EndpointURL: srv.URL + "/products.json",
		AccessToken: "shpat_secret",
	})
	require.NoError(t, err)
	assert.Empty(t, records)

	req := lastRequest()
	require.NotNil(t, req)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/products.json", req.URL.Path)
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
	assert.Equal(t, "shpat_secret", req.Header.Get(AccessTokenHeader))
}

func TestFetchProductsDecodesRecords(t *testing.T) {
	body := `{"products":[{"id":1,"title":"Shirt","body_html":"<p>x</p>","vendor":"Acme",` +
		`"product_type":"Apparel","created_at":"2024-01-01T00:00:00Z","updated_at":"2024-01-02T00:00:00Z",` +
		`"price":19.5,"stock":3,"tags":["a","b"],"image":{"src":"x"},"active":true,"handle":null}]}`
	srv, _ := newTestServer(t, http.StatusOK, body)
	client := NewClient(time.Second, logger.Nop())

	records, err := client.FetchProducts(context.Background(), models.SyncConfig{EndpointURL: srv.URL})
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	assert.True(t, r.HasID)
	assert.EqualValues(t, 1, r.ID)
	assert.Equal(t, "Shirt", r.Title)
	require.NotNil(t, r.BodyHTML)
	assert.Equal(t, "<p>x</p>", *r.BodyHTML)
	assert.Equal(t, "Acme", r.Vendor)
	assert.Equal(t, "Apparel", r.ProductType)
	assert.Equal(t, "2024-01-01T00:00:00Z", r.CreatedAt)
	assert.Equal(t, "2024-01-02T00:00:00Z", r.UpdatedAt)

	names := make([]string, 0, len(r.Fields))
	for _, f := range r.Fields {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"id", "title", "body_html", "vendor", "product_type", "created_at", "updated_at", "price", "stock", "active", "handle"}, names)

	price, ok := r.Lookup("price")
	require.True(t, ok)
	assert.Equal(t, models.KindFloat, price.Kind)
	assert.Equal(t, 19.5, price.Float)

	stock, _ := r.Lookup("stock")
	assert.Equal(t, models.KindInteger, stock.Kind)
	assert.EqualValues(t, 3, stock.Int)

	active, _ := r.Lookup("active")
	assert.Equal(t, models.KindBool, active.Kind)

	handle, _ := r.Lookup("handle")
	assert.True(t, handle.IsNull())
}

func TestFetchProductsErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{"errors":"boom"}`},
		{name: "not found", status: http.StatusNotFound, body: `not found`},
		{name: "invalid json", status: http.StatusOK, body: `{"products":[`, want: ErrInvalidJSON},
		{name: "missing products", status: http.StatusOK, body: `{"items":[]}`, want: ErrMissingProducts},
		{name: "products not array", status: http.StatusOK, body: `{"products":{"id":1}}`, want: ErrMissingProducts},
		{name: "top level array", status: http.StatusOK, body: `[{"id":1}]`, want: ErrMissingProducts},
		{name: "scalar product", status: http.StatusOK, body: `{"products":[{"id":1},"junk"]}`, want: ErrInvalidProduct},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, tt.status, tt.body)
			client := NewClient(time.Second, logger.Nop())

			records, err := client.FetchProducts(context.Background(), models.SyncConfig{EndpointURL: srv.URL})
			require.Error(t, err)
			assert.Nil(t, records)

			var fetchErr *FetchError
			require.True(t, errors.As(err, &fetchErr))
			assert.Equal(t, srv.URL, fetchErr.URL)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			} else {
				assert.Equal(t, tt.status, fetchErr.StatusCode)
			}
		})
	}
}

func TestFetchProductsWithoutEndpoint(t *testing.T) {
	client := NewClient(time.Second, logger.Nop())

	_, err := client.FetchProducts(context.Background(), models.SyncConfig{})
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
}

func TestFetchProductsNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewClient(time.Second, logger.Nop())
	_, err := client.FetchProducts(context.Background(), models.SyncConfig{EndpointURL: url})

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Zero(t, fetchErr.StatusCode)
}

func TestTransformProductStringID(t *testing.T) {
	records, err := DecodeProducts([]byte(`{"products":[{"id":"42","title":"Mug"},{"title":"no id","body_html":null},{"id":1.5}]}`))
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.True(t, records[0].HasID)
	assert.EqualValues(t, 42, records[0].ID)
	assert.False(t, records[1].HasID)
	assert.Nil(t, records[1].BodyHTML)
	assert.False(t, records[2].HasID)
}
