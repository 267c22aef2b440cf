//go:build !integration

package shop

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"telegram-ecommerce-bot/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	method string
	path   string
	query  string
	auth   string
	body   map[string]any
}

func newTestServer(t *testing.T, status int, respBody string) (*Client, *[]recorded) {
	t.Helper()
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery, auth: r.Header.Get("Authorization")}
		if b, _ := io.ReadAll(r.Body); len(b) > 0 {
			_ = json.Unmarshal(b, &rec.body)
		}
		calls = append(calls, rec)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, respBody)
	}))
	t.Cleanup(srv.Close)

	logger := zerolog.Nop()
	c, err := NewClient(srv.URL+"/", 0, &logger)
	require.NoError(t, err)
	return c, &calls
}

func TestClient_AddToCart(t *testing.T) {
	c, calls := newTestServer(t, http.StatusOK, `{"status":"ok"}`)

	err := c.AddToCart(context.Background(), "tok", "42", 5)
	require.NoError(t, err)

	require.Len(t, *calls, 1)
	got := (*calls)[0]
	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/api/v1/to_card/", got.path)
	assert.Equal(t, "Bearer tok", got.auth)
	assert.Equal(t, "42", got.body["product_id"])
	assert.Equal(t, float64(5), got.body["quantity"])
}

func TestClient_AddToCart_FieldErrors(t *testing.T) {
	c, _ := newTestServer(t, http.StatusBadRequest,
		`{"quantity":["Only 3 left in stock.","Ensure this value is less than 100."]}`)

	err := c.AddToCart(context.Background(), "tok", "42", 500)

	var ue *domain.UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, http.StatusBadRequest, ue.StatusCode)
	assert.Equal(t, []string{"Only 3 left in stock.", "Ensure this value is less than 100."}, ue.Field("quantity"))
}

func TestClient_RemoveCartItem(t *testing.T) {
	t.Run("204 is success", func(t *testing.T) {
		c, calls := newTestServer(t, http.StatusNoContent, "")
		require.NoError(t, c.RemoveCartItem(context.Background(), "tok", "9"))
		assert.Equal(t, http.MethodDelete, (*calls)[0].method)
		assert.Equal(t, "/api/v1/remove_card/9", (*calls)[0].path)
	})

	t.Run("404 carries detail", func(t *testing.T) {
		c, _ := newTestServer(t, http.StatusNotFound, `{"detail":"Not found."}`)
		err := c.RemoveCartItem(context.Background(), "tok", "9")
		require.True(t, domain.IsUpstreamStatus(err, http.StatusNotFound))
		var ue *domain.UpstreamError
		require.ErrorAs(t, err, &ue)
		assert.Equal(t, "Not found.", ue.Detail())
	})
}

func TestClient_CreateOrder(t *testing.T) {
	t.Run("decodes checkout", func(t *testing.T) {
		c, calls := newTestServer(t, http.StatusOK, `{"session_id":"cs_1","checkout_url":"https://pay/cs_1"}`)
		out, err := c.CreateOrder(context.Background(), "tok", 41.3, 69.2)
		require.NoError(t, err)
		assert.Equal(t, "cs_1", out.SessionID)
		assert.Equal(t, "https://pay/cs_1", out.CheckoutURL)
		assert.Equal(t, 41.3, (*calls)[0].body["latitude"])
	})

	t.Run("malformed 200 body", func(t *testing.T) {
		c, _ := newTestServer(t, http.StatusOK, `<html>oops</html>`)
		_, err := c.CreateOrder(context.Background(), "tok", 1, 2)
		assert.True(t, errors.Is(err, domain.ErrMalformedResponse))
	})

	t.Run("200 without session id", func(t *testing.T) {
		c, _ := newTestServer(t, http.StatusOK, `{"checkout_url":"https://pay"}`)
		_, err := c.CreateOrder(context.Background(), "tok", 1, 2)
		assert.True(t, errors.Is(err, domain.ErrMalformedResponse))
	})
}

func TestClient_Register_FlattensNestedErrors(t *testing.T) {
	c, calls := newTestServer(t, http.StatusBadRequest,
		`{"email":{"message":"Email already registered"},"password":["Too common."],"message":"Invalid data"}`)

	err := c.Register(context.Background(), "a@b.co", "secret1", "secret1")

	var ue *domain.UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "email: Email already registered\nInvalid data\npassword: Too common.", ue.Flatten())
	assert.Empty(t, (*calls)[0].auth, "register must not send a bearer token")
}

func TestClient_ObtainToken(t *testing.T) {
	t.Run("returns access", func(t *testing.T) {
		c, _ := newTestServer(t, http.StatusOK, `{"access":"T","refresh":"R"}`)
		tok, err := c.ObtainToken(context.Background(), "good@x.com", "pw123456")
		require.NoError(t, err)
		assert.Equal(t, "T", tok)
	})

	t.Run("non field errors", func(t *testing.T) {
		c, _ := newTestServer(t, http.StatusBadRequest, `{"non_field_errors":["Invalid credentials"]}`)
		_, err := c.ObtainToken(context.Background(), "x", "y")
		var ue *domain.UpstreamError
		require.ErrorAs(t, err, &ue)
		assert.Equal(t, "Invalid credentials", ue.NonField())
	})
}

func TestClient_ListProducts_FollowsPageURL(t *testing.T) {
	c, calls := newTestServer(t, http.StatusOK, `{"results":[{"id":1,"name":"Mug"}],"next":null,"previous":null}`)

	page, err := c.ListProducts(context.Background(), c.Host()+"/api/v1/products/?cursor=abc")
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "cursor=abc", (*calls)[0].query)
	assert.Empty(t, (*calls)[0].auth)
}

func TestNewClient_RejectsRelativeHost(t *testing.T) {
	_, err := NewClient("localhost:8000", 0, nil)
	assert.Error(t, err)
}
