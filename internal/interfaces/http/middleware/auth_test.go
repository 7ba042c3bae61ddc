package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	identityapp "github.com/dshop/backend/internal/application/identity"
	"github.com/dshop/backend/internal/domain/identity"
	"github.com/dshop/backend/internal/domain/shared"
	"github.com/dshop/backend/internal/domain/shop"
	"github.com/dshop/backend/internal/infrastructure/auth"
)

type mockAuthenticator struct {
	mock.Mock
}

func (m *mockAuthenticator) Authenticate(ctx context.Context, token string) (*identityapp.Principal, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityapp.Principal), args.Error(1)
}

type mockShopResolver struct {
	mock.Mock
}

func (m *mockShopResolver) ResolveShop(ctx context.Context, authToken string) (*shop.Shop, error) {
	args := m.Called(ctx, authToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shop.Shop), args.Error(1)
}

func (m *mockShopResolver) Membership(ctx context.Context, sellerID, shopID int64) (*shop.Membership, error) {
	args := m.Called(ctx, sellerID, shopID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shop.Membership), args.Error(1)
}

func testPrincipal(superuser bool) *identityapp.Principal {
	return &identityapp.Principal{
		Seller: &identity.Seller{BaseEntity: shared.BaseEntity{ID: 7}, Email: "ada@example.com", Superuser: superuser},
		Claims: &auth.Claims{SellerID: 7},
	}
}

func testShop() *shop.Shop {
	return &shop.Shop{BaseEntity: shared.BaseEntity{ID: 3}, Name: "Store", AuthToken: "shop-token"}
}

func serve(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthSeller(t *testing.T) {
	authn := new(mockAuthenticator)
	authn.On("Authenticate", mock.Anything, "good").Return(testPrincipal(false), nil)
	authn.On("Authenticate", mock.Anything, "bad").Return(nil, identityapp.ErrUnauthenticated)
	authn.On("Authenticate", mock.Anything, "broken").Return(nil, errors.New("redis down"))

	router := gin.New()
	router.GET("/me", AuthSeller(authn), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": GetSeller(c).ID, "claims": GetClaims(c) != nil})
	})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid token", "Bearer good", http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good", http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
		{"rejected token", "Bearer bad", http.StatusUnauthorized},
		{"lookup failure", "Bearer broken", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set(AuthHeaderKey, tt.header)
			}
			w := serve(router, req)
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.JSONEq(t, `{"id":7,"claims":true}`, w.Body.String())
			} else {
				assert.Contains(t, w.Body.String(), `"success":false`)
			}
		})
	}
}

func TestAuthShop(t *testing.T) {
	shops := new(mockShopResolver)
	shops.On("ResolveShop", mock.Anything, "shop-token").Return(testShop(), nil)
	shops.On("ResolveShop", mock.Anything, "").Return(nil, identityapp.ErrUnknownShop)

	router := gin.New()
	router.POST("/shipping", AuthShop(shops), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"shop": GetShop(c).ID})
	})

	req := httptest.NewRequest(http.MethodPost, "/shipping", nil)
	req.Header.Set(ShopAuthKey, "shop-token")
	w := serve(router, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"shop":3}`, w.Body.String())

	w = serve(router, httptest.NewRequest(http.MethodPost, "/shipping", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"Unauthorized"}`, w.Body.String())
}

func TestAuthSellerAndShop(t *testing.T) {
	newRouter := func(authn SellerAuthenticator, shops ShopResolver, extra ...gin.HandlerFunc) *gin.Engine {
		router := gin.New()
		handlers := append([]gin.HandlerFunc{AuthSellerAndShop(authn, shops)}, extra...)
		handlers = append(handlers, func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
		router.GET("/events", handlers...)
		return router
	}
	request := func() *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/events", nil)
		req.Header.Set(AuthHeaderKey, "Bearer good")
		req.Header.Set(ShopAuthKey, "shop-token")
		return req
	}

	t.Run("member passes", func(t *testing.T) {
		authn := new(mockAuthenticator)
		authn.On("Authenticate", mock.Anything, "good").Return(testPrincipal(false), nil)
		shops := new(mockShopResolver)
		shops.On("ResolveShop", mock.Anything, "shop-token").Return(testShop(), nil)
		shops.On("Membership", mock.Anything, int64(7), int64(3)).
			Return(&shop.Membership{SellerID: 7, ShopID: 3, Role: shop.RoleBasic}, nil)

		assert.Equal(t, http.StatusOK, serve(newRouter(authn, shops), request()).Code)
	})

	t.Run("non member is rejected", func(t *testing.T) {
		authn := new(mockAuthenticator)
		authn.On("Authenticate", mock.Anything, "good").Return(testPrincipal(false), nil)
		shops := new(mockShopResolver)
		shops.On("ResolveShop", mock.Anything, "shop-token").Return(testShop(), nil)
		shops.On("Membership", mock.Anything, int64(7), int64(3)).Return(nil, identityapp.ErrNotShopMember)

		assert.Equal(t, http.StatusUnauthorized, serve(newRouter(authn, shops), request()).Code)
	})

	t.Run("seller failure stops before shop lookup", func(t *testing.T) {
		authn := new(mockAuthenticator)
		authn.On("Authenticate", mock.Anything, "good").Return(nil, identityapp.ErrUnauthenticated)
		shops := new(mockShopResolver)

		assert.Equal(t, http.StatusUnauthorized, serve(newRouter(authn, shops), request()).Code)
		shops.AssertNotCalled(t, "ResolveShop", mock.Anything, mock.Anything)
	})

	t.Run("role requirement", func(t *testing.T) {
		authn := new(mockAuthenticator)
		authn.On("Authenticate", mock.Anything, "good").Return(testPrincipal(false), nil)
		shops := new(mockShopResolver)
		shops.On("ResolveShop", mock.Anything, "shop-token").Return(testShop(), nil)
		shops.On("Membership", mock.Anything, int64(7), int64(3)).
			Return(&shop.Membership{SellerID: 7, ShopID: 3, Role: shop.RoleBasic}, nil).Once()
		shops.On("Membership", mock.Anything, int64(7), int64(3)).
			Return(&shop.Membership{SellerID: 7, ShopID: 3, Role: shop.RoleAdmin}, nil).Once()
		router := newRouter(authn, shops, RequireShopRole(shop.RoleAdmin))

		w := serve(router, request())
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.JSONEq(t, `{"success":false,"message":"Forbidden"}`, w.Body.String())

		assert.Equal(t, http.StatusOK, serve(router, request()).Code)
	})
}

func TestRequireShopRole_WithoutMembership(t *testing.T) {
	router := gin.New()
	router.GET("/events", RequireShopRole(shop.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := serve(router, httptest.NewRequest(http.MethodGet, "/events", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireSuperUser(t *testing.T) {
	authn := new(mockAuthenticator)
	authn.On("Authenticate", mock.Anything, "admin").Return(testPrincipal(true), nil)
	authn.On("Authenticate", mock.Anything, "seller").Return(testPrincipal(false), nil)

	router := gin.New()
	router.GET("/super-admin/queue", AuthSeller(authn), RequireSuperUser(), func(c *gin.Context) {
		c.String(http.StatusOK, "dashboard")
	})

	req := httptest.NewRequest(http.MethodGet, "/super-admin/queue", nil)
	req.Header.Set(AuthHeaderKey, "Bearer admin")
	w := serve(router, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "dashboard", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/super-admin/queue", nil)
	req.Header.Set(AuthHeaderKey, "Bearer seller")
	assert.Equal(t, http.StatusForbidden, serve(router, req).Code)

	assert.Equal(t, http.StatusUnauthorized, serve(router, httptest.NewRequest(http.MethodGet, "/super-admin/queue", nil)).Code)
}
