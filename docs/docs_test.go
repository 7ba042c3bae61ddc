package docs_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/swaggo/swag/v2"

	"github.com/dshop/backend/docs"
)

type openAPIDoc struct {
	Info struct {
		Title string `json:"title"`
	} `json:"info"`
	Paths       map[string]map[string]any `json:"paths"`
	Definitions map[string]any            `json:"definitions"`
}

func readDoc(t *testing.T, raw []byte) openAPIDoc {
	t.Helper()
	var doc openAPIDoc
	require.NoError(t, json.Unmarshal(raw, &doc))
	return doc
}

func TestSwaggerInfo_Registered(t *testing.T) {
	raw, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
	require.NoError(t, err)

	doc := readDoc(t, []byte(raw))
	assert.Equal(t, "dshop backend API", doc.Info.Title)

	routes := map[string]string{
		"/orders/{orderId}/printful":         "get",
		"/orders/{orderId}/printful/create":  "post",
		"/orders/{orderId}/printful/confirm": "post",
		"/shipping":                          "post",
		"/events":                            "get",
		"/events/{txId}":                     "get",
		"/transactions":                      "get",
		"/super-admin/queue":                 "get",
	}
	for path, method := range routes {
		ops, ok := doc.Paths[path]
		require.True(t, ok, path)
		assert.Contains(t, ops, method, path)
	}
	assert.NotEmpty(t, doc.Definitions)
}

func TestSwaggerHandler_ServesDoc(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))

	require.Equal(t, http.StatusOK, w.Code)
	doc := readDoc(t, w.Body.Bytes())
	assert.Contains(t, doc.Paths, "/shipping")
}
