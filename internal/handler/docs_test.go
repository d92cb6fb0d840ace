package handler

import (
	"encoding/json"
	"regexp"
	"strings"
	"testing"

	_ "assetverse/api/swagger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
	"go.uber.org/zap"
)

var pathParam = regexp.MustCompile(`:(\w+)`)

func TestSwaggerDocumentsEveryRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	log := zap.NewNop()
	noop := func(c *gin.Context) {}
	api := r.Group("")
	NewAuthHandler(nil, log).RegisterRoutes(api, noop)
	NewAssetHandler(nil, log).RegisterRoutes(api, noop)
	NewRequestHandler(nil, log).RegisterRoutes(api, noop)
	NewEmployeeHandler(nil, nil, log).RegisterRoutes(api, noop)
	NewPackageHandler(nil, log).RegisterRoutes(api, noop)
	NewAuditHandler(nil, log).RegisterRoutes(api, noop)

	raw, err := swag.ReadDoc("swagger")
	require.NoError(t, err)
	var doc struct {
		Paths map[string]map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))

	routes := r.Routes()
	require.NotEmpty(t, routes)
	for _, route := range routes {
		path := pathParam.ReplaceAllString(route.Path, "{$1}")
		ops, ok := doc.Paths[path]
		if !assert.True(t, ok, "undocumented path %s", path) {
			continue
		}
		_, ok = ops[strings.ToLower(route.Method)]
		assert.True(t, ok, "undocumented %s %s", route.Method, path)
	}
}
