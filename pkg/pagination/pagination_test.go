package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func parseQuery(rawQuery string) Params {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?"+rawQuery, nil)
	return Parse(c)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  Params
	}{
		{"defaults", "", Params{Page: 1, Limit: DefaultLimit, Offset: 0}},
		{"explicit", "page=3&limit=5", Params{Page: 3, Limit: 5, Offset: 10}},
		{"negative page", "page=-2&limit=5", Params{Page: 1, Limit: 5, Offset: 0}},
		{"limit capped", "limit=1000", Params{Page: 1, Limit: MaxLimit, Offset: 0}},
		{"garbage", "page=x&limit=y", Params{Page: 1, Limit: DefaultLimit, Offset: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseQuery(tt.query))
		})
	}
}
