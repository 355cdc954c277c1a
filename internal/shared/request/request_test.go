package request_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go-leave/internal/shared/request"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newContext(target string, params gin.Params) *gin.Context {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	c.Params = params
	return c
}

func TestParseID(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		c := newContext("/x", gin.Params{{Key: "id", Value: "42"}})
		id, err := request.ParseID(c, "id")
		assert.NoError(t, err)
		assert.Equal(t, uint(42), id)
	})

	t.Run("rejects zero and garbage", func(t *testing.T) {
		for _, raw := range []string{"0", "abc", "-1", ""} {
			c := newContext("/x", gin.Params{{Key: "id", Value: raw}})
			_, err := request.ParseID(c, "id")
			assert.Error(t, err, raw)
		}
	})
}

func TestParseOptionalID(t *testing.T) {
	c := newContext("/x", nil)
	id, err := request.ParseOptionalID(c, "employee_id")
	assert.NoError(t, err)
	assert.Nil(t, id)

	c = newContext("/x?employee_id=7", nil)
	id, err = request.ParseOptionalID(c, "employee_id")
	assert.NoError(t, err)
	assert.Equal(t, uint(7), *id)

	c = newContext("/x?employee_id=x", nil)
	_, err = request.ParseOptionalID(c, "employee_id")
	assert.Error(t, err)
}

func TestPageDefaults(t *testing.T) {
	page, size := request.Page(newContext("/x?page=-3&page_size=0", nil))
	assert.Equal(t, 1, page)
	assert.Equal(t, 10, size)

	page, size = request.Page(newContext("/x?page=2&page_size=25", nil))
	assert.Equal(t, 2, page)
	assert.Equal(t, 25, size)
}

func TestGetActor(t *testing.T) {
	c := newContext("/x", nil)
	c.Set("employee_id", uint(9))
	c.Set("role", "ADMIN")
	assert.Equal(t, request.Actor{EmployeeID: 9, Role: "ADMIN"}, request.GetActor(c))
}
