package employee_test

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"go-leave/internal/domain"
	"go-leave/internal/employee"
	employeeerrors "go-leave/internal/employee/errors"
	"go-leave/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type fakeEmployeeService struct {
	RegisterFn      func(ctx context.Context, req employee.RegisterEmployeeRequest) (employee.EmployeeResponse, error)
	GetAllFn        func(ctx context.Context) ([]employee.EmployeeResponse, error)
	GetByIDFn       func(ctx context.Context, id uint) (employee.EmployeeResponse, error)
	UpdateFn        func(ctx context.Context, id uint, req employee.UpdateEmployeeRequest) (employee.EmployeeResponse, error)
	DeleteFn        func(ctx context.Context, id uint) error
	UploadPictureFn func(ctx context.Context, id uint, upload employee.PictureUpload) (employee.PictureResponse, error)
	GetPictureFn    func(ctx context.Context, id uint) (employee.PictureResponse, error)
	OpenPictureFn   func(ctx context.Context, id uint) (storage.Object, error)
	DeletePictureFn func(ctx context.Context, id uint) error
}

func (f *fakeEmployeeService) Register(ctx context.Context, req employee.RegisterEmployeeRequest) (employee.EmployeeResponse, error) {
	return f.RegisterFn(ctx, req)
}
func (f *fakeEmployeeService) GetAll(ctx context.Context) ([]employee.EmployeeResponse, error) {
	return f.GetAllFn(ctx)
}
func (f *fakeEmployeeService) GetByID(ctx context.Context, id uint) (employee.EmployeeResponse, error) {
	return f.GetByIDFn(ctx, id)
}
func (f *fakeEmployeeService) Update(ctx context.Context, id uint, req employee.UpdateEmployeeRequest) (employee.EmployeeResponse, error) {
	return f.UpdateFn(ctx, id, req)
}
func (f *fakeEmployeeService) Delete(ctx context.Context, id uint) error {
	return f.DeleteFn(ctx, id)
}
func (f *fakeEmployeeService) EnsureAdmin(context.Context, string, string) error { return nil }
func (f *fakeEmployeeService) UploadPicture(ctx context.Context, id uint, upload employee.PictureUpload) (employee.PictureResponse, error) {
	return f.UploadPictureFn(ctx, id, upload)
}
func (f *fakeEmployeeService) GetPicture(ctx context.Context, id uint) (employee.PictureResponse, error) {
	return f.GetPictureFn(ctx, id)
}
func (f *fakeEmployeeService) OpenPicture(ctx context.Context, id uint) (storage.Object, error) {
	return f.OpenPictureFn(ctx, id)
}
func (f *fakeEmployeeService) DeletePicture(ctx context.Context, id uint) error {
	return f.DeletePictureFn(ctx, id)
}

func newTestContext(method, target string, body io.Reader, id string, actorID uint, role string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, body)
	c.Request.Header.Set("Content-Type", "application/json")
	if id != "" {
		c.Params = gin.Params{{Key: "id", Value: id}}
	}
	c.Set("employee_id", actorID)
	c.Set("role", role)
	return c, w
}

func TestEmployeeHandler_Register(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := &fakeEmployeeService{
			RegisterFn: func(ctx context.Context, req employee.RegisterEmployeeRequest) (employee.EmployeeResponse, error) {
				assert.Equal(t, "Jane", req.FirstName)
				assert.Len(t, req.LeaveBalances, 1)
				return employee.EmployeeResponse{ID: 7, FullName: "Jane Doe", Email: req.Email}, nil
			},
		}
		h := employee.NewHandler(svc)
		body := `{"first_name":"Jane","last_name":"Doe","email":"jane@example.com","department":"Eng",` +
			`"designation":"Dev","contact_no":"0812","password":"secret123",` +
			`"leave_balances":[{"leave_type_id":1,"balance":10}]}`
		c, w := newTestContext(http.MethodPost, "/api/v1/employees", strings.NewReader(body), "", 1, domain.RoleAdmin)

		h.Register(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), "Jane Doe")
	})

	t.Run("validation error", func(t *testing.T) {
		h := employee.NewHandler(&fakeEmployeeService{})
		c, w := newTestContext(http.MethodPost, "/api/v1/employees", strings.NewReader(`{}`), "", 1, domain.RoleAdmin)

		h.Register(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_INPUT")
	})

	t.Run("duplicate email returns conflict", func(t *testing.T) {
		svc := &fakeEmployeeService{
			RegisterFn: func(context.Context, employee.RegisterEmployeeRequest) (employee.EmployeeResponse, error) {
				return employee.EmployeeResponse{}, employeeerrors.ErrEmployeeAlreadyExists
			},
		}
		h := employee.NewHandler(svc)
		body := `{"first_name":"Jane","last_name":"Doe","email":"jane@example.com","department":"Eng",` +
			`"designation":"Dev","contact_no":"0812","password":"secret123"}`
		c, w := newTestContext(http.MethodPost, "/api/v1/employees", strings.NewReader(body), "", 1, domain.RoleAdmin)

		h.Register(c)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "CONFLICT")
	})
}

func TestEmployeeHandler_GetAll(t *testing.T) {
	svc := &fakeEmployeeService{
		GetAllFn: func(context.Context) ([]employee.EmployeeResponse, error) {
			return []employee.EmployeeResponse{
				{ID: 2, FullName: "Charlie Brown", Email: "charlie@example.com", Department: "Ops"},
				{ID: 3, FullName: "Alice Smith", Email: "alice@example.com", Department: "Eng"},
				{ID: 4, FullName: "Bob Stone", Email: "bob@example.com", Department: "Eng"},
			}, nil
		},
	}
	h := employee.NewHandler(svc)

	t.Run("filters, sorts and paginates", func(t *testing.T) {
		c, w := newTestContext(http.MethodGet, "/api/v1/employees?q=eng&page=1&page_size=1", nil, "", 1, domain.RoleAdmin)

		h.GetAll(c)

		assert.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Contains(t, body, "Alice Smith")
		assert.NotContains(t, body, "Bob Stone")
		assert.NotContains(t, body, "Charlie Brown")
		assert.Contains(t, body, `"total":2`)
	})

	t.Run("descending by email", func(t *testing.T) {
		c, w := newTestContext(http.MethodGet, "/api/v1/employees?sort_by=email&sort_dir=desc", nil, "", 1, domain.RoleAdmin)

		h.GetAll(c)

		body := w.Body.String()
		assert.Less(t, strings.Index(body, "charlie@"), strings.Index(body, "alice@"))
	})
}

func TestEmployeeHandler_GetByID(t *testing.T) {
	svc := &fakeEmployeeService{
		GetByIDFn: func(ctx context.Context, id uint) (employee.EmployeeResponse, error) {
			if id == 404 {
				return employee.EmployeeResponse{}, employeeerrors.ErrEmployeeNotFound
			}
			return employee.EmployeeResponse{ID: id, FullName: "Jane Doe"}, nil
		},
	}
	h := employee.NewHandler(svc)

	t.Run("self access", func(t *testing.T) {
		c, w := newTestContext(http.MethodGet, "/api/v1/employees/7", nil, "7", 7, domain.RoleEmployee)

		h.GetByID(c)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("other employee is forbidden", func(t *testing.T) {
		c, w := newTestContext(http.MethodGet, "/api/v1/employees/8", nil, "8", 7, domain.RoleEmployee)

		h.GetByID(c)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("admin sees anyone, not found maps to 404", func(t *testing.T) {
		c, w := newTestContext(http.MethodGet, "/api/v1/employees/404", nil, "404", 1, domain.RoleAdmin)

		h.GetByID(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		c, w := newTestContext(http.MethodGet, "/api/v1/employees/abc", nil, "abc", 1, domain.RoleAdmin)

		h.GetByID(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestEmployeeHandler_UpdateAndDelete(t *testing.T) {
	t.Run("update admin is forbidden", func(t *testing.T) {
		svc := &fakeEmployeeService{
			UpdateFn: func(context.Context, uint, employee.UpdateEmployeeRequest) (employee.EmployeeResponse, error) {
				return employee.EmployeeResponse{}, employeeerrors.ErrAdminImmutable
			},
		}
		h := employee.NewHandler(svc)
		body := `{"first_name":"A","last_name":"B","email":"a@example.com","department":"Eng","designation":"Dev","contact_no":"1"}`
		c, w := newTestContext(http.MethodPut, "/api/v1/employees/1", strings.NewReader(body), "1", 1, domain.RoleAdmin)

		h.Update(c)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("delete with approved leave is refused", func(t *testing.T) {
		svc := &fakeEmployeeService{
			DeleteFn: func(context.Context, uint) error { return employeeerrors.ErrHasApprovedLeaves },
		}
		h := employee.NewHandler(svc)
		c, w := newTestContext(http.MethodDelete, "/api/v1/employees/5", nil, "5", 1, domain.RoleAdmin)

		h.Delete(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_STATE")
	})

	t.Run("delete success", func(t *testing.T) {
		svc := &fakeEmployeeService{
			DeleteFn: func(ctx context.Context, id uint) error {
				assert.Equal(t, uint(5), id)
				return nil
			},
		}
		h := employee.NewHandler(svc)
		c, w := newTestContext(http.MethodDelete, "/api/v1/employees/5", nil, "5", 1, domain.RoleAdmin)

		h.Delete(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"deleted":true`)
	})
}

func TestEmployeeHandler_Pictures(t *testing.T) {
	t.Run("upload passes the multipart file through", func(t *testing.T) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", `form-data; name="file"; filename="me.png"`)
		hdr.Set("Content-Type", "image/png")
		part, _ := mw.CreatePart(hdr)
		_, _ = part.Write([]byte("png-bytes"))
		_ = mw.Close()

		svc := &fakeEmployeeService{
			UploadPictureFn: func(ctx context.Context, id uint, upload employee.PictureUpload) (employee.PictureResponse, error) {
				assert.Equal(t, uint(7), id)
				assert.Equal(t, "me.png", upload.Filename)
				assert.Equal(t, "image/png", upload.ContentType)
				raw, _ := io.ReadAll(upload.Body)
				assert.Equal(t, "png-bytes", string(raw))
				return employee.PictureResponse{URL: "/api/v1/employees/7/profile-picture/raw"}, nil
			},
		}
		h := employee.NewHandler(svc)
		c, w := newTestContext(http.MethodPost, "/api/v1/employees/7/profile-picture", &buf, "7", 7, domain.RoleEmployee)
		c.Request.Header.Set("Content-Type", mw.FormDataContentType())

		h.UploadPicture(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "profile-picture/raw")
	})

	t.Run("upload without file", func(t *testing.T) {
		h := employee.NewHandler(&fakeEmployeeService{})
		c, w := newTestContext(http.MethodPost, "/api/v1/employees/7/profile-picture", strings.NewReader(""), "7", 7, domain.RoleEmployee)

		h.UploadPicture(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("cannot touch another employee's picture", func(t *testing.T) {
		h := employee.NewHandler(&fakeEmployeeService{})
		c, w := newTestContext(http.MethodDelete, "/api/v1/employees/8/profile-picture", nil, "8", 7, domain.RoleEmployee)

		h.DeletePicture(c)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("raw content is streamed", func(t *testing.T) {
		svc := &fakeEmployeeService{
			OpenPictureFn: func(context.Context, uint) (storage.Object, error) {
				return storage.Object{
					Body:        io.NopCloser(strings.NewReader("gif-bytes")),
					ContentType: "image/gif",
					Size:        9,
				}, nil
			},
		}
		h := employee.NewHandler(svc)
		c, w := newTestContext(http.MethodGet, "/api/v1/employees/7/profile-picture/raw", nil, "7", 1, domain.RoleAdmin)

		h.GetPictureContent(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "image/gif", w.Header().Get("Content-Type"))
		assert.Equal(t, "gif-bytes", w.Body.String())
	})

	t.Run("missing picture -> 404", func(t *testing.T) {
		svc := &fakeEmployeeService{
			OpenPictureFn: func(context.Context, uint) (storage.Object, error) {
				return storage.Object{}, employeeerrors.ErrPictureNotFound
			},
		}
		h := employee.NewHandler(svc)
		c, w := newTestContext(http.MethodGet, "/api/v1/employees/7/profile-picture/raw", nil, "7", 7, domain.RoleEmployee)

		h.GetPictureContent(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
