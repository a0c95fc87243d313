package product

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mlopezr/catalog-api/internal/api"
)

// MockProductService is a mock implementation of the ProductService interface
type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) List(ctx context.Context, filters ListFilters) (*ListResult, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ListResult), args.Error(1)
}

func (m *MockProductService) Get(ctx context.Context, id string) (*Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Product), args.Error(1)
}

func (m *MockProductService) Create(ctx context.Context, req CreateProductRequest) (*Product, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Product), args.Error(1)
}

func (m *MockProductService) Update(ctx context.Context, id string, req UpdateProductRequest) (*Product, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Product), args.Error(1)
}

func (m *MockProductService) Delete(ctx context.Context, id string) (*DeleteResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*DeleteResult), args.Error(1)
}

func newTestRouter(service ProductService) http.Handler {
	h := NewProductHandler(service, nil, slog.Default())
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Get("/products", h.List)
	r.Get("/products/{id}", h.Get)
	r.Post("/products", h.Create)
	r.Put("/products/{id}", h.Update)
	r.Delete("/products/{id}", h.Delete)
	return r
}

func TestProductHandler_List(t *testing.T) {
	mockSvc := new(MockProductService)
	router := newTestRouter(mockSvc)

	result := &ListResult{
		Items: []Product{
			{ID: "p1", Name: "Balón Pro", Price: 45000, Category: "futbol", Active: true},
		},
		Pagination: Pagination{TotalItems: 1, TotalPages: 1, CurrentPage: 1, PageSize: 10},
	}
	mockSvc.On("List", mock.Anything, mock.AnythingOfType("product.ListFilters")).Return(result, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/products?category=futbol&page=1&limit=10", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body ListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	require.Len(t, body.Data, 1)
	assert.Equal(t, "p1", body.Data[0].ID)
	assert.Equal(t, int64(1), body.Pagination.TotalItems)
	mockSvc.AssertExpectations(t)
}

func TestProductHandler_List_ForwardsParsedFilters(t *testing.T) {
	mockSvc := new(MockProductService)
	router := newTestRouter(mockSvc)

	var got ListFilters
	mockSvc.On("List", mock.Anything, mock.AnythingOfType("product.ListFilters")).
		Run(func(args mock.Arguments) {
			got = args.Get(1).(ListFilters)
		}).
		Return(&ListResult{Items: []Product{}, Pagination: Pagination{CurrentPage: 1, PageSize: 20}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/products?category=futbol,tenis&active=true&page=3&limit=20", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"futbol", "tenis"}, got.Categories)
	require.NotNil(t, got.Active)
	assert.True(t, *got.Active)
	assert.Equal(t, 3, got.Page)
	assert.Equal(t, 20, got.Limit)
}

func TestProductHandler_Get(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		mockSvc := new(MockProductService)
		router := newTestRouter(mockSvc)

		mockSvc.On("Get", mock.Anything, "p1").Return(&Product{ID: "p1", Name: "Balón Pro"}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/products/p1", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var body api.Response
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.True(t, body.Success)
	})

	t.Run("NotFound", func(t *testing.T) {
		mockSvc := new(MockProductService)
		router := newTestRouter(mockSvc)

		mockSvc.On("Get", mock.Anything, "ghost").Return(nil, api.ErrNotFound).Once()

		req := httptest.NewRequest(http.MethodGet, "/products/ghost", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), `Product with id \"ghost\" not found`)
	})
}

func TestProductHandler_Create(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockSvc := new(MockProductService)
		router := newTestRouter(mockSvc)

		mockSvc.On("Create", mock.Anything, mock.AnythingOfType("product.CreateProductRequest")).
			Return(&Product{ID: "new1", Name: "Balón Pro", Active: true}, nil).Once()

		payload := `{"name":"Balón Pro","description":"Balón profesional de competición","price":45000,"category":"futbol"}`
		req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), "Product created successfully")
		mockSvc.AssertExpectations(t)
	})

	t.Run("ValidationFailureListsEveryField", func(t *testing.T) {
		mockSvc := new(MockProductService)
		router := newTestRouter(mockSvc)

		// name too short, description too short, price non-positive,
		// category missing: all four must be reported at once.
		payload := `{"name":"ab","description":"corta","price":0}`
		req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)

		var body struct {
			Success bool     `json:"success"`
			Error   string   `json:"error"`
			Details []string `json:"details"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.False(t, body.Success)
		assert.Equal(t, "validation failed", body.Error)
		assert.Len(t, body.Details, 4)
		mockSvc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("MalformedJSON", func(t *testing.T) {
		mockSvc := new(MockProductService)
		router := newTestRouter(mockSvc)

		req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(`{"name":`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockSvc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestProductHandler_Update(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockSvc := new(MockProductService)
		router := newTestRouter(mockSvc)

		mockSvc.On("Update", mock.Anything, "p1", mock.AnythingOfType("product.UpdateProductRequest")).
			Return(&Product{ID: "p1", Name: "Balón Pro", Price: 47000}, nil).Once()

		req := httptest.NewRequest(http.MethodPut, "/products/p1", strings.NewReader(`{"price":47000}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Product updated successfully")
		mockSvc.AssertExpectations(t)
	})

	t.Run("EmptyPayloadRejected", func(t *testing.T) {
		mockSvc := new(MockProductService)
		router := newTestRouter(mockSvc)

		req := httptest.NewRequest(http.MethodPut, "/products/p1", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "at least one field must be provided")
		mockSvc.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("NotFound", func(t *testing.T) {
		mockSvc := new(MockProductService)
		router := newTestRouter(mockSvc)

		mockSvc.On("Update", mock.Anything, "ghost", mock.AnythingOfType("product.UpdateProductRequest")).
			Return(nil, api.ErrNotFound).Once()

		req := httptest.NewRequest(http.MethodPut, "/products/ghost", strings.NewReader(`{"price":100}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestProductHandler_Delete(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockSvc := new(MockProductService)
		router := newTestRouter(mockSvc)

		mockSvc.On("Delete", mock.Anything, "p1").Return(&DeleteResult{ID: "p1"}, nil).Once()

		req := httptest.NewRequest(http.MethodDelete, "/products/p1", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `deleted`)
		mockSvc.AssertExpectations(t)
	})

	t.Run("NotFound", func(t *testing.T) {
		mockSvc := new(MockProductService)
		router := newTestRouter(mockSvc)

		mockSvc.On("Delete", mock.Anything, "ghost").Return(nil, api.ErrNotFound).Once()

		req := httptest.NewRequest(http.MethodDelete, "/products/ghost", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
