package handler

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/martinsuhendra/manta/internal/application"
	"github.com/martinsuhendra/manta/internal/domain/catalog"
	"github.com/martinsuhendra/manta/pkg/auth"
	"github.com/martinsuhendra/manta/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListProducts_PublicActiveOnly(t *testing.T) {
	var activeOnly []bool
	stub := &stubCatalog{listProduct: func(a bool) ([]application.ProductDTO, error) {
		activeOnly = append(activeOnly, a)
		return []application.ProductDTO{}, nil
	}}
	srv := newTestServer(NewCatalogHandler(stub))

	w := srv.do(t, http.MethodGet, "/api/v1/products", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = srv.do(t, http.MethodGet, "/api/v1/admin/products", srv.token(t, uuid.New(), auth.RoleAdmin), nil)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, []bool{true, false}, activeOnly)
}

func TestGetProduct(t *testing.T) {
	id := uuid.New()
	stub := &stubCatalog{getProduct: func(got uuid.UUID) (*application.ProductDTO, error) {
		if got != id {
			return nil, domain.NewNotFoundError("Product", got.String())
		}
		return &application.ProductDTO{ID: id, Name: "Monthly Unlimited"}, nil
	}}
	srv := newTestServer(NewCatalogHandler(stub))

	w := srv.do(t, http.MethodGet, "/api/v1/products/"+id.String(), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decode(t, w).Data), "Monthly Unlimited")

	w = srv.do(t, http.MethodGet, "/api/v1/products/"+uuid.NewString(), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Product not found", decode(t, w).Error)

	w = srv.do(t, http.MethodGet, "/api/v1/products/xyz", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid product ID", decode(t, w).Error)
}

func TestCreateItem_Validation(t *testing.T) {
	stub := &stubCatalog{createItem: func(req application.CreateItemRequest) (*application.ItemDTO, error) {
		return &application.ItemDTO{ID: uuid.New(), Name: req.Name, Capacity: req.Capacity, IsActive: true}, nil
	}}
	srv := newTestServer(NewCatalogHandler(stub))
	admin := srv.token(t, uuid.New(), auth.RoleAdmin)

	w := srv.do(t, http.MethodPost, "/api/v1/admin/items", admin, map[string]any{"name": "Yoga", "capacity": 0})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, fieldErrors(t, decode(t, w)), "capacity")

	w = srv.do(t, http.MethodPost, "/api/v1/admin/items", admin, map[string]any{"name": "Yoga", "capacity": 12})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, string(decode(t, w).Data), `"capacity":12`)
}

func TestCreateItem_MemberForbidden(t *testing.T) {
	srv := newTestServer(NewCatalogHandler(&stubCatalog{}))

	w := srv.do(t, http.MethodPost, "/api/v1/admin/items", srv.token(t, uuid.New(), auth.RoleMember), map[string]any{"name": "Yoga", "capacity": 12})

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreateProduct_QuotaTypeValidated(t *testing.T) {
	srv := newTestServer(NewCatalogHandler(&stubCatalog{}))

	w := srv.do(t, http.MethodPost, "/api/v1/admin/products", srv.token(t, uuid.New(), auth.RoleAdmin), map[string]any{
		"name":         "Class Pack",
		"priceCents":   50_000_00,
		"durationDays": 30,
		"items": []map[string]any{
			{"itemId": uuid.NewString(), "quotaType": "UNLIMITED"},
		},
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, fieldErrors(t, decode(t, w)), "quotaType")
}

func TestDeleteQuotaPool_InUse(t *testing.T) {
	stub := &stubCatalog{deletePool: func(uuid.UUID) error {
		return domain.NewRuleViolation(catalog.ErrPoolInUse)
	}}
	srv := newTestServer(NewCatalogHandler(stub))

	w := srv.do(t, http.MethodDelete, "/api/v1/admin/quota-pools/"+uuid.NewString(), srv.token(t, uuid.New(), auth.RoleAdmin), nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, catalog.ErrPoolInUse, decode(t, w).Error)
}
