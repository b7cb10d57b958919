package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartvillage/backend/models"
)

func newRoleContext(userType string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userType != "" {
		c.Set("userType", userType)
	}
	return c, rec
}

func okHandler(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func TestRequireUserTypeAllowsMatchingRole(t *testing.T) {
	c, rec := newRoleContext(models.RoleAdmin)

	err := RequireUserType(models.RoleAdmin)(okHandler)(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireUserTypeAllowsAnyListedRole(t *testing.T) {
	c, rec := newRoleContext(models.RoleResident)

	err := RequireUserType(models.RoleResident, models.RoleAdmin)(okHandler)(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireUserTypeForbidsOtherRole(t *testing.T) {
	c, rec := newRoleContext(models.RoleResident)

	err := RequireUserType(models.RoleAdmin)(okHandler)(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireUserTypeRejectsMissingUserType(t *testing.T) {
	c, rec := newRoleContext("")

	err := RequireUserType(models.RoleAdmin)(okHandler)(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
