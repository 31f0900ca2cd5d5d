package jwt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/catalogo-api/pkg/jwt"
)

func TestGenerateParse(t *testing.T) {
	vendor := int64(12)
	token, err := jwt.Generate("s3cret", "u-1", &vendor, jwt.RoleVendor, "catalogo-api", 5)
	require.NoError(t, err)

	claims, err := jwt.Parse("s3cret", token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, jwt.RoleVendor, claims.Role)
	require.NotNil(t, claims.VendorID)
	assert.Equal(t, vendor, *claims.VendorID)
	assert.Equal(t, "catalogo-api", claims.Issuer)
}

func TestParse_Rechazos(t *testing.T) {
	token, err := jwt.Generate("s3cret", "u-1", nil, jwt.RoleAdmin, "catalogo-api", 5)
	require.NoError(t, err)

	_, err = jwt.Parse("otro", token)
	assert.Error(t, err)

	expired, err := jwt.Generate("s3cret", "u-1", nil, jwt.RoleAdmin, "catalogo-api", -1)
	require.NoError(t, err)
	_, err = jwt.Parse("s3cret", expired)
	assert.Error(t, err)

	_, err = jwt.Generate("", "u-1", nil, jwt.RoleAdmin, "x", 5)
	assert.Error(t, err)
}
