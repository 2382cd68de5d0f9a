package utils

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	m := NewTokenManager("a-very-long-secret-that-is-long-enough", time.Hour).WithClock(func() time.Time { return now })

	id := primitive.NewObjectID()
	token, err := m.Sign(id)
	require.NoError(t, err)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, id.Hex(), claims.UserID)
	assert.Equal(t, now.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, now.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
}

func TestTokenManager_Expired(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	m := NewTokenManager("a-very-long-secret-that-is-long-enough", time.Hour).WithClock(func() time.Time { return now })

	token, err := m.Sign(primitive.NewObjectID())
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	_, err = m.Verify(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestTokenManager_WrongSecret(t *testing.T) {
	token, err := NewTokenManager("secret-one-secret-one-secret-one-1", time.Hour).Sign(primitive.NewObjectID())
	require.NoError(t, err)

	_, err = NewTokenManager("secret-two-secret-two-secret-two-2", time.Hour).Verify(token)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)

	_, err = NewTokenManager("secret-two-secret-two-secret-two-2", time.Hour).Verify("not.a.token")
	assert.ErrorIs(t, err, jwt.ErrTokenMalformed)
}

func TestNewResetToken(t *testing.T) {
	plain, hashed, err := NewResetToken()
	require.NoError(t, err)

	assert.Len(t, plain, 64)
	assert.Len(t, hashed, 64)
	assert.NotEqual(t, plain, hashed)
	assert.Equal(t, hashed, HashToken(plain))
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "the-forest-hiker", Slugify("The Forest Hiker"))
	assert.Equal(t, "the-northern-lights", Slugify("  The Northern   Lights! "))
	assert.Equal(t, "cafe-creme", Slugify("Café Crème"))
}

func TestResizeSquareJPEG(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 800, 400))
	for x := 0; x < 800; x++ {
		src.Set(x, 10, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))

	out, err := ResizeSquareJPEG(&buf, UserPhotoSize, UserPhotoQuality)
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, UserPhotoSize, img.Bounds().Dx())
	assert.Equal(t, UserPhotoSize, img.Bounds().Dy())

	_, err = ResizeSquareJPEG(strings.NewReader("definitely not an image"), UserPhotoSize, UserPhotoQuality)
	assert.ErrorIs(t, err, ErrNotAnImage)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "jonas@example.com", NormalizeEmail("  Jonas@Example.COM "))
	assert.True(t, IsValidEmail("jonas@example.com"))
	assert.False(t, IsValidEmail("jonas@"))
}

func TestListResponse_Empty(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	ListResponse(c, 0, gin.H{"tours": []string{}})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"success","results":0,"message":"No data found","data":{"tours":[]}}`, w.Body.String())
}
