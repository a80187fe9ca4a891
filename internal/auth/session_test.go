package auth

import (
	"crypto/ed25519"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jason-s-yu/trustless-rewards/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	require.NoError(t, Init("1h"))

	token, err := CreateJWT("ST1SJ3DTE5DN7X54YDH5D64R3BCB6A2AG2ZQ8YPD5")
	require.NoError(t, err)

	p, err := AuthenticateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, models.Principal("ST1SJ3DTE5DN7X54YDH5D64R3BCB6A2AG2ZQ8YPD5"), p)

	_, err = CreateJWT("")
	assert.Error(t, err)
}

func TestExpiredTokenIsRejected(t *testing.T) {
	require.NoError(t, Init("never"))

	claims := jwt.MapClaims{"sub": "ST1X", "exp": time.Now().Add(-time.Minute).Unix()}
	token, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(privateKey)
	require.NoError(t, err)

	_, err = AuthenticateJWT(token)
	assert.Error(t, err)
}

func TestTokenFromOtherKeyIsRejected(t *testing.T) {
	require.NoError(t, Init(""))
	token, err := CreateJWT("ST1X")
	require.NoError(t, err)

	// rotate keys; the old token must no longer verify
	require.NoError(t, Init(""))
	_, err = AuthenticateJWT(token)
	assert.Error(t, err)
}

func TestInitFromPath(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	dir := t.TempDir()
	privPath := filepath.Join(dir, "ed25519")
	pubPath := filepath.Join(dir, "ed25519.pub")
	require.NoError(t, os.WriteFile(privPath, priv, 0o600))
	require.NoError(t, os.WriteFile(pubPath, pub, 0o644))

	require.NoError(t, InitFromPath(privPath, pubPath, "24h"))
	assert.Equal(t, 24*time.Hour, tokenTTL)

	token, err := CreateJWT("ST1Y")
	require.NoError(t, err)
	p, err := AuthenticateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, models.Principal("ST1Y"), p)

	assert.Error(t, InitFromPath(filepath.Join(dir, "missing"), pubPath, ""))
	assert.Error(t, InitFromPath(privPath, pubPath, "soon"))
}
