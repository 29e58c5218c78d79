package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "secreto-de-pruebas"

func TestGenerateParse_ConservaActorYRol(t *testing.T) {
	tok, err := Generate(secret, "bodeguero-9", "bodeguero", "agrostock", 5)
	require.NoError(t, err)

	actor, role, err := Parse(secret, tok)
	require.NoError(t, err)
	assert.Equal(t, "bodeguero-9", actor)
	assert.Equal(t, "bodeguero", role)
}

func TestParse_UsaSubjectSiFaltaActor(t *testing.T) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "vendedor-2",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
		Role: "vendedor",
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)

	actor, role, err := Parse(secret, tok)
	require.NoError(t, err)
	assert.Equal(t, "vendedor-2", actor)
	assert.Equal(t, "vendedor", role)
}

func TestParse_Rechazos(t *testing.T) {
	expired, err := Generate(secret, "a", "admin", "agrostock", -1)
	require.NoError(t, err)
	foreign, err := Generate("otro", "a", "admin", "agrostock", 5)
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{ActorID: "a"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, tok := range map[string]string{"vencido": expired, "firma ajena": foreign, "sin firma": none} {
		t.Run(name, func(t *testing.T) {
			_, _, err := Parse(secret, tok)
			assert.Error(t, err)
		})
	}

	_, err = Generate("", "a", "admin", "agrostock", 5)
	assert.Error(t, err)
	_, _, err = Parse("", expired)
	assert.Error(t, err)
}
