package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testSalt() []byte {
	return []byte("0123456789abcdef")
}

func TestVerifyPassword_CorrectPasswordSucceeds(t *testing.T) {
	phc := HashPassword("hunter2", testSalt(), 19*1024, 2, 1)

	ok, err := VerifyPassword("hunter2", phc)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestVerifyPassword_WrongPasswordFails(t *testing.T) {
	phc := HashPassword("hunter2", testSalt(), 19*1024, 2, 1)

	ok, err := VerifyPassword("wrong-password", phc)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestVerifyPassword_MalformedPHCErrors(t *testing.T) {
	_, err := VerifyPassword("anything", "not-a-phc-string")
	require.Error(t, err)
}

func TestVerifyPassword_NonArgon2idSchemeErrors(t *testing.T) {
	_, err := VerifyPassword("anything", "$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA")
	require.Error(t, err)
}

func TestHashPassword_DifferentSaltsProduceDifferentHashes(t *testing.T) {
	a := HashPassword("hunter2", testSalt(), 19*1024, 2, 1)
	b := HashPassword("hunter2", []byte("fedcba9876543210"), 19*1024, 2, 1)
	require.NotEqual(t, a, b)
}
