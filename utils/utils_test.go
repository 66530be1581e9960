package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCode(t *testing.T) {
	code, err := GenerateCode(5)
	require.NoError(t, err)

	assert.Len(t, code, 10) // hex doubles the byte count
	assert.Equal(t, strings.ToUpper(code), code)
}

func TestNewRecordID(t *testing.T) {
	id, err := NewRecordID()
	require.NoError(t, err)

	assert.Len(t, id, 15)
	for _, c := range id {
		assert.Contains(t, recordIDAlphabet, string(c))
	}
}

func TestNewPaymentReference(t *testing.T) {
	ref, err := NewPaymentReference()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(ref, "TIX-"))
	assert.Len(t, ref, 20)

	other, err := NewPaymentReference()
	require.NoError(t, err)
	assert.NotEqual(t, ref, other)
}
