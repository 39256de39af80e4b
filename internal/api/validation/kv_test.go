package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidekv/engine/internal/storage/kv"
)

func TestValidateKey(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, ValidateKey("user:42"))
	})

	t.Run("empty", func(t *testing.T) {
		err := ValidateKey("")
		require.Error(t, err)
		assert.IsType(t, ValidationError{}, err)
	})

	t.Run("too long", func(t *testing.T) {
		assert.NoError(t, ValidateKey(strings.Repeat("k", MaxKeyLength)))
		assert.Error(t, ValidateKey(strings.Repeat("k", MaxKeyLength+1)))
	})

	t.Run("whitespace", func(t *testing.T) {
		assert.Error(t, ValidateKey("a b"))
		assert.Error(t, ValidateKey("a\tb"))
	})
}

func TestValidateValue(t *testing.T) {
	assert.NoError(t, ValidateValue(kv.TextValue("hello")))
	assert.NoError(t, ValidateValue(kv.IntegerValue(0)))
	assert.NoError(t, ValidateValue(kv.BooleanValue(false)))

	assert.Error(t, ValidateValue(kv.TextValue("")))
	assert.Error(t, ValidateValue(kv.BytesValue(nil)))

	big := make([]byte, MaxValueSize+1)
	err := ValidateValue(kv.BytesValue(big))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds maximum")

	for _, v := range []kv.Value{
		kv.TextValue("a\r\nOK"),
		kv.TextValue("line\n"),
		kv.BytesValue([]byte{'a', '\r', 'b'}),
	} {
		err := ValidateValue(v)
		require.Error(t, err, "%q", v.String())
		assert.Equal(t, "invalid value: cannot contain line breaks", err.Error())
	}
}

func TestValidateTTLSeconds(t *testing.T) {
	assert.NoError(t, ValidateTTLSeconds(0))
	assert.NoError(t, ValidateTTLSeconds(1))
	assert.NoError(t, ValidateTTLSeconds(MaxTTLSeconds))
	assert.Error(t, ValidateTTLSeconds(-1))
	assert.Error(t, ValidateTTLSeconds(MaxTTLSeconds+1))
}

func TestValidateExpireSeconds(t *testing.T) {
	assert.NoError(t, ValidateExpireSeconds(0))
	assert.NoError(t, ValidateExpireSeconds(-10))
	assert.NoError(t, ValidateExpireSeconds(-MaxTTLSeconds))
	assert.NoError(t, ValidateExpireSeconds(MaxTTLSeconds))
	assert.Error(t, ValidateExpireSeconds(MaxTTLSeconds+1))
	assert.Error(t, ValidateExpireSeconds(-MaxTTLSeconds-1))
}

func TestValidateNonEmpty(t *testing.T) {
	assert.NoError(t, ValidateNonEmpty("kind", "text"))
	err := ValidateNonEmpty("kind", "  ")
	require.Error(t, err)
	assert.Equal(t, "invalid kind: cannot be empty", err.Error())
}
