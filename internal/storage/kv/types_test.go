package kv

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_String(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  string
	}{
		{"text", TextValue("hello world"), "hello world"},
		{"zero value", Value{}, ""},
		{"negative integer", IntegerValue(-7), "-7"},
		{"true", BooleanValue(true), "true"},
		{"false", BooleanValue(false), "false"},
		{"utf8 bytes", BytesValue([]byte("héllo")), "héllo"},
		{"invalid bytes", BytesValue([]byte{'a', 0xff, 'b', 0xc3}), "a�b�"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.value.String())
		})
	}
}

func TestValue_Equal(t *testing.T) {
	assert.True(t, TextValue("1").Equal(TextValue("1")))
	assert.False(t, TextValue("1").Equal(IntegerValue(1)))
	assert.True(t, BytesValue([]byte{1, 2}).Equal(BytesValue([]byte{1, 2})))
	assert.False(t, BooleanValue(true).Equal(BooleanValue(false)))
	assert.True(t, Value{}.Equal(TextValue("")))
}

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{KindText, KindBytes, KindInteger, KindBoolean} {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}

	_, err := ParseKind("float")
	assert.Error(t, err)
}

func TestEntry_Expired(t *testing.T) {
	e := &Entry{Value: TextValue("v"), ExpiresAt: 1000, HasExpiry: true}
	assert.False(t, e.Expired(999))
	assert.True(t, e.Expired(1000))
	assert.True(t, e.Expired(1001))

	forever := &Entry{Value: TextValue("v")}
	assert.False(t, forever.Expired(1<<62))
}

func TestTimestamp(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_123)
	ts := TimestampOf(now)

	assert.Equal(t, "1700000000123", ts.String())
	assert.True(t, ts.Time().Equal(now))
}
