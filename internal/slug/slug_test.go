package slug

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"hello-world", "hello-world"},
		{"test_file.md", "test_file.md"},
		{"with space", "with%20space"},
		{"a/b", "a%2Fb"},
		{"100%", "100%25"},
		{"c#", "c%23"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Encode(tt.in))
		})
	}
}

func TestEncode_NonASCII(t *testing.T) {
	encoded := Encode("한글-테스트")
	assert.Contains(t, encoded, "%ED%95%9C")
	assert.Equal(t, "한글-테스트", Decode(encoded))
}

func TestEncode_NormalizesToNFC(t *testing.T) {
	composed := "caf\u00e9"
	decomposed := "cafe\u0301"
	assert.Equal(t, Encode(composed), Encode(decomposed))
}

func TestEncode_LongNamesAreTruncatedWithHash(t *testing.T) {
	long := strings.Repeat("가", 100)
	encoded := Encode(long)

	assert.LessOrEqual(t, len(encoded), maxLen)
	assert.Contains(t, encoded, "-")
	assert.NotEqual(t, encoded, Encode(strings.Repeat("가", 101)))
	assert.Equal(t, encoded, Encode(long))
}
