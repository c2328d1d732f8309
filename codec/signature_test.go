package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSignatureGrammar(t *testing.T) {
	cases := []struct {
		name string
		sig  string
		mode SignatureMode
		want bool
	}{
		{"empty full signature is valid", "", FullSignature, true},
		{"empty variant signature is invalid", "", VariantSignature, false},
		{"single basic type", "y", FullSignature, true},
		{"multiple basic types", "yiu", FullSignature, true},
		{"variant with two types is invalid", "yi", VariantSignature, false},
		{"variant", "v", FullSignature, true},
		{"array of basic", "ay", FullSignature, true},
		{"array of array", "aay", FullSignature, true},
		{"struct with fields", "(yi)", FullSignature, true},
		{"empty struct is invalid", "()", FullSignature, false},
		{"unterminated struct", "(yi", FullSignature, false},
		{"dict entry outside array is invalid", "{yi}", FullSignature, false},
		{"dict", "a{yi}", FullSignature, true},
		{"dict with non-basic key is invalid", "a{(y)i}", FullSignature, false},
		{"dict with two value types is invalid", "a{yii}", FullSignature, false},
		{"unclosed dict", "a{yi", FullSignature, false},
		{"nested struct and array", "a(yai)", FullSignature, true},
		{"unknown type letter", "Q", FullSignature, false},
		{"array missing element type", "a", FullSignature, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ValidateSignature(append([]byte(tc.sig), 0), tc.mode)
			assert.Equal(t, tc.want, got, "ValidateSignature(%q, %v)", tc.sig, tc.mode)
		})
	}
}

func TestValidateSignatureRequiresNulTerminator(t *testing.T) {
	assert.False(t, ValidateSignature([]byte("y"), FullSignature))
	assert.True(t, ValidateSignature([]byte("y\x00"), FullSignature))
}

func TestValidateSignatureNestingLimits(t *testing.T) {
	deepArray := make([]byte, 0, maxArrayNesting+2)
	for i := 0; i < maxArrayNesting; i++ {
		deepArray = append(deepArray, 'a')
	}
	deepArray = append(deepArray, 'y', 0)
	require.True(t, ValidateSignature(deepArray, FullSignature), "exactly maxArrayNesting should be valid")

	tooDeep := append([]byte{'a'}, deepArray...)
	assert.False(t, ValidateSignature(tooDeep, FullSignature), "one more array level should overflow")
}

func TestValidateObjectPath(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{"/", true},
		{"/foo", true},
		{"/foo/bar", true},
		{"/foo/bar_baz/Qux9", true},
		{"", false},
		{"foo", false},
		{"/foo/", false},
		{"//foo", false},
		{"/foo//bar", false},
		{"/foo-bar", false},
	}
	for _, tc := range cases {
		got := ValidateObjectPath(append([]byte(tc.path), 0))
		assert.Equal(t, tc.want, got, "ValidateObjectPath(%q)", tc.path)
	}
}

func TestValidateString(t *testing.T) {
	assert.True(t, ValidateString([]byte("hello\x00")))
	assert.True(t, ValidateString([]byte("\x00")))
	assert.False(t, ValidateString([]byte("hel\x00lo\x00")))
	assert.False(t, ValidateString(nil))
}
