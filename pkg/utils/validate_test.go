package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("user@example.com"))
	assert.NoError(t, ValidateEmail("first.last+tag@sub.example.co.uk"))
	assert.NoError(t, ValidateEmail("  padded@example.com  "))

	assert.Error(t, ValidateEmail(""))
	assert.Error(t, ValidateEmail("no-at-sign.example.com"))
	assert.Error(t, ValidateEmail("missing@tld"))
	assert.Error(t, ValidateEmail("two@@example.com"))
	assert.Error(t, ValidateEmail("spaces in@example.com"))
	assert.Error(t, ValidateEmail(strings.Repeat("a", 250)+"@example.com"))
}

func TestValidateFullName(t *testing.T) {
	assert.NoError(t, ValidateFullName("Jo"))
	assert.NoError(t, ValidateFullName("A Reasonably Long Name"))
	assert.NoError(t, ValidateFullName(strings.Repeat("a", 100)))

	assert.Error(t, ValidateFullName(""))
	assert.Error(t, ValidateFullName("x"))
	assert.Error(t, ValidateFullName("   "))
	assert.Error(t, ValidateFullName(strings.Repeat("a", 101)))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "user@example.com", NormalizeEmail("  USER@Example.COM "))
	assert.Equal(t, "user@example.com", NormalizeEmail("user@example.com"))
}
