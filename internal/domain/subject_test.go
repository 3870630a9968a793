package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubjectKey(t *testing.T) {
	optionID := "opt-1"

	tests := []struct {
		name    string
		subject Subject
		want    string
	}{
		{"product", ProductSubject("prod-1"), "product:prod-1"},
		{"vendor without option", VendorSubject("vendor-1", nil), "vendor:vendor-1"},
		{"vendor with option", VendorSubject("vendor-1", &optionID), "vendor:vendor-1:opt-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.subject.Key())
		})
	}
}

func TestSubjectEqual(t *testing.T) {
	optA := "opt-a"
	optB := "opt-b"
	optA2 := "opt-a"

	assert.True(t, ProductSubject("p").Equal(ProductSubject("p")))
	assert.False(t, ProductSubject("p").Equal(VendorSubject("p", nil)))
	assert.True(t, VendorSubject("v", &optA).Equal(VendorSubject("v", &optA2)))
	assert.False(t, VendorSubject("v", &optA).Equal(VendorSubject("v", &optB)))
	assert.False(t, VendorSubject("v", &optA).Equal(VendorSubject("v", nil)))
}

func TestSubjectTypeValid(t *testing.T) {
	assert.True(t, SubjectTypeProduct.Valid())
	assert.True(t, SubjectTypeVendor.Valid())
	assert.False(t, SubjectType("shop").Valid())
}
