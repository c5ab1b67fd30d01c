package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCategory(t *testing.T) {
	cases := []struct {
		in   string
		want Category
		err  error
	}{
		{"fire", CategoryFire, nil},
		{" Police ", CategoryPolice, nil},
		{"MEDICAL", CategoryMedical, nil},
		{"other", CategoryOther, nil},
		{"", CategoryOther, ErrMalformedRecord},
		{"flood", CategoryOther, ErrUnknownCategory},
	}
	for _, tc := range cases {
		got, err := ParseCategory(tc.in)
		assert.Equal(t, tc.want, got, tc.in)
		if tc.err == nil {
			assert.NoError(t, err, tc.in)
		} else {
			assert.True(t, errors.Is(err, tc.err), "%q: %v", tc.in, err)
		}
	}
}

func TestEligibilityTable(t *testing.T) {
	assert.Equal(t, []Category{CategoryFire}, CategoryFire.Responders())
	assert.Equal(t, []Category{CategoryPolice, CategoryMedical}, CategoryPolice.Responders())
	assert.Equal(t, []Category{CategoryMedical, CategoryFire}, CategoryMedical.Responders())
	assert.Empty(t, CategoryOther.Responders())

	assert.True(t, CategoryMedical.Accepts(CategoryFire))
	assert.False(t, CategoryFire.Accepts(CategoryMedical))
	assert.False(t, CategoryPolice.Accepts(CategoryFire))
	for _, c := range []Category{CategoryFire, CategoryPolice, CategoryMedical, CategoryOther} {
		assert.False(t, CategoryOther.Accepts(c))
	}
}

func TestResponderSliceIsCopy(t *testing.T) {
	r := CategoryPolice.Responders()
	r[0] = CategoryFire
	assert.Equal(t, CategoryPolice, CategoryPolice.Responders()[0])
}

func TestCategoryText(t *testing.T) {
	b, err := CategoryMedical.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "medical", string(b))

	var c Category
	assert.NoError(t, c.UnmarshalText([]byte("police")))
	assert.Equal(t, CategoryPolice, c)
	assert.Error(t, c.UnmarshalText([]byte("alien")))
}
