package arrests

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAgeRange_Boundaries(t *testing.T) {
	cases := map[int]string{
		1:   "0-17",
		17:  "0-17",
		18:  "18-24",
		24:  "18-24",
		25:  "25-34",
		34:  "25-34",
		35:  "35-44",
		44:  "35-44",
		45:  "45-54",
		54:  "45-54",
		55:  "55-64",
		64:  "55-64",
		65:  "65+",
		90:  "65+",
		102: "65+",
	}
	for age, want := range cases {
		assert.Equal(t, want, AgeRange(age), "age %d", age)
	}
}

func TestAgeRanges_Order(t *testing.T) {
	assert.Len(t, AgeRanges, 7)
	assert.Equal(t, "0-17", AgeRanges[0])
	assert.Equal(t, "65+", AgeRanges[6])
}
