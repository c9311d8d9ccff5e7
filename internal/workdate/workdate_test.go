package workdate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"20240105", "2024-01-05", true},
		{" 2024-1-5 ", "2024-01-05", true},
		{"2024/12/31", "2024-12-31", true},
		{"2024.02.29", "2024-02-29", true},
		{"05-01-2024", "2024-01-05", true},
		{"31/12/2024", "2024-12-31", true},
		{"12/31/2024", "2024-12-31", true},
		{"2023-02-29", "2023-02-29", false},
		{"18991231", "18991231", false},
		{"next monday", "next monday", false},
		{"", "", false},
	}

	for _, tc := range cases {
		got, ok := Normalize(tc.in)
		assert.Equal(t, tc.want, got, tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
	}
}

func TestParse(t *testing.T) {
	got, err := Parse("2024-3-7")
	assert.NoError(t, err)
	assert.Equal(t, "2024-03-07", got)

	_, err = Parse(" 13/13/2024 ")
	assert.EqualError(t, err, `invalid date "13/13/2024"`)
}
