// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package jalali

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanAndReplace(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "two dates in a sentence",
			in:   "Meeting on 1403/2/2 and 1403/2/3",
			want: "Meeting on Apr. 21, 2024 and Apr. 22, 2024",
		},
		{
			name: "zero-padded token alone",
			in:   "1364/01/20",
			want: "Apr. 09, 1985",
		},
		{
			name: "no date-shaped text",
			in:   "Invoice 42, due 2024-05-01, ratio 3/4",
			want: "Invoice 42, due 2024-05-01, ratio 3/4",
		},
		{
			name: "empty text",
			in:   "",
			want: "",
		},
		{
			name: "adjacent punctuation is kept",
			in:   "(1403/1/1).",
			want: "(Mar. 20, 2024).",
		},
		{
			name: "greedy day stops after two digits",
			in:   "1403/12/123",
			want: "Mar. 02, 20253",
		},
		{
			name: "persian digits",
			in:   "تاریخ ۱۴۰۳/۲/۲",
			want: "تاریخ Apr. 21, 2024",
		},
		{
			name: "incomplete token is ignored",
			in:   "1403/2 and 403/2/2",
			want: "1403/2 and 403/2/2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ScanAndReplace(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScanAndReplaceInvalidFails(t *testing.T) {
	in := "valid 1403/2/2 then 1403/13/40"
	got, err := ScanAndReplace(in)
	require.Error(t, err)

	var invalid *InvalidDateError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "1403/13/40", invalid.Token)
	assert.Equal(t, in, got, "failed replacement should return the input untouched")
}

func TestReplacerLenient(t *testing.T) {
	r := Replacer{Lenient: true}
	got, matches, err := r.Replace("from 1403/13/40 to 1403/2/2")
	require.NoError(t, err)
	assert.Equal(t, "from 1403/13/40 to Apr. 21, 2024", got)

	require.Len(t, matches, 2)
	assert.Equal(t, "1403/13/40", matches[0].Token)
	assert.Error(t, matches[0].Err)
	assert.Empty(t, matches[0].Converted)
	assert.Equal(t, "1403/2/2", matches[1].Token)
	assert.Equal(t, "Apr. 21, 2024", matches[1].Converted)
	assert.NoError(t, matches[1].Err)
}

func TestReplacerNoMatches(t *testing.T) {
	got, matches, err := Replacer{}.Replace("nothing here")
	require.NoError(t, err)
	assert.Equal(t, "nothing here", got)
	assert.Nil(t, matches)
}
