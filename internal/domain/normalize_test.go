package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNormalizeDuration(t *testing.T) {
	cases := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{raw: "30", want: 30},
		{raw: " 1 ", want: 1},
		{raw: "0", wantErr: true},
		{raw: "-5", wantErr: true},
		{raw: "abc", wantErr: true},
		{raw: "12.5", wantErr: true},
		{raw: "", wantErr: true},
		{raw: "2147483647", want: 2147483647},
		{raw: "2147483648", wantErr: true},
		{raw: "99999999999999999999", wantErr: true},
	}
	for _, tc := range cases {
		got, err := NormalizeDuration(tc.raw)
		if tc.wantErr {
			require.Error(t, err, tc.raw)
			require.True(t, IsValidation(err))
			require.EqualError(t, err, MsgInvalidDuration)
			continue
		}
		require.NoError(t, err, tc.raw)
		require.Equal(t, tc.want, got)
	}
}

func TestNormalizeUsernameAndDescriptionTrim(t *testing.T) {
	username, err := NormalizeUsername("  alice ")
	require.NoError(t, err)
	require.Equal(t, "alice", username)

	_, err = NormalizeUsername("   ")
	require.EqualError(t, err, MsgUsernameRequired)

	description, err := NormalizeDescription("\tmorning run ")
	require.NoError(t, err)
	require.Equal(t, "morning run", description)

	_, err = NormalizeDescription("")
	require.EqualError(t, err, MsgDescriptionRequired)
}

func TestNormalizeDate(t *testing.T) {
	now := time.Date(2024, time.March, 9, 22, 15, 0, 0, time.UTC)

	date, err := NormalizeDate("", now)
	require.NoError(t, err)
	require.Equal(t, "2024-03-09", FormatDate(date))
	require.Zero(t, date.Hour())

	date, err = NormalizeDate("2024-01-05", now)
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC), date)

	date, err = NormalizeDate("2024-01-05T23:30:00-05:00", now)
	require.NoError(t, err)
	require.Equal(t, "2024-01-05", FormatDate(date))

	_, err = NormalizeDate("2024-02-30", now)
	require.EqualError(t, err, MsgInvalidDate)

	_, err = NormalizeDate("yesterday", now)
	require.EqualError(t, err, MsgInvalidDate)
}

func TestNormalizeRejectsUnstorableText(t *testing.T) {
	_, err := NormalizeUsername("ali\x00ce")
	require.True(t, IsValidation(err))
	require.EqualError(t, err, MsgUsernameInvalid)

	_, err = NormalizeUsername("al\xffice")
	require.EqualError(t, err, MsgUsernameInvalid)

	_, err = NormalizeDescription("run\x00")
	require.EqualError(t, err, MsgDescriptionInvalid)

	_, err = NormalizeDescription("sw\xc3im")
	require.EqualError(t, err, MsgDescriptionInvalid)

	description, err := NormalizeDescription("café run")
	require.NoError(t, err)
	require.Equal(t, "café run", description)
}
