package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseIntDefault(t *testing.T) {
	require.Equal(t, 7, ParseIntDefault("7", 3))
	require.Equal(t, 3, ParseIntDefault("", 3))
	require.Equal(t, 3, ParseIntDefault("abc", 3))
}

func TestStandstillPeriod(t *testing.T) {
	t.Setenv("STANDSTILL_PERIOD_DAYS", "")
	require.Equal(t, 10*24*time.Hour, StandstillPeriod())

	t.Setenv("STANDSTILL_PERIOD_DAYS", "3")
	require.Equal(t, 3*24*time.Hour, StandstillPeriod())

	t.Setenv("STANDSTILL_PERIOD_DAYS", "-1")
	require.Equal(t, 10*24*time.Hour, StandstillPeriod())
}

func TestGenerateSlug(t *testing.T) {
	require.Equal(t, "nytt-kontorbygg", GenerateSlug("Nytt Kontorbygg"))
	require.Equal(t, "vare-tjenester", GenerateSlug("Våre & tjenester"))
	require.Equal(t, "abc", GenerateSlug("  abc  "))
}

func TestTenderObjectName(t *testing.T) {
	name := TenderObjectName("64f000000000000000000001", "Offer Letter.PDF")
	require.True(t, strings.HasPrefix(name, "tenders/64f000000000000000000001/"))
	require.True(t, strings.HasSuffix(name, ".pdf"))

	noExt := TenderObjectName("64f000000000000000000001", "README")
	require.True(t, strings.HasSuffix(noExt, ".bin"))
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	require.NoError(t, CheckPassword(hash, "s3cret"))
	require.Error(t, CheckPassword(hash, "wrong"))
}
