package importer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateFormats(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"01/04/2025", "2025-04-01", true},
		{"2025-04-01", "2025-04-01", true},
		{"2 April 2025", "2025-04-02", true},
		{"Apr 2, 2025", "2025-04-02", true},
		{" 01/04/2025 ", "2025-04-01", true},
		{"", "", false},
		{"not a date", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseDate(tc.in)
		assert.Equal(t, tc.ok, ok, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestParseNumberStripsFormatting(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"£1,234.56", "1234.56"},
		{"$99.99", "99.99"},
		{"12.5%", "12.5"},
		{"-", "0"},
		{"", "0"},
		{"(42.00)", "-42"},
		{"garbage", "0"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ParseNumber(tc.in).String(), "input %q", tc.in)
	}
}

func TestOpenCSVHandlesQuotedFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ads.csv")
	content := "Campaign Name,Date,Spend\n" +
		"\"Brand, Exact\",01/04/2025,\"£1,234.56\"\n" +
		"\"Multi\nline\",02/04/2025,10\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	table, err := Open(path)
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "Brand, Exact", table.Rows[0][0])
	assert.Equal(t, "Multi\nline", table.Rows[1][0])

	idx := table.ColumnIndex("campaign name")
	assert.Equal(t, 0, idx)
	assert.Equal(t, "", Cell(table.Rows[0], 99))
}

func TestOpenRejectsUnknownExtension(t *testing.T) {
	_, err := Open("report.pdf")
	assert.Error(t, err)
}
