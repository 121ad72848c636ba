package bins

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIDParses(t *testing.T) {
	for i := 0; i < 100; i++ {
		id := NewID()
		parsed, ok := ParseID(id.String())
		require.True(t, ok, "generated id %q should parse", id)
		assert.Equal(t, id, parsed)
	}
}

func TestParseID(t *testing.T) {
	cases := []struct {
		in   string
		want ID
		ok   bool
	}{
		{"5579fcd5-8353-4072-bb80-2d63a49c7ced", "5579fcd5-8353-4072-bb80-2d63a49c7ced", true},
		{"5579FCD5-8353-4072-BB80-2D63A49C7CED", "5579fcd5-8353-4072-bb80-2d63a49c7ced", true},
		{"lulz", "", false},
		{"", "", false},
		// version 1
		{"5579fcd5-8353-1072-bb80-2d63a49c7ced", "", false},
		// variant nibble outside 8-b
		{"5579fcd5-8353-4072-cb80-2d63a49c7ced", "", false},
		{" 5579fcd5-8353-4072-bb80-2d63a49c7ced", "", false},
		{"5579fcd5-8353-4072-bb80-2d63a49c7ced/requests", "", false},
		{"{5579fcd5-8353-4072-bb80-2d63a49c7ced}", "", false},
	}
	for _, c := range cases {
		got, ok := ParseID(c.in)
		assert.Equal(t, c.ok, ok, "ParseID(%q)", c.in)
		assert.Equal(t, c.want, got, "ParseID(%q)", c.in)
	}
}

func TestIDJSONIsBareString(t *testing.T) {
	id := NewID()
	b, err := json.Marshal(id)
	require.NoError(t, err)
	assert.Equal(t, `"`+id.String()+`"`, string(b))

	var back ID
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, id, back)
}

func TestSummaryJSONShape(t *testing.T) {
	id := ID(strings.Repeat("a", 8) + "-aaaa-4aaa-8aaa-" + strings.Repeat("a", 12))
	b, err := json.Marshal(BinSummary{ID: id, RequestCount: 3})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"`+id.String()+`","request_count":3}`, string(b))
}
