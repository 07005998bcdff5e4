package codec

import (
	"testing"

	"github.com/JonMunkholm/csvloc/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const commaDoc = "id,name,description\n" +
	"23414,name1,description1\n" +
	"754432,name2,description2 that has an escaped\\, comma in it\n" +
	"26234345,     \"name with quotes\"  ,     \"description with quotes\"   \n" +
	"2345642, \"quoted name with, comma in it\", \"description with, comma in it\"\n"

func parse(t *testing.T, opts Options, text string) *File {
	t.Helper()
	opts.Logger = testutil.NewTestLogger(t)
	f, err := NewFile(opts)
	require.NoError(t, err)
	f.Parse(text)
	return f
}

func TestParse_HeaderInference(t *testing.T) {
	f := parse(t, Options{}, commaDoc)

	require.Len(t, f.Columns(), 3)
	assert.Equal(t, []string{"id", "name", "description"}, f.Columns().Names())
	for _, col := range f.Columns() {
		assert.True(t, col.Localizable, "column %s", col.Name)
	}
	assert.Len(t, f.Records(), 4)
}

func TestParse_HeaderInferenceNonLocalizable(t *testing.T) {
	f := parse(t, Options{NonLocalizable: []string{"id"}}, commaDoc)

	assert.False(t, f.Columns()[0].Localizable)
	assert.True(t, f.Columns()[1].Localizable)
	assert.Equal(t, map[string]bool{"name": true, "description": true}, f.LocalizableColumns())
}

func TestParse_Records(t *testing.T) {
	f := parse(t, Options{}, commaDoc)

	tests := []struct {
		row  int
		want Record
	}{
		{0, Record{"id": "23414", "name": "name1", "description": "description1"}},
		{1, Record{"id": "754432", "name": "name2", "description": "description2 that has an escaped, comma in it"}},
		{2, Record{"id": "26234345", "name": "name with quotes", "description": "description with quotes"}},
		{3, Record{"id": "2345642", "name": "quoted name with, comma in it", "description": "description with, comma in it"}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, f.Records()[tt.row], "row %d", tt.row)
	}
}

func TestParse_EmptyAndMissingValues(t *testing.T) {
	f := parse(t, Options{},
		"id,name,description,comments,user\n"+
			",,description1\n"+
			"754432,name2,description2\n")

	require.Len(t, f.Records(), 2)
	assert.Equal(t, Record{
		"id":          "",
		"name":        "",
		"description": "description1",
		"comments":    "",
		"user":        "",
	}, f.Records()[0])
}

func TestParse_ExtraFieldsDropped(t *testing.T) {
	f := parse(t, Options{}, "a,b\n1,2,3,4\n")

	require.Len(t, f.Records(), 1)
	assert.Equal(t, Record{"a": "1", "b": "2"}, f.Records()[0])
}

func TestParse_TabSeparatorMissingValues(t *testing.T) {
	f := parse(t, Options{ColumnSeparator: '\t'},
		"id\tname\tdescription\tcomments\tuser\n"+
			"32342\t\t\tcomments1\t\n"+
			"754432\tname2\tdescription2 that has an escaped\\t     tab in it\t\t\n"+
			"26234345\t\"name with quotes\"\t\"description with quotes\"\t\t\n"+
			"2345642\t\"quoted name with, comma in it\"\t\"description with, comma in it\"\t\t\n")

	require.Len(t, f.Records(), 4)
	assert.Equal(t, Record{"id": "32342", "name": "", "description": "", "comments": "comments1", "user": ""}, f.Records()[0])
	assert.Equal(t, "description2 that has an escaped\\t     tab in it", f.Records()[1]["description"])
	assert.Equal(t, "name with quotes", f.Records()[2]["name"])
	assert.Equal(t, "quoted name with, comma in it", f.Records()[3]["name"])
}

func TestParse_DOSLineEndings(t *testing.T) {
	f := parse(t, Options{},
		"id,name,description\r\n"+
			"23414,name1,description1\r\n"+
			"2345642, \"quoted name with, comma in it\" , \"description with, comma in it\"\r\n")

	require.Len(t, f.Records(), 2)
	assert.Equal(t, Record{
		"id":          "2345642",
		"name":        "quoted name with, comma in it",
		"description": "description with, comma in it",
	}, f.Records()[1])
}

func TestParse_ExplicitColumns(t *testing.T) {
	cols := []Column{{Name: "id"}, NewColumn("name")}

	t.Run("first row is data", func(t *testing.T) {
		f := parse(t, Options{Columns: cols}, "id,name\n1,one\n")
		require.Len(t, f.Records(), 2)
		assert.Equal(t, Record{"id": "id", "name": "name"}, f.Records()[0])
	})

	t.Run("header switch skips first row", func(t *testing.T) {
		f := parse(t, Options{Columns: cols, HasHeader: true}, "ident,label\n1,one\n")
		require.Len(t, f.Records(), 1)
		assert.Equal(t, Record{"id": "1", "name": "one"}, f.Records()[0])
		assert.Equal(t, []string{"id", "name"}, f.Columns().Names())
	})
}

func TestParse_EmptyInput(t *testing.T) {
	for _, text := range []string{"", "\n\n", "   \r\n  "} {
		f := parse(t, Options{}, text)
		assert.Empty(t, f.Records())
		assert.Empty(t, f.Columns())
	}
}

func TestParse_HeaderOnly(t *testing.T) {
	f := parse(t, Options{}, "a,b,c\n")
	assert.Equal(t, []string{"a", "b", "c"}, f.Columns().Names())
	assert.Empty(t, f.Records())
}

func TestParse_CustomRowSeparator(t *testing.T) {
	f := parse(t, Options{RowSeparator: ":"}, "a,b:1,2::3,4")

	require.Len(t, f.Records(), 2)
	assert.Equal(t, Record{"a": "3", "b": "4"}, f.Records()[1])
}

func TestParse_KeyIndex(t *testing.T) {
	f := parse(t, Options{Key: "id"}, "id,v\na,1\n,2\nb,3\n")

	rec, ok := f.Store().Lookup("b")
	require.True(t, ok)
	assert.Equal(t, "3", rec["v"])

	_, ok = f.Store().Lookup("")
	assert.False(t, ok)
	assert.Len(t, f.Records(), 3)
}

func TestParseFields(t *testing.T) {
	assert.Equal(t, []string{"a,b"}, ParseFields(`a\,b`, ','))
	assert.Equal(t, []string{"foo", "  bar  "}, ParseFields(`  foo  ,  "  bar  "  `, 0))
}
