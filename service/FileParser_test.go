package service

import (
	"encoding/base64"
	"testing"

	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/exception"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParseCsv(t *testing.T) {
	data := []byte("\xEF\xBB\xBFName,Email,Email\nJane,jane@x.com,j@x.com\n,,\n\"Doe, John\",john@y.com\n")
	parsed, err := NewFileParser(1, 10).Parse(data, "people.csv")
	require.NoError(t, err)

	assert.Equal(t, []string{"Name", "Email", "Email (2)"}, parsed.Headers)
	assert.Equal(t, 2, parsed.TotalRows)
	require.Len(t, parsed.SampleRows, 1)
	assert.Equal(t, "Jane", parsed.SampleRows[0]["Name"])
	assert.Equal(t, "j@x.com", parsed.Rows[0]["Email (2)"])
	assert.Equal(t, "Doe, John", parsed.Rows[1]["Name"])
	assert.Equal(t, "", parsed.Rows[1]["Email (2)"])
}

func TestParseCsvSuffixDoesNotShadowRealHeader(t *testing.T) {
	parsed, err := NewFileParser(5, 10).Parse([]byte("A,A (2),A\n1,2,3\n"), "a.csv")
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "A (2)", "A (3)"}, parsed.Headers)
	assert.Equal(t, view.ParsedRow{"A": "1", "A (2)": "2", "A (3)": "3"}, parsed.Rows[0])

	assert.Equal(t, []string{"B", "B (2)", "B (2) (2)"}, normalizeHeaders([]string{"B", "B", "B (2)"}))
}

func TestParseCsvBlankHeader(t *testing.T) {
	parsed, err := NewFileParser(5, 10).Parse([]byte("Name,\nJane,x\n"), "a.csv")
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Column 2"}, parsed.Headers)
}

func TestParseJson(t *testing.T) {
	data := []byte(`[{"b": 1, "a": "x"}, {"a": "y", "c": true, "b": null}]`)
	parsed, err := NewFileParser(5, 10).Parse(data, "data.json")
	require.NoError(t, err)

	assert.Equal(t, []string{"b", "a", "c"}, parsed.Headers)
	assert.Equal(t, view.ParsedRow{"a": "x", "b": "1", "c": ""}, parsed.Rows[0])
	assert.Equal(t, view.ParsedRow{"a": "y", "b": "", "c": "true"}, parsed.Rows[1])
}

func TestParseJsonRejectsNestedValues(t *testing.T) {
	_, err := NewFileParser(5, 10).Parse([]byte(`[{"a": {"b": 1}}]`), "data.json")
	assert.Equal(t, exception.UnparseableFile, errorCode(err))

	_, err = NewFileParser(5, 10).Parse([]byte(`[1, 2]`), "data.json")
	assert.Equal(t, exception.UnparseableFile, errorCode(err))
}

func TestParseJsonSingleObject(t *testing.T) {
	parsed, err := NewFileParser(5, 10).Parse([]byte(" {\"name\": \"Jane\", \"years\": 5}\n"), "upload")
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "years"}, parsed.Headers)
	require.Len(t, parsed.Rows, 1)
	assert.Equal(t, view.ParsedRow{"name": "Jane", "years": "5"}, parsed.Rows[0])
}

func TestParseXlsx(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Full Name", "Years"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"Jane Doe", 5}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A4", &[]interface{}{"John Roe"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	parsed, err := NewFileParser(5, 10).Parse(buf.Bytes(), "upload")
	require.NoError(t, err)

	assert.Equal(t, []string{"Full Name", "Years"}, parsed.Headers)
	assert.Equal(t, 2, parsed.TotalRows)
	assert.Equal(t, "5", parsed.Rows[0]["Years"])
	assert.Equal(t, "", parsed.Rows[1]["Years"])
}

func TestParseErrors(t *testing.T) {
	parser := NewFileParser(5, 1)

	_, err := parser.Parse([]byte("Name\n\n  \n"), "empty.csv")
	assert.Equal(t, exception.EmptyFile, errorCode(err))

	_, err = parser.Parse([]byte{0xD0, 0xCF, 0x11, 0xE0, 0x00}, "legacy.xls")
	assert.Equal(t, exception.UnparseableFile, errorCode(err))

	_, err = parser.Parse([]byte{0xFF, 0xFE, 0x00, 0x81}, "blob")
	assert.Equal(t, exception.UnsupportedFileType, errorCode(err))

	big := make([]byte, 1024*1024+1)
	_, err = parser.Parse(big, "big.csv")
	assert.Equal(t, exception.FileTooLarge, errorCode(err))
	var customErr *exception.CustomError
	require.ErrorAs(t, err, &customErr)
	assert.Equal(t, 413, customErr.Status)
}

func TestDetectFileType(t *testing.T) {
	parser := NewFileParser(5, 10)
	tests := []struct {
		data     string
		fileName string
		expected FileType
	}{
		{"a,b", "x.CSV", FileTypeCsv},
		{"a,b", "x.txt", FileTypeCsv},
		{"", "x.xlsx", FileTypeXlsx},
		{"[{}]", "upload", FileTypeJson},
		{"  {\"a\": 1}", "upload", FileTypeJson},
		{"PK\x03\x04....", "upload", FileTypeXlsx},
		{"a,b\n1,2", "upload", FileTypeCsv},
	}
	for _, tt := range tests {
		fileType, err := parser.DetectFileType([]byte(tt.data), tt.fileName)
		assert.NoError(t, err)
		assert.Equal(t, tt.expected, fileType, tt.fileName)
	}
}

func TestDecodeBase64File(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("a,b\n1,2"))

	data, err := DecodeBase64File(encoded, "a.csv")
	assert.NoError(t, err)
	assert.Equal(t, "a,b\n1,2", string(data))

	data, err = DecodeBase64File("data:text/csv;base64,"+encoded, "a.csv")
	assert.NoError(t, err)
	assert.Equal(t, "a,b\n1,2", string(data))

	_, err = DecodeBase64File("%%%", "a.csv")
	assert.Equal(t, exception.UnparseableFile, errorCode(err))
}
