package validation

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("ada@example.com"))
	assert.Error(t, ValidateEmail(""))
	assert.Error(t, ValidateEmail("not-an-email"))
	assert.Error(t, ValidateEmail("Ada <ada@example.com>"))
	assert.Error(t, ValidateEmail(strings.Repeat("a", 250)+"@x.io"))
	assert.Equal(t, "ada@example.com", NormalizeEmail("  Ada@Example.COM "))
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("correct horse battery"))
	assert.Error(t, ValidatePassword("short"))
	assert.Error(t, ValidatePassword(strings.Repeat("x", 73)))
	assert.Error(t, ValidatePassword("mypassword-is-long"))
}

func TestValidateTableName(t *testing.T) {
	for _, ok := range []string{"sales", "_tmp", "Q1_2024"} {
		assert.NoError(t, ValidateTableName(ok), ok)
	}
	for _, bad := range []string{"", "1st", "drop table", "a-b", `x"y`, strings.Repeat("a", 55)} {
		assert.Error(t, ValidateTableName(bad), bad)
	}
}

func TestValidateColumns(t *testing.T) {
	assert.NoError(t, ValidateColumns([]string{"region", "total amount", `quote"d`}))
	assert.Error(t, ValidateColumns(nil))
	assert.Error(t, ValidateColumns([]string{"a", " "}))
	assert.Error(t, ValidateColumns([]string{"ID"}))
	assert.Error(t, ValidateColumns([]string{"a", "A"}))
}

func TestValidatePortfolioName(t *testing.T) {
	assert.NoError(t, ValidatePortfolioName("Finance"))
	assert.Error(t, ValidatePortfolioName("   "))
	assert.Error(t, ValidatePortfolioName(strings.Repeat("p", 101)))
}

func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["file"][0]
}

func TestValidateFile(t *testing.T) {
	c := DelimitedConstraints(1 << 20)

	detected, err := ValidateFile(fileHeader(t, "data.csv", []byte("a,b\n1,2\n")), c)
	require.NoError(t, err)
	assert.Equal(t, "text/plain; charset=utf-8", detected)

	_, err = ValidateFile(fileHeader(t, "data.xlsx", []byte("a,b\n1,2\n")), c)
	assert.ErrorContains(t, err, "extension")

	_, err = ValidateFile(fileHeader(t, "data.csv", []byte("\x89PNG\r\n\x1a\n\x00\x00")), c)
	assert.ErrorContains(t, err, "file type")

	_, err = ValidateFile(fileHeader(t, "data.tsv", bytes.Repeat([]byte("a\tb\n"), 10)), DelimitedConstraints(8))
	assert.ErrorContains(t, err, "too large")

	assert.Equal(t, "text/tab-separated-values", ContentTypeFor("x.TSV"))
	assert.Equal(t, "text/csv", ContentTypeFor("x.csv"))
}

type createRequest struct {
	TableName string   `validate:"required,identifier"`
	Columns   []string `validate:"required,min=1"`
}

func TestStruct(t *testing.T) {
	assert.NoError(t, Struct(createRequest{TableName: "sales", Columns: []string{"a"}}))

	err := Struct(createRequest{TableName: "1bad"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TableName")
	assert.Contains(t, err.Error(), "Columns")
}
