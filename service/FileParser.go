package service

import (
	"bytes"
	"encoding/base64"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/exception"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/view"
	"github.com/iancoleman/orderedmap"
	"github.com/xuri/excelize/v2"
)

type FileType string

const (
	FileTypeCsv  FileType = "csv"
	FileTypeXlsx FileType = "xlsx"
	FileTypeXls  FileType = "xls"
	FileTypeJson FileType = "json"
)

var (
	utf8Bom  = []byte{0xEF, 0xBB, 0xBF}
	zipMagic = []byte{0x50, 0x4B, 0x03, 0x04}
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0}
)

type FileParser interface {
	Parse(data []byte, fileName string) (*view.ParsedFile, error)
	DetectFileType(data []byte, fileName string) (FileType, error)
}

func NewFileParser(sampleRows int, maxFileSizeMb int) FileParser {
	return &fileParserImpl{
		sampleRows:   sampleRows,
		maxSizeBytes: int64(maxFileSizeMb) * 1024 * 1024,
		maxSizeMb:    maxFileSizeMb,
	}
}

type fileParserImpl struct {
	sampleRows   int
	maxSizeBytes int64
	maxSizeMb    int
}

// DecodeBase64File accepts plain base64 as well as a data URL ("data:text/csv;base64,....").
func DecodeBase64File(fileData string, fileName string) ([]byte, error) {
	if idx := strings.Index(fileData, ";base64,"); idx >= 0 && strings.HasPrefix(fileData, "data:") {
		fileData = fileData[idx+len(";base64,"):]
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(fileData))
	if err != nil {
		return nil, unparseableFile(fileName, "file content is not valid base64")
	}
	return data, nil
}

func (p fileParserImpl) Parse(data []byte, fileName string) (*view.ParsedFile, error) {
	if p.maxSizeBytes > 0 && int64(len(data)) > p.maxSizeBytes {
		return nil, &exception.CustomError{
			Status:  http.StatusRequestEntityTooLarge,
			Code:    exception.FileTooLarge,
			Message: exception.FileTooLargeMsg,
			Params:  map[string]interface{}{"fileName": fileName, "limitMb": p.maxSizeMb},
		}
	}
	fileType, err := p.DetectFileType(data, fileName)
	if err != nil {
		return nil, err
	}

	var headers []string
	var rows []view.ParsedRow
	switch fileType {
	case FileTypeCsv:
		headers, rows, err = parseCsv(data, fileName)
	case FileTypeXlsx, FileTypeXls:
		headers, rows, err = parseSpreadsheet(data, fileName, fileType)
	case FileTypeJson:
		headers, rows, err = parseJson(data, fileName)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, emptyFile(fileName)
	}

	sampleSize := p.sampleRows
	if sampleSize > len(rows) {
		sampleSize = len(rows)
	}
	return &view.ParsedFile{
		Headers:    headers,
		SampleRows: rows[:sampleSize],
		TotalRows:  len(rows),
		Rows:       rows,
	}, nil
}

func (p fileParserImpl) DetectFileType(data []byte, fileName string) (FileType, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv", ".txt":
		return FileTypeCsv, nil
	case ".xlsx", ".xlsm":
		return FileTypeXlsx, nil
	case ".xls":
		return FileTypeXls, nil
	case ".json":
		return FileTypeJson, nil
	}
	switch {
	case bytes.HasPrefix(data, zipMagic):
		return FileTypeXlsx, nil
	case bytes.HasPrefix(data, oleMagic):
		return FileTypeXls, nil
	}
	trimmed := bytes.TrimSpace(bytes.TrimPrefix(data, utf8Bom))
	if len(trimmed) > 0 && (trimmed[0] == '[' || trimmed[0] == '{') {
		return FileTypeJson, nil
	}
	if utf8.Valid(trimmed) {
		return FileTypeCsv, nil
	}
	return "", &exception.CustomError{
		Status:  http.StatusBadRequest,
		Code:    exception.UnsupportedFileType,
		Message: exception.UnsupportedFileTypeMsg,
		Params:  map[string]interface{}{"fileName": fileName},
	}
}

func parseCsv(data []byte, fileName string) ([]string, []view.ParsedRow, error) {
	data = bytes.TrimPrefix(data, utf8Bom)
	if !utf8.Valid(data) {
		return nil, nil, unparseableFile(fileName, "file is not a valid UTF-8 text")
	}
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, unparseableFile(fileName, err.Error())
	}
	if len(records) == 0 {
		return nil, nil, emptyFile(fileName)
	}
	headers, rows := tableToRows(records)
	return headers, rows, nil
}

func parseSpreadsheet(data []byte, fileName string, fileType FileType) ([]string, []view.ParsedRow, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		if fileType == FileTypeXls {
			return nil, nil, unparseableFile(fileName, "legacy binary .xls workbooks are not supported, save the file as .xlsx or .csv")
		}
		return nil, nil, unparseableFile(fileName, err.Error())
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, unparseableFile(fileName, "workbook has no sheets")
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, unparseableFile(fileName, err.Error())
	}
	if len(records) == 0 {
		return nil, nil, emptyFile(fileName)
	}
	headers, rows := tableToRows(records)
	return headers, rows, nil
}

// tableToRows treats the first record as headers and drops fully empty lines.
func tableToRows(records [][]string) ([]string, []view.ParsedRow) {
	headers := normalizeHeaders(records[0])
	rows := make([]view.ParsedRow, 0, len(records)-1)
	for _, record := range records[1:] {
		if isBlankRecord(record) {
			continue
		}
		row := make(view.ParsedRow, len(headers))
		for i, header := range headers {
			if i < len(record) {
				row[header] = record[i]
			} else {
				row[header] = ""
			}
		}
		rows = append(rows, row)
	}
	return headers, rows
}

func normalizeHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	used := make(map[string]bool, len(raw))
	for i, h := range raw {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Column %d", i+1)
		}
		name := h
		for n := 2; used[name]; n++ {
			name = fmt.Sprintf("%s (%d)", h, n)
		}
		used[name] = true
		headers[i] = name
	}
	return headers
}

func isBlankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// parseJson reads an array of flat objects, or a single object as one row.
// Headers are the union of keys in first-seen order.
func parseJson(data []byte, fileName string) ([]string, []view.ParsedRow, error) {
	data = bytes.TrimSpace(bytes.TrimPrefix(data, utf8Bom))
	var items []json.RawMessage
	if bytes.HasPrefix(data, []byte("{")) {
		items = []json.RawMessage{data}
	} else if err := json.Unmarshal(data, &items); err != nil {
		return nil, nil, unparseableFile(fileName, "expected a JSON array of objects: "+err.Error())
	}
	headers := make([]string, 0)
	known := map[string]bool{}
	rows := make([]view.ParsedRow, 0, len(items))
	for i, item := range items {
		keys := orderedmap.New()
		if err := json.Unmarshal(item, keys); err != nil {
			return nil, nil, unparseableFile(fileName, fmt.Sprintf("item %d is not an object", i+1))
		}
		values := map[string]interface{}{}
		dec := json.NewDecoder(bytes.NewReader(item))
		dec.UseNumber()
		if err := dec.Decode(&values); err != nil {
			return nil, nil, unparseableFile(fileName, err.Error())
		}
		row := make(view.ParsedRow, len(values))
		for _, key := range keys.Keys() {
			cell, err := jsonScalarToString(values[key])
			if err != nil {
				return nil, nil, unparseableFile(fileName, fmt.Sprintf("item %d, key '%s': %s", i+1, key, err.Error()))
			}
			row[key] = cell
			if !known[key] {
				known[key] = true
				headers = append(headers, key)
			}
		}
		rows = append(rows, row)
	}
	for _, row := range rows {
		for _, h := range headers {
			if _, exists := row[h]; !exists {
				row[h] = ""
			}
		}
	}
	return headers, rows, nil
}

func jsonScalarToString(value interface{}) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		return "", fmt.Errorf("nested values are not supported")
	}
}

func unparseableFile(fileName string, reason string) *exception.CustomError {
	return &exception.CustomError{
		Status:  http.StatusBadRequest,
		Code:    exception.UnparseableFile,
		Message: exception.UnparseableFileMsg,
		Params:  map[string]interface{}{"fileName": fileName, "reason": reason},
	}
}

func emptyFile(fileName string) *exception.CustomError {
	return &exception.CustomError{
		Status:  http.StatusBadRequest,
		Code:    exception.EmptyFile,
		Message: exception.EmptyFileMsg,
		Params:  map[string]interface{}{"fileName": fileName},
	}
}
