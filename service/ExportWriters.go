package service

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"

	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/view"
	"github.com/iancoleman/orderedmap"
	"github.com/xuri/excelize/v2"
)

const exportSheetName = "Export"

// ExportWriter serializes records projected onto the requested fields.
// Header cells and JSON keys use the field name so that an export re-imports with identity mapping.
type ExportWriter interface {
	WriteHeader() error
	WriteRecord(record view.Record) error
	Close() ([]byte, error)
}

func NewExportWriter(format view.ExportFormat, fields []view.EntityFieldDescriptor) (ExportWriter, error) {
	switch format {
	case view.ExportFormatCsv:
		buf := new(bytes.Buffer)
		return &csvExportWriter{fields: fields, buf: buf, writer: csv.NewWriter(buf)}, nil
	case view.ExportFormatExcel:
		return newExcelExportWriter(fields)
	case view.ExportFormatJson:
		return &jsonExportWriter{fields: fields, items: make([]*orderedmap.OrderedMap, 0)}, nil
	}
	return nil, fmt.Errorf("unsupported export format %s", format)
}

type csvExportWriter struct {
	fields []view.EntityFieldDescriptor
	buf    *bytes.Buffer
	writer *csv.Writer
}

func (w *csvExportWriter) WriteHeader() error {
	return w.writer.Write(fieldNames(w.fields))
}

func (w *csvExportWriter) WriteRecord(record view.Record) error {
	line := make([]string, len(w.fields))
	for i, f := range w.fields {
		line[i] = FormatValue(record[f.DbColumn])
	}
	return w.writer.Write(line)
}

func (w *csvExportWriter) Close() ([]byte, error) {
	w.writer.Flush()
	if err := w.writer.Error(); err != nil {
		return nil, err
	}
	return w.buf.Bytes(), nil
}

type excelExportWriter struct {
	fields []view.EntityFieldDescriptor
	file   *excelize.File
	stream *excelize.StreamWriter
	bold   int
	row    int
}

func newExcelExportWriter(fields []view.EntityFieldDescriptor) (*excelExportWriter, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", exportSheetName); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	stream, err := f.NewStreamWriter(exportSheetName)
	if err != nil {
		return nil, err
	}
	return &excelExportWriter{fields: fields, file: f, stream: stream, bold: bold}, nil
}

func (w *excelExportWriter) WriteHeader() error {
	cells := make([]interface{}, len(w.fields))
	for i, f := range w.fields {
		cells[i] = excelize.Cell{StyleID: w.bold, Value: f.Name}
	}
	return w.writeRow(cells)
}

func (w *excelExportWriter) WriteRecord(record view.Record) error {
	cells := make([]interface{}, len(w.fields))
	for i, f := range w.fields {
		cells[i] = FormatValue(record[f.DbColumn])
	}
	return w.writeRow(cells)
}

func (w *excelExportWriter) writeRow(cells []interface{}) error {
	w.row++
	cell, err := excelize.CoordinatesToCellName(1, w.row)
	if err != nil {
		return err
	}
	return w.stream.SetRow(cell, cells)
}

func (w *excelExportWriter) Close() ([]byte, error) {
	defer w.file.Close()
	if err := w.stream.Flush(); err != nil {
		return nil, err
	}
	buf, err := w.file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type jsonExportWriter struct {
	fields []view.EntityFieldDescriptor
	items  []*orderedmap.OrderedMap
}

// WriteHeader is a no-op, JSON objects always carry their keys.
func (w *jsonExportWriter) WriteHeader() error {
	return nil
}

func (w *jsonExportWriter) WriteRecord(record view.Record) error {
	item := orderedmap.New()
	for _, f := range w.fields {
		item.Set(f.Name, record[f.DbColumn])
	}
	w.items = append(w.items, item)
	return nil
}

func (w *jsonExportWriter) Close() ([]byte, error) {
	return json.MarshalIndent(w.items, "", "  ")
}

func fieldNames(fields []view.EntityFieldDescriptor) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}
