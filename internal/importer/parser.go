package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"

	"door-catalog/internal/models"
	"door-catalog/internal/textutil"
)

var ErrUnsupportedFormat = errors.New("unsupported file format")

// Hojas preferidas al leer un libro de Excel
var preferredSheets = []string{"Products", "Sản phẩm"}

// headerAliases traduce encabezados (sin tildes y en minúsculas) al nombre canónico
var headerAliases = map[string]string{
	"name":              "name",
	"product name":      "name",
	"ten":               "name",
	"ten san pham":      "name",
	"price":             "price",
	"gia":               "price",
	"gia ban":           "price",
	"don gia":           "price",
	"category":          "category",
	"danh muc":          "category",
	"nhom san pham":     "category",
	"type":              "type",
	"product type":      "type",
	"loai":              "type",
	"phan loai":         "type",
	"loai san pham":     "type",
	"image":             "image",
	"image file":        "image",
	"hinh":              "image",
	"hinh anh":          "image",
	"anh":               "image",
	"ten anh":           "image",
	"description":       "description",
	"mo ta":             "description",
	"features":          "features",
	"dac diem":          "features",
	"dac diem noi bat":  "features",
	"tinh nang":         "features",
	"specifications":    "specifications",
	"specs":             "specifications",
	"thong so":          "specifications",
	"thong so ky thuat": "specifications",
}

// templateColumns es el orden de columnas de la plantilla descargable
var templateColumns = []struct {
	Name     string
	Required bool
	Example  string
	Help     string
}{
	{"name", true, "Cửa gỗ Sồi 2 cánh", "Product name. Blank rows get a placeholder name."},
	{"price", false, "4.500.000", "Price in VND. Blank or invalid becomes 0 (contact for price)."},
	{"category", false, "Cửa gỗ tự nhiên", "Must match a configured category, otherwise the first one is used."},
	{"type", false, "cửa", "Contains 'phụ kiện' or 'accessory' for accessories, anything else is a door."},
	{"image", false, "cua-go-soi.jpg", "File name of an image uploaded with the sheet."},
	{"description", false, "Cửa gỗ sồi tự nhiên, sơn PU", "Free text."},
	{"features", false, "Chống cong vênh;Cách âm tốt", "Bullet points separated by ';'."},
	{"specifications", false, "Chất liệu:Gỗ sồi;Độ dày:40mm", "key:value pairs separated by ';'. Empty uses the type template."},
}

// ParseFile convierte un CSV o XLSX en filas de importación.
// Las filas vacías se descartan y Row conserva el número de línea del archivo.
func ParseFile(filename string, data []byte) ([]models.ImportRow, error) {
	var (
		reader *sheetReader
		err    error
	)

	switch strings.ToLower(path.Ext(strings.TrimSpace(filename))) {
	case ".csv":
		reader, err = readCSV(data)
	case ".xlsx", ".xlsm":
		reader, err = readXLSX(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
	}
	if err != nil {
		return nil, err
	}
	if len(reader.records) == 0 {
		return nil, nil
	}

	var parsed []models.ImportRow
	if err := gocsv.UnmarshalCSV(reader, &parsed); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}

	rows := make([]models.ImportRow, 0, len(parsed))
	for i, row := range parsed {
		if row.IsBlank() {
			continue
		}
		row.Row = reader.lines[i+1]
		rows = append(rows, row)
	}
	return rows, nil
}

// sheetReader expone registros ya leídos con la interfaz que espera gocsv
type sheetReader struct {
	records [][]string
	lines   []int
	pos     int
}

func (r *sheetReader) Read() ([]string, error) {
	if r.pos >= len(r.records) {
		return nil, io.EOF
	}
	record := r.records[r.pos]
	r.pos++
	return record, nil
}

func (r *sheetReader) ReadAll() ([][]string, error) {
	rest := r.records[r.pos:]
	r.pos = len(r.records)
	return rest, nil
}

func (r *sheetReader) add(record []string, line int) {
	cells := make([]string, len(record))
	for i, v := range record {
		cells[i] = strings.TrimSpace(v)
	}
	if len(r.records) == 0 {
		for i := range cells {
			cells[i] = canonicalHeader(cells[i])
		}
	}
	r.records = append(r.records, cells)
	r.lines = append(r.lines, line)
}

func readCSV(data []byte) (*sheetReader, error) {
	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	reader := &sheetReader{}
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		line, _ := cr.FieldPos(0)
		reader.add(record, line)
	}
	return reader, nil
}

func readXLSX(data []byte) (*sheetReader, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("no sheets found in workbook")
	}

	sheet := sheets[0]
	for _, name := range sheets {
		if preferredSheet(name) {
			sheet = name
			break
		}
	}

	excelRows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}

	reader := &sheetReader{}
	for i, record := range excelRows {
		// el encabezado es la primera fila con contenido
		if len(reader.records) == 0 && blankRecord(record) {
			continue
		}
		reader.add(record, i+1)
	}
	return reader, nil
}

func preferredSheet(name string) bool {
	for _, p := range preferredSheets {
		if textutil.Fold(name) == textutil.Fold(p) {
			return true
		}
	}
	return false
}

func blankRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// canonicalHeader normaliza un encabezado; los desconocidos quedan tal cual
func canonicalHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(h), "*"))
	key := textutil.StripDiacritics(textutil.Fold(h))
	key = strings.Join(strings.Fields(strings.ReplaceAll(key, "_", " ")), " ")
	if canonical, ok := headerAliases[key]; ok {
		return canonical
	}
	return key
}

// WriteTemplate escribe la plantilla vacía en el formato pedido (csv o xlsx)
// y devuelve su content type
func WriteTemplate(w io.Writer, format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "csv":
		return "text/csv; charset=utf-8", writeCSVTemplate(w)
	case "xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", writeXLSXTemplate(w)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

func writeCSVTemplate(w io.Writer) error {
	header := make([]string, len(templateColumns))
	for i, col := range templateColumns {
		header[i] = col.Name
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func writeXLSXTemplate(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := preferredSheets[0]
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 1}},
	})
	if err != nil {
		return err
	}
	requiredStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"C65911"}, Pattern: 1},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 1}},
	})
	if err != nil {
		return err
	}

	for i, col := range templateColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		header, style := col.Name, headerStyle
		if col.Required {
			header, style = col.Name+" *", requiredStyle
		}
		f.SetCellValue(sheet, cell, header)
		f.SetCellStyle(sheet, cell, cell, style)

		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, colName, colName, 24)
	}

	const help = "Instructions"
	if _, err := f.NewSheet(help); err != nil {
		return err
	}
	f.SetCellValue(help, "A1", "Product import instructions")
	f.SetCellValue(help, "A2", "Upload the image files together with this sheet; the image column holds their file names.")
	f.SetCellValue(help, "A4", "Column")
	f.SetCellValue(help, "B4", "Description")
	f.SetCellValue(help, "C4", "Example")
	for i, col := range templateColumns {
		row := i + 5
		f.SetCellValue(help, fmt.Sprintf("A%d", row), col.Name)
		f.SetCellValue(help, fmt.Sprintf("B%d", row), col.Help)
		f.SetCellValue(help, fmt.Sprintf("C%d", row), col.Example)
	}
	f.SetColWidth(help, "A", "A", 20)
	f.SetColWidth(help, "B", "B", 70)
	f.SetColWidth(help, "C", "C", 35)

	if idx, err := f.GetSheetIndex(sheet); err == nil {
		f.SetActiveSheet(idx)
	}
	return f.Write(w)
}
