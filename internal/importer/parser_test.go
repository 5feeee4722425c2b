package importer

import (
	"bytes"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestParseCSV(t *testing.T) {
	data := "\ufeffTên sản phẩm *,Giá,Danh mục,Loại,Hình ảnh,Thông số,Ghi chú\n" +
		"Cửa gỗ Sồi,\"4.500.000 đ\",composite,cửa,soi.jpg,Chất liệu:Gỗ sồi,x\n" +
		",,,,,,\n" +
		"  Khóa vân tay  ,1200000,,phụ kiện,,,\n"

	rows, err := ParseFile("products.CSV", []byte(data))
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d: %+v", len(rows), rows)
	}

	first := rows[0]
	if first.Row != 2 || first.Name != "Cửa gỗ Sồi" || first.Price != "4.500.000 đ" ||
		first.Category != "composite" || first.Type != "cửa" || first.Image != "soi.jpg" ||
		first.Specifications != "Chất liệu:Gỗ sồi" {
		t.Errorf("Unexpected first row %+v", first)
	}
	if rows[1].Row != 4 || rows[1].Name != "Khóa vân tay" || rows[1].Type != "phụ kiện" {
		t.Errorf("Unexpected second row %+v", rows[1])
	}
}

func TestParseCSVEnglishHeaders(t *testing.T) {
	data := "name,price,category,type,image,description,features,specifications\n" +
		"Door A,100,Composite,door,a.jpg,Nice,One;Two,Material:Wood\n"

	rows, err := ParseFile("import.csv", []byte(data))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Features != "One;Two" || rows[0].Description != "Nice" {
		t.Errorf("Unexpected rows %+v", rows)
	}
}

func TestParseXLSXPrefersProductsSheet(t *testing.T) {
	f := excelize.NewFile()
	f.SetCellValue("Sheet1", "A1", "notes")
	f.SetCellValue("Sheet1", "A2", "ignore me")

	sheet := "Sản phẩm"
	if _, err := f.NewSheet(sheet); err != nil {
		t.Fatal(err)
	}
	f.SetSheetRow(sheet, "A1", &[]any{"Tên sản phẩm", "Giá", "Loại", "Hình ảnh"})
	f.SetSheetRow(sheet, "A2", &[]any{"Cửa thép", "3000000", "cửa", "thep.png"})
	f.SetSheetRow(sheet, "A4", &[]any{"Bản lề", "", "phụ kiện"})

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}

	rows, err := ParseFile("catalog.xlsx", buf.Bytes())
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %+v", rows)
	}
	if rows[0].Name != "Cửa thép" || rows[0].Image != "thep.png" || rows[0].Row != 2 {
		t.Errorf("Unexpected first row %+v", rows[0])
	}
	if rows[1].Name != "Bản lề" || rows[1].Type != "phụ kiện" || rows[1].Row != 4 {
		t.Errorf("Unexpected second row %+v", rows[1])
	}
}

func TestParseUnsupportedFormat(t *testing.T) {
	if _, err := ParseFile("products.pdf", []byte("%PDF")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestParseEmptyFile(t *testing.T) {
	rows, err := ParseFile("empty.csv", nil)
	if err != nil || len(rows) != 0 {
		t.Errorf("Expected no rows and no error, got %v, %v", rows, err)
	}
}

func TestTemplatesParseToNoRows(t *testing.T) {
	for _, format := range []string{"csv", "xlsx"} {
		var buf bytes.Buffer
		contentType, err := WriteTemplate(&buf, format)
		if err != nil {
			t.Fatalf("%s: WriteTemplate failed: %v", format, err)
		}
		if contentType == "" || buf.Len() == 0 {
			t.Fatalf("%s: empty template", format)
		}

		rows, err := ParseFile("template."+format, buf.Bytes())
		if err != nil || len(rows) != 0 {
			t.Errorf("%s: a header-only template should parse to no rows, got %v, %v", format, rows, err)
		}
	}

	if _, err := WriteTemplate(&bytes.Buffer{}, "ods"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestCanonicalHeader(t *testing.T) {
	tests := map[string]string{
		"Tên sản phẩm *":    "name",
		"THÔNG SỐ KỸ THUẬT": "specifications",
		"product_name":      "name",
		"\ufeffname":        "name",
		"Ghi chú":           "ghi chu",
	}
	for in, want := range tests {
		if got := canonicalHeader(in); got != want {
			t.Errorf("canonicalHeader(%q) = %q, expected %q", in, got, want)
		}
	}
}
