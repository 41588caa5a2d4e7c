// Package sheet reads and writes the product spreadsheet (.xlsx) used for bulk
// import and export.
package sheet

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/MikeMC777/costeo/internal/product"
)

const (
	MaxUploadBytes = 5 << 20
	exportSheet    = "Products"
)

var (
	ErrBadUpload     = errors.New("invalid upload")
	ErrTooLarge      = errors.New("file exceeds 5MB")
	ErrMissingHeader = errors.New("missing required column")
)

// Header is the export column order.
var Header = []string{"Name", "SKU", "Unit", "Package qty", "Package price", "Unit cost", "Stock", "Min stock"}

type column int

const (
	colName column = iota
	colSKU
	colUnit
	colPackageQty
	colPackagePrice
	colStock
	colMinStock
)

// aliases maps normalized header text to a column. Portuguese headers come from
// sheets people already keep.
var aliases = map[string]column{
	"name": colName, "nome": colName, "product": colName, "produto": colName,
	"sku": colSKU, "code": colSKU, "codigo": colSKU, "código": colSKU,
	"unit": colUnit, "unidade": colUnit, "un": colUnit,
	"package qty": colPackageQty, "qtd embalagem": colPackageQty, "quantidade embalagem": colPackageQty, "quantidade": colPackageQty,
	"package price": colPackagePrice, "price": colPackagePrice, "preço": colPackagePrice, "preco": colPackagePrice,
	"preço embalagem": colPackagePrice, "preco embalagem": colPackagePrice,
	"stock": colStock, "estoque": colStock,
	"min stock": colMinStock, "estoque mínimo": colMinStock, "estoque minimo": colMinStock,
}

func normalizeHeader(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", " ")
	return strings.Join(strings.Fields(s), " ")
}

// UploadRequest payload for POST /products/import.
// swagger:model UploadRequest
type UploadRequest struct {
	Filename   string `json:"filename"    example:"estoque.xlsx"`
	FileBase64 string `json:"file_base64"`
}

// DecodeUpload turns the {filename, file_base64} payload into xlsx bytes. A data
// URL prefix is accepted.
func DecodeUpload(filename, b64 string) ([]byte, error) {
	if !strings.EqualFold(filepath.Ext(strings.TrimSpace(filename)), ".xlsx") {
		return nil, fmt.Errorf("%w: only .xlsx files are accepted", ErrBadUpload)
	}
	if i := strings.Index(b64, ";base64,"); i >= 0 {
		b64 = b64[i+len(";base64,"):]
	}
	b64 = strings.TrimSpace(b64)
	if b64 == "" {
		return nil, fmt.Errorf("%w: file_base64 is required", ErrBadUpload)
	}
	if base64.StdEncoding.DecodedLen(len(b64)) > MaxUploadBytes+3 {
		return nil, ErrTooLarge
	}
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("%w: file_base64 is not valid base64", ErrBadUpload)
	}
	if len(raw) > MaxUploadBytes {
		return nil, ErrTooLarge
	}
	return raw, nil
}

// ExportProducts writes one row per product under Header.
func ExportProducts(ps []product.Product) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, err
	}
	for i, h := range Header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(exportSheet, cell, h); err != nil {
			return nil, err
		}
	}
	for r, p := range ps {
		values := []any{
			p.Name, p.SKU, p.Unit,
			p.PackageQty.InexactFloat64(), p.PackagePrice.InexactFloat64(), p.UnitCost.InexactFloat64(),
			p.Stock.InexactFloat64(), p.MinStock.InexactFloat64(),
		}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(exportSheet, cell, v); err != nil {
				return nil, err
			}
		}
	}
	return f.WriteToBuffer()
}

// Row is one parsed data row. Line is the 1-based spreadsheet row number.
type Row struct {
	Line    int
	Product product.Product
	// HasStock reports whether the stock cell was filled in.
	HasStock bool
}

type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ReadProducts parses the first sheet. Rows that fail validation are reported
// and skipped; a missing name or package column fails the whole file.
func ReadProducts(r io.Reader) ([]Row, []RowError, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: not a readable xlsx file", ErrBadUpload)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("%w: workbook has no sheets", ErrBadUpload)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("%w: sheet is empty", ErrBadUpload)
	}

	index := map[column]int{}
	for i, h := range rows[0] {
		if c, ok := aliases[normalizeHeader(h)]; ok {
			if _, dup := index[c]; !dup {
				index[c] = i
			}
		}
	}
	for _, req := range []struct {
		c    column
		name string
	}{{colName, "Name"}, {colUnit, "Unit"}, {colPackageQty, "Package qty"}, {colPackagePrice, "Package price"}} {
		if _, ok := index[req.c]; !ok {
			return nil, nil, fmt.Errorf("%w: %s", ErrMissingHeader, req.name)
		}
	}

	var out []Row
	var errs []RowError
	for i, cells := range rows[1:] {
		line := i + 2
		get := func(c column) string {
			pos, ok := index[c]
			if !ok || pos >= len(cells) {
				return ""
			}
			return strings.TrimSpace(cells[pos])
		}
		if blank(cells) {
			continue
		}

		row := Row{Line: line}
		p := &row.Product
		p.Name, p.SKU, p.Unit = get(colName), get(colSKU), get(colUnit)

		var perr error
		if p.PackageQty, perr = parseNumber(get(colPackageQty)); perr != nil {
			errs = append(errs, RowError{Row: line, Message: "package qty: " + perr.Error()})
			continue
		}
		if p.PackagePrice, perr = parseNumber(get(colPackagePrice)); perr != nil {
			errs = append(errs, RowError{Row: line, Message: "package price: " + perr.Error()})
			continue
		}
		if s := get(colStock); s != "" {
			if p.Stock, perr = parseNumber(s); perr != nil {
				errs = append(errs, RowError{Row: line, Message: "stock: " + perr.Error()})
				continue
			}
			row.HasStock = true
		}
		if p.MinStock, perr = parseNumber(get(colMinStock)); perr != nil {
			errs = append(errs, RowError{Row: line, Message: "min stock: " + perr.Error()})
			continue
		}

		p.Normalize()
		p.Reprice()
		if err := p.Validate(); err != nil {
			errs = append(errs, RowError{Row: line, Message: strings.TrimPrefix(err.Error(), product.ErrInvalid.Error()+": ")})
			continue
		}
		out = append(out, row)
	}
	return out, errs, nil
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// parseNumber accepts "1234.5", "1,5" and "1.234,56". Empty means zero.
func parseNumber(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "R$"))
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return decimal.Zero, nil
	}
	dot, comma := strings.LastIndex(s, "."), strings.LastIndex(s, ",")
	switch {
	case comma >= 0 && dot >= 0 && comma > dot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case comma >= 0 && dot >= 0:
		s = strings.ReplaceAll(s, ",", "")
	case comma >= 0:
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errors.New("not a number")
	}
	return v, nil
}
