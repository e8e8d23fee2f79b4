package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"basegraph.app/recommender/common"
)

// ErrEmptyCatalog is returned when a catalog file holds a header but no products.
var ErrEmptyCatalog = errors.New("catalog has no products")

// Field is one column of a catalog row.
type Field struct {
	Name  string
	Value string
}

// Product is one row of the catalog file.
type Product struct {
	ID     string
	Row    int
	Fields []Field
}

// Title is the first non-empty value among the usual name columns, falling
// back to the first column.
func (p Product) Title() string {
	for _, want := range []string{"name", "title", "product", "product_name"} {
		for _, f := range p.Fields {
			if strings.EqualFold(strings.TrimSpace(f.Name), want) && f.Value != "" {
				return f.Value
			}
		}
	}
	if len(p.Fields) > 0 {
		return p.Fields[0].Value
	}
	return ""
}

// Content renders every column as "name: value" pairs, the text that gets
// indexed and shown to the model.
func (p Product) Content() string {
	parts := make([]string, 0, len(p.Fields))
	for _, f := range p.Fields {
		if f.Value == "" {
			continue
		}
		parts = append(parts, f.Name+": "+f.Value)
	}
	return strings.Join(parts, "; ")
}

// Load reads the catalog CSV at path.
func Load(path string) ([]Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	products, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return products, nil
}

// Parse reads products from CSV. The first record names the columns; blank
// records are skipped.
func Parse(r io.Reader) ([]Product, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyCatalog
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	var products []Product
	for row := 1; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", row, err)
		}
		if blank(record) {
			continue
		}

		p := Product{Row: row}
		for i, value := range record {
			name := "column_" + strconv.Itoa(i+1)
			if i < len(header) && header[i] != "" {
				name = header[i]
			}
			p.Fields = append(p.Fields, Field{Name: name, Value: strings.TrimSpace(value)})
		}
		p.ID = productID(p)
		products = append(products, p)
	}

	if len(products) == 0 {
		return nil, ErrEmptyCatalog
	}
	return products, nil
}

func productID(p Product) string {
	id := strconv.Itoa(p.Row)
	if slug, err := common.Slugify(p.Title(), ""); err == nil {
		id += "-" + slug
	}
	return id
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
