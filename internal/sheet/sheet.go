// Package sheet reads the source grid from an xlsx workbook and writes the
// destination workbook.
package sheet

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// DefaultSheet is the worksheet read and written when none is configured.
const DefaultSheet = "Worksheet"

// ErrSheetNotFound means the source workbook has no sheet with the
// requested name.
var ErrSheetNotFound = errors.New("sheet not found")

// Kind classifies a source cell.
type Kind int

const (
	// Empty cells have no value and are not written.
	Empty Kind = iota
	// Text cells hold a string and take part in translation.
	Text
	// Other cells (numbers, booleans, dates, formulas, errors) are final.
	Other
)

// Cell is one source cell.
type Cell struct {
	Kind  Kind
	Value string
	Type  excelize.CellType
}

// Grid is the used range of a worksheet: the smallest rectangle holding every
// non-empty cell. Top and Left are its zero-based origin on the sheet, and all
// row and column arguments are sheet coordinates.
type Grid struct {
	Sheet  string
	Top    int
	Left   int
	Width  int
	Height int
	cells  [][]Cell
}

// Open reads sheetName from the workbook at path.
func Open(path, sheetName string) (*Grid, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open source workbook: %w", err)
	}
	defer f.Close()

	return Read(f, sheetName)
}

// Read loads sheetName from an already opened workbook.
func Read(f *excelize.File, sheetName string) (*Grid, error) {
	if idx, err := f.GetSheetIndex(sheetName); err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: no worksheet named '%s'", ErrSheetNotFound, sheetName)
	}

	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet '%s': %w", sheetName, err)
	}

	g := &Grid{Sheet: sheetName, cells: make([][]Cell, len(rows))}
	for r, row := range rows {
		g.cells[r] = make([]Cell, len(row))
		for c, value := range row {
			name, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			typ, err := f.GetCellType(sheetName, name)
			if err != nil {
				return nil, fmt.Errorf("failed to read cell %s: %w", name, err)
			}
			g.cells[r][c] = classify(value, typ)
		}
	}
	g.bound()

	return g, nil
}

func classify(value string, typ excelize.CellType) Cell {
	switch typ {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString:
		return Cell{Kind: Text, Value: value, Type: typ}
	case excelize.CellTypeUnset:
		if value == "" {
			return Cell{Kind: Empty, Type: typ}
		}
	}
	return Cell{Kind: Other, Value: value, Type: typ}
}

// NewGrid builds an in-memory grid from text rows. Every non-nil value is a
// Text cell; nil entries are Empty.
func NewGrid(sheetName string, rows [][]*string) *Grid {
	g := &Grid{Sheet: sheetName, cells: make([][]Cell, len(rows))}
	for r, row := range rows {
		g.cells[r] = make([]Cell, len(row))
		for c, v := range row {
			if v != nil {
				g.cells[r][c] = Cell{Kind: Text, Value: *v, Type: excelize.CellTypeSharedString}
			}
		}
	}
	g.bound()
	return g
}

// bound shrinks the grid to its used range. A sheet without used cells
// yields an empty grid at A1.
func (g *Grid) bound() {
	top, left, bottom, right := -1, -1, -1, -1
	for r, row := range g.cells {
		for c, cell := range row {
			if cell.Kind == Empty {
				continue
			}
			if top < 0 {
				top = r
			}
			if left < 0 || c < left {
				left = c
			}
			bottom = r
			if c > right {
				right = c
			}
		}
	}
	if top < 0 {
		g.Top, g.Left, g.Width, g.Height = 0, 0, 0, 0
		return
	}
	g.Top, g.Left = top, left
	g.Height = bottom - top + 1
	g.Width = right - left + 1
}

// HeaderRow returns the sheet row of the first used row.
func (g *Grid) HeaderRow() int {
	return g.Top
}

// Size returns Width*Height.
func (g *Grid) Size() int {
	return g.Width * g.Height
}

// Cell returns the cell at sheet position row, col. Positions outside the
// stored rows are Empty.
func (g *Grid) Cell(row, col int) Cell {
	if row < 0 || row >= len(g.cells) || col < 0 || col >= len(g.cells[row]) {
		return Cell{Kind: Empty}
	}
	return g.cells[row][col]
}

// Writer builds the destination workbook.
type Writer struct {
	f     *excelize.File
	sheet string
	path  string
}

// Create prepares a new workbook at path with one sheet named sheetName.
// Nothing is written to disk until Save.
func Create(path, sheetName string) (*Writer, error) {
	if err := ValidateOutputPath(path); err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	if sheetName != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheetName); err != nil {
			f.Close()
			return nil, fmt.Errorf("invalid sheet name %q: %w", sheetName, err)
		}
	}

	return &Writer{f: f, sheet: sheetName, path: path}, nil
}

// ValidateOutputPath checks that path names an .xlsx file in an existing directory.
func ValidateOutputPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("invalid destination filename: empty path")
	}
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".xlsx" {
		return fmt.Errorf("invalid destination filename %q: want .xlsx extension", path)
	}
	info, err := os.Stat(filepath.Dir(path))
	if err != nil {
		return fmt.Errorf("invalid destination filename %q: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("invalid destination filename %q: parent is not a directory", path)
	}
	return nil
}

// WriteString sets the text of one cell (0-based coordinates).
func (w *Writer) WriteString(row, col int, text string) error {
	name, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return err
	}
	return w.f.SetCellStr(w.sheet, name, text)
}

// WriteValue copies an already-final source cell, keeping numbers and
// booleans typed.
func (w *Writer) WriteValue(row, col int, cell Cell) error {
	name, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return err
	}

	switch cell.Type {
	case excelize.CellTypeBool:
		return w.f.SetCellBool(w.sheet, name, cell.Value == "1" || strings.EqualFold(cell.Value, "true"))
	case excelize.CellTypeNumber, excelize.CellTypeUnset, excelize.CellTypeDate:
		if v, err := strconv.ParseFloat(cell.Value, 64); err == nil {
			return w.f.SetCellFloat(w.sheet, name, v, -1, 64)
		}
	}
	return w.f.SetCellStr(w.sheet, name, cell.Value)
}

// Save writes the workbook to its path.
func (w *Writer) Save() error {
	if err := w.f.SaveAs(w.path); err != nil {
		return fmt.Errorf("failed to save destination workbook: %w", err)
	}
	return nil
}

// Close releases the workbook.
func (w *Writer) Close() error {
	return w.f.Close()
}
