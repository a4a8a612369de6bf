package sheets

import (
	"context"
	"fmt"
	"strings"
)

// Table is one named sheet whose rows span columns A through lastColumn.
// Row positions are 1-based sheet rows.
type Table struct {
	client     *Client
	name       string
	firstRow   int
	lastColumn string
}

// NewTable binds a sheet. firstRow is the first data row, below any header rows.
func NewTable(client *Client, name string, firstRow int, lastColumn string) *Table {
	return &Table{
		client:     client,
		name:       name,
		firstRow:   firstRow,
		lastColumn: lastColumn,
	}
}

// ReadRows returns every row from firstRow down. Trailing empty cells are
// omitted by the API, so rows may be shorter than the column span.
func (t *Table) ReadRows(ctx context.Context) ([][]string, error) {
	return t.client.GetValues(ctx, fmt.Sprintf("%s!A%d:%s", t.sheetRef(), t.firstRow, t.lastColumn))
}

func (t *Table) AppendRow(ctx context.Context, row []string) error {
	return t.client.AppendValues(ctx, fmt.Sprintf("%s!A:%s", t.sheetRef(), t.lastColumn), row)
}

func (t *Table) WriteRow(ctx context.Context, position int, row []string) error {
	if position < t.firstRow {
		return fmt.Errorf("row %d is above the data range (first row %d)", position, t.firstRow)
	}
	rng := fmt.Sprintf("%s!A%d:%s%d", t.sheetRef(), position, t.lastColumn, position)
	return t.client.UpdateValues(ctx, rng, row)
}

func (t *Table) DeleteRow(ctx context.Context, position int) error {
	if position < t.firstRow {
		return fmt.Errorf("row %d is above the data range (first row %d)", position, t.firstRow)
	}

	sheetID, err := t.client.SheetID(ctx, t.name)
	if err != nil {
		return err
	}

	return t.client.DeleteRows(ctx, sheetID, int64(position-1), int64(position))
}

// sheetRef quotes the sheet name for A1 notation when it is not a plain word.
func (t *Table) sheetRef() string {
	for _, r := range t.name {
		if !(r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return "'" + strings.ReplaceAll(t.name, "'", "''") + "'"
		}
	}
	return t.name
}
