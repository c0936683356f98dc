package importer

import (
	"context"
	"fmt"

	"github.com/rubiojr/catalog/pkg/query"
	"github.com/rubiojr/catalog/pkg/search"
	"github.com/xuri/excelize/v2"
)

const exportSheet = "Products"

// Export writes every row matching q to a new workbook at path and returns
// the number of rows written. Headers use attribute labels, so the file can
// be imported again; owners are exported as resolved display names.
func Export(ctx context.Context, svc *search.Service, q query.SearchQuery, path string) (int, error) {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return 0, fmt.Errorf("naming sheet: %w", err)
	}

	columns := svc.Columns()
	header := []any{colID, colTitle, colCategories, colPermalink}
	for _, name := range columns {
		label := string(name)
		if a, ok := svc.Schema().Lookup(string(name)); ok {
			label = a.Label
		}
		header = append(header, label)
	}
	if err := writeRow(f, 1, header); err != nil {
		return 0, err
	}

	line := 1
	q.Page = 1
	err := svc.Walk(ctx, q, func(resp *search.Response) error {
		for _, r := range resp.Rows {
			cells := []any{r.ID.String(), r.Title.Text, r.Categories.Text, r.Permalink.Text}
			for _, name := range columns {
				cells = append(cells, r.Attr(name).Text)
			}
			line++
			if err := writeRow(f, line, cells); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if err := f.SaveAs(path); err != nil {
		return 0, fmt.Errorf("saving workbook %s: %w", path, err)
	}
	return line - 1, nil
}

func writeRow(f *excelize.File, line int, cells []any) error {
	cell, err := excelize.CoordinatesToCellName(1, line)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(exportSheet, cell, &cells); err != nil {
		return fmt.Errorf("writing row %d: %w", line, err)
	}
	return nil
}
