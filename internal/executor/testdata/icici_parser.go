package main

import (
	"errors"

	"github.com/jmylchreest/parsegen/pkg/pdfdoc"
	"github.com/jmylchreest/parsegen/pkg/table"
)

var columns = []string{"Date", "Description", "Debit Amt", "Credit Amt", "Balance"}

func parse(path string) (table.Table, error) {
	rows, err := pdfdoc.ExtractRows(path)
	if err != nil {
		return table.Table{}, err
	}

	t := table.New(columns...)
	for _, row := range rows {
		if len(row) == 0 || row[0] == columns[0] {
			continue
		}
		cells := make([]string, len(columns))
		copy(cells, row)
		t.Append(cells...)
	}
	if t.Len() == 0 {
		return table.Table{}, errors.New("no transactions found")
	}
	return t, nil
}
