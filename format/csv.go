package format

import (
	"encoding/csv"
	"strings"
)

func renderCSV(data any) (string, error) {
	items := rows(data)
	if len(items) == 0 {
		return "", nil
	}

	keys := columns(items)
	var buf strings.Builder
	w := csv.NewWriter(&buf)
	if err := w.Write(keys); err != nil {
		return "", err
	}
	for _, item := range items {
		record := make([]string, len(keys))
		for i, key := range keys {
			record[i] = cell(item[key])
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
