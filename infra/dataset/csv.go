package dataset

import (
	"encoding/csv"
	"io"

	"github.com/gocarina/gocsv"
)

// newReader tolerates rows with missing trailing columns.
func newReader(in io.Reader) gocsv.CSVReader {
	r := csv.NewReader(in)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	return r
}

func unmarshal(in io.Reader, out any, header bool) error {
	if header {
		return gocsv.UnmarshalCSV(newReader(in), out)
	}
	return gocsv.UnmarshalCSVWithoutHeaders(newReader(in), out)
}
