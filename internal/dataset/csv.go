package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"

	"github.com/staysense/cancelcast/pkg/errors"
)

// ReadCSV loads a table from a CSV stream. The first record is the header.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.Wrap(errors.ErrEmptyData, "ReadCSV")
	}
	if err != nil {
		return nil, errors.Wrap(err, "ReadCSV: header")
	}

	t := New(header)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "ReadCSV: record")
		}
		if err := t.AppendRow(record); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// ReadCSVFile loads a table from a CSV file on disk.
func ReadCSVFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewArtifactError("ReadCSVFile", path, err)
	}
	defer f.Close()
	t, err := ReadCSV(f)
	if err != nil {
		return nil, errors.Wrapf(err, "ReadCSVFile: %s", path)
	}
	return t, nil
}

// WriteCSV writes the table as CSV with a header row.
func (t *Table) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Columns); err != nil {
		return errors.Wrap(err, "WriteCSV: header")
	}
	for _, row := range t.Cells {
		if err := writer.Write(row); err != nil {
			return errors.Wrap(err, "WriteCSV: record")
		}
	}
	writer.Flush()
	return errors.Wrap(writer.Error(), "WriteCSV: flush")
}

// WriteCSVFile persists the table to path, creating parent directories and
// overwriting any previous artifact.
func (t *Table) WriteCSVFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.NewArtifactError("WriteCSVFile", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.NewArtifactError("WriteCSVFile", path, err)
	}
	defer f.Close()
	if err := t.WriteCSV(f); err != nil {
		return errors.Wrapf(err, "WriteCSVFile: %s", path)
	}
	return nil
}
