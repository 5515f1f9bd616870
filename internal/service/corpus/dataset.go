package corpus

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"langid/internal/service/vocabulary"
)

// DatasetHeader is the first line of a JSON lines dataset
type DatasetHeader struct {
	Schema  []string `json:"schema"`
	Samples int      `json:"samples"`
}

// WriteDataset writes the attribute schema followed by one JSON object per
// row
func WriteDataset(w io.Writer, schema []string, rows []*vocabulary.Sample) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)

	if err := enc.Encode(DatasetHeader{Schema: schema, Samples: len(rows)}); err != nil {
		return fmt.Errorf("failed to write dataset header: %w", err)
	}
	for i, row := range rows {
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("failed to write dataset row %d: %w", i, err)
		}
	}

	return bw.Flush()
}

// ReadDataset reads a dataset written by WriteDataset
func ReadDataset(r io.Reader) ([]string, []*vocabulary.Sample, error) {
	dec := json.NewDecoder(bufio.NewReader(r))

	var header DatasetHeader
	if err := dec.Decode(&header); err != nil {
		return nil, nil, fmt.Errorf("failed to read dataset header: %w", err)
	}

	rows := make([]*vocabulary.Sample, 0, header.Samples)
	for {
		var row vocabulary.Sample
		err := dec.Decode(&row)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read dataset row %d: %w", len(rows), err)
		}
		rows = append(rows, &row)
	}

	if len(rows) != header.Samples {
		return nil, nil, fmt.Errorf("dataset truncated: header announces %d rows, found %d", header.Samples, len(rows))
	}
	return header.Schema, rows, nil
}

// SaveDataset writes a dataset file, creating its directory when needed
func SaveDataset(path string, schema []string, rows []*vocabulary.Sample) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create dataset directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create dataset file: %w", err)
	}
	if err := WriteDataset(file, schema, rows); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
