package utils

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// ReadPresetsCsvFile loads category presets from a CSV file where each
// record is `preset,category[,category...]`. Records for the same preset
// are merged in file order. Lines starting with # are ignored.
func ReadPresetsCsvFile(filePath string) (map[string][]string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("unable to read presets file %s: %w", filePath, err)
	}
	defer f.Close()

	return ReadPresetsCsv(f)
}

func ReadPresetsCsv(r io.Reader) (map[string][]string, error) {
	csvReader := csv.NewReader(r)
	csvReader.FieldsPerRecord = -1
	csvReader.Comment = '#'
	csvReader.TrimLeadingSpace = true

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("unable to parse presets csv: %w", err)
	}

	presets := make(map[string][]string)
	for _, record := range records {
		if len(record) < 2 {
			log.Warn().Strs("record", record).Msg("[ReadPresetsCsv] skipping record without categories")
			continue
		}
		name := strings.TrimSpace(record[0])
		if name == "" {
			log.Warn().Strs("record", record).Msg("[ReadPresetsCsv] skipping record without preset name")
			continue
		}
		for _, category := range record[1:] {
			category = strings.TrimSpace(category)
			if category == "" {
				continue
			}
			presets[name] = append(presets[name], category)
		}
	}

	return presets, nil
}
