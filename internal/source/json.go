package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/shownfy/kansai-mansion-analytics/internal/models"
)

// JSONFileSource reads an export of the transaction price API. The file
// holds either the raw response ({"data": [...]}) or a bare array.
type JSONFileSource struct {
	Path string
}

// NewJSONFileSource creates a source for the given file
func NewJSONFileSource(path string) *JSONFileSource {
	return &JSONFileSource{Path: path}
}

// Records reads the file and returns condominium sales only.
func (s *JSONFileSource) Records(ctx context.Context) ([]models.RawTransaction, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read source file: %w", err)
	}

	raw, err := decodeRecords(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse source file %s: %w", s.Path, err)
	}

	records := make([]models.RawTransaction, 0, len(raw))
	for _, m := range raw {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec := fromMap(m)
		if !IsCondominium(rec.Type) {
			continue
		}
		records = append(records, rec)
	}

	slog.Info("Source: loaded records", "path", s.Path, "total", len(raw), "condominium", len(records))
	return records, nil
}

func decodeRecords(data []byte) ([]map[string]interface{}, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var list []map[string]interface{}
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, err
		}
		return list, nil
	}

	var envelope struct {
		Data []map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, err
	}
	return envelope.Data, nil
}
