package record

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"
)

type ParquetSchema struct {
	Name   string         `json:"name"`
	Fields []ParquetField `json:"fields"`
}

type ParquetField struct {
	Name     string      `json:"name"`
	Type     interface{} `json:"type"`
	Nullable bool        `json:"nullable"`
}

// schemaJSON is the published column list of GameRecord.
//
//go:embed schema.json
var schemaJSON []byte

func Schema() (ParquetSchema, error) {
	var schema ParquetSchema
	if err := json.Unmarshal(schemaJSON, &schema); err != nil {
		return ParquetSchema{}, err
	}
	return schema, nil
}

// WriteParquet writes every record received on records to path, then closes
// the file once the channel is closed.
func WriteParquet(path string, records <-chan GameRecord, parallel int64) error {
	schema, err := Schema()
	if err != nil {
		return err
	}
	if err := ValidateSchema(schema, GameRecord{}); err != nil {
		return err
	}

	fileWriter, err := local.NewLocalFileWriter(path)
	if err != nil {
		return err
	}
	defer fileWriter.Close()

	parquetWriter, err := writer.NewParquetWriter(fileWriter, new(GameRecord), parallel)
	if err != nil {
		return err
	}
	parquetWriter.CompressionType = parquet.CompressionCodec_SNAPPY

	for record := range records {
		if err := parquetWriter.Write(record); err != nil {
			return fmt.Errorf("write record %s: %w", record.GameID, err)
		}
	}
	if err := parquetWriter.WriteStop(); err != nil {
		return err
	}
	return fileWriter.Close()
}

// ReadParquet loads every record in path.
func ReadParquet(path string, parallel int64) ([]GameRecord, error) {
	absPath := path
	if !filepath.IsAbs(path) {
		if resolved, err := filepath.Abs(path); err == nil {
			absPath = resolved
		}
	}
	fileReader, err := local.NewLocalFileReader(absPath)
	if err != nil {
		return nil, err
	}
	defer fileReader.Close()

	parquetReader, err := reader.NewParquetReader(fileReader, new(GameRecord), parallel)
	if err != nil {
		return nil, err
	}
	defer parquetReader.ReadStop()

	num := int(parquetReader.GetNumRows())
	records := make([]GameRecord, 0, num)
	batchSize := 1024
	for offset := 0; offset < num; offset += batchSize {
		if remain := num - offset; remain < batchSize {
			batchSize = remain
		}
		batch := make([]GameRecord, batchSize)
		if err := parquetReader.Read(&batch); err != nil {
			return nil, err
		}
		records = append(records, batch...)
	}
	return records, nil
}

// ValidateSchema checks that the top-level parquet columns of sample match
// schema exactly.
func ValidateSchema(schema ParquetSchema, sample any) error {
	schemaFields := make(map[string]struct{}, len(schema.Fields))
	for _, field := range schema.Fields {
		schemaFields[field.Name] = struct{}{}
	}
	structFields := structParquetFieldNames(sample)
	missing := diffKeys(schemaFields, structFields)
	extra := diffKeys(structFields, schemaFields)
	if len(missing) > 0 || len(extra) > 0 {
		return fmt.Errorf("parquet schema mismatch: missing=%v extra=%v", missing, extra)
	}
	return nil
}

func structParquetFieldNames(sample any) map[string]struct{} {
	fields := map[string]struct{}{}
	v := reflect.TypeOf(sample)
	for i := 0; i < v.NumField(); i++ {
		if name := parseParquetName(v.Field(i).Tag.Get("parquet")); name != "" {
			fields[name] = struct{}{}
		}
	}
	return fields
}

func parseParquetName(tag string) string {
	for _, part := range strings.Split(tag, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) == 2 && kv[0] == "name" {
			return kv[1]
		}
	}
	return ""
}

func diffKeys(a, b map[string]struct{}) []string {
	var diff []string
	for key := range a {
		if _, ok := b[key]; !ok {
			diff = append(diff, key)
		}
	}
	sort.Strings(diff)
	return diff
}
