package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/amonks/taskboard/internal/validation"
)

type outputFormat string

const (
	formatTable outputFormat = "table"
	formatJSON  outputFormat = "json"
	formatYAML  outputFormat = "yaml"
)

var errInvalidFormat = errors.New("invalid output format")

func validOutputFormats() []outputFormat {
	return []outputFormat{formatTable, formatJSON, formatYAML}
}

func parseOutputFormat(value string) (outputFormat, error) {
	for _, format := range validOutputFormats() {
		if outputFormat(value) == format {
			return format, nil
		}
	}
	return "", validation.FormatInvalidValueError(errInvalidFormat, outputFormat(value), validOutputFormats())
}

func currentFormat() outputFormat {
	format, err := parseOutputFormat(rootFormat)
	if err != nil {
		return formatTable
	}
	return format
}

// writeOutput encodes value as JSON or YAML, or calls text for the table
// format.
func writeOutput(w io.Writer, value any, text func() string) error {
	switch currentFormat() {
	case formatJSON:
		return encodeJSON(w, value)
	case formatYAML:
		return encodeYAML(w, value)
	default:
		_, err := fmt.Fprint(w, text())
		return err
	}
}

func encodeJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func encodeYAML(w io.Writer, value any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(value); err != nil {
		return err
	}
	return enc.Close()
}
