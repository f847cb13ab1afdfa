package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"estate-gap-backend/internal/analyses/recovery"
	"estate-gap-backend/internal/intake"
)

// readOptional returns the file contents, or "" when path is empty.
func readOptional(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

func readRaw(filePath, consolePath string) (recovery.RawOutput, error) {
	file, err := readOptional(filePath)
	if err != nil {
		return recovery.RawOutput{}, err
	}
	console, err := readOptional(consolePath)
	if err != nil {
		return recovery.RawOutput{}, err
	}
	return recovery.RawOutput{File: file, Console: console}, nil
}

func readIntake(path string) (intake.Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return intake.Input{}, fmt.Errorf("read %s: %w", path, err)
	}
	var in intake.Input
	if err := json.Unmarshal(data, &in); err != nil {
		return intake.Input{}, fmt.Errorf("parse intake %s: %w", path, err)
	}
	return in, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
