package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
)

func newCapturedLogger(buf *bytes.Buffer) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.WarnLevel)
	logger.SetOutput(buf)
	return logger
}

func TestLogErrorTagsModuleAndFunc(t *testing.T) {
	var buf bytes.Buffer
	logger := newCapturedLogger(&buf)

	LogError(logger, "migration.go", "MigrateTable", "db.AutoMigrate", nil, errors.New("ddl failed"))

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	if entry["module"] != "migration.go" {
		t.Fatalf("expected module migration.go, got %v", entry["module"])
	}
	if entry["funcName"] != "MigrateTable" {
		t.Fatalf("expected funcName MigrateTable, got %v", entry["funcName"])
	}
	if entry["context"] != "db.AutoMigrate" {
		t.Fatalf("expected context db.AutoMigrate, got %v", entry["context"])
	}
	if entry["msg"] != "ddl failed" {
		t.Fatalf("expected msg ddl failed, got %v", entry["msg"])
	}
	if _, present := entry["data"]; present {
		t.Fatalf("nil data must not emit a data field")
	}
}

func TestLogErrorIncludesData(t *testing.T) {
	var buf bytes.Buffer
	logger := newCapturedLogger(&buf)

	LogError(logger, "immutabilityAudit.go", "LogViolation", "db.Create",
		map[string]interface{}{"organization_id": "org-1"}, errors.New("insert failed"))

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	data, ok := entry["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected data field, got %v", entry["data"])
	}
	if data["organization_id"] != "org-1" {
		t.Fatalf("expected organization_id org-1, got %v", data["organization_id"])
	}
}
