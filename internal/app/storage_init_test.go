package app

import (
	"context"
	"testing"

	log "github.com/sirupsen/logrus"
)

func TestInitStorage_Memory(t *testing.T) {
	logger := log.WithField("component", "test")

	storage, err := initStorage(context.Background(), Config{StorageDriver: StorageDriverMemory}, logger)
	if err != nil {
		t.Fatalf("init memory storage failed: %v", err)
	}
	if storage.Repo == nil {
		t.Fatal("expected repository to be initialized")
	}
	storage.Close(logger)
}

func TestInitStorage_DefaultsToMemory(t *testing.T) {
	logger := log.WithField("component", "test")

	storage, err := initStorage(context.Background(), Config{}, logger)
	if err != nil {
		t.Fatalf("init storage failed: %v", err)
	}
	if storage.Repo == nil {
		t.Fatal("expected repository to be initialized")
	}
}

func TestInitStorage_PostgresRequiresDSN(t *testing.T) {
	logger := log.WithField("component", "test")

	if _, err := initStorage(context.Background(), Config{StorageDriver: StorageDriverPostgres}, logger); err == nil {
		t.Fatal("expected error for missing DSN")
	}
}

func TestInitStorage_UnknownDriver(t *testing.T) {
	logger := log.WithField("component", "test")

	if _, err := initStorage(context.Background(), Config{StorageDriver: "mongo"}, logger); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
