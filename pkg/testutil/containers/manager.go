//go:build integration

// Package containers starts shared backing services for integration tests.
package containers

import (
	"sync"
	"testing"
)

// Manager lazily starts one container per backing service and shares it
// across every suite in the test binary.
type Manager struct {
	redisOnce    sync.Once
	redis        *RedisContainer
	postgresOnce sync.Once
	postgres     *PostgresContainer
	mongoOnce    sync.Once
	mongo        *MongoContainer
}

var (
	managerOnce sync.Once
	manager     *Manager
)

// GetManager returns the process-wide container manager.
func GetManager() *Manager {
	managerOnce.Do(func() {
		manager = &Manager{}
	})
	return manager
}

// GetRedis returns the shared Redis container, starting it on first use.
func (m *Manager) GetRedis(t *testing.T) *RedisContainer {
	t.Helper()
	m.redisOnce.Do(func() {
		m.redis = NewRedisContainer(t)
	})
	if m.redis == nil {
		t.Fatal("redis container failed to start earlier in this run")
	}
	return m.redis
}

// GetPostgres returns the shared PostgreSQL container.
func (m *Manager) GetPostgres(t *testing.T) *PostgresContainer {
	t.Helper()
	m.postgresOnce.Do(func() {
		m.postgres = NewPostgresContainer(t)
	})
	if m.postgres == nil {
		t.Fatal("postgres container failed to start earlier in this run")
	}
	return m.postgres
}

// GetMongo returns the shared MongoDB container.
func (m *Manager) GetMongo(t *testing.T) *MongoContainer {
	t.Helper()
	m.mongoOnce.Do(func() {
		m.mongo = NewMongoContainer(t)
	})
	if m.mongo == nil {
		t.Fatal("mongo container failed to start earlier in this run")
	}
	return m.mongo
}
