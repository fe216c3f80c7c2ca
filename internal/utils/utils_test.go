package utils

import "testing"

func TestBuildPostgresDSNFromEnv(t *testing.T) {
	for _, k := range []string{"PG_HOST", "PG_PORT", "PG_USER", "PG_PASSWORD", "PG_DB", "PG_SSLMODE"} {
		t.Setenv(k, "")
	}
	if got, want := BuildPostgresDSNFromEnv(), "postgres://postgres@localhost:5432/rtw?sslmode=disable"; got != want {
		t.Errorf("got %q want %q", got, want)
	}
	t.Setenv("PG_HOST", "db")
	t.Setenv("PG_USER", "rtw")
	t.Setenv("PG_PASSWORD", "p@ss")
	t.Setenv("PG_DB", "maps")
	t.Setenv("PG_SSLMODE", "require")
	if got, want := BuildPostgresDSNFromEnv(), "postgres://rtw:p%40ss@db:5432/maps?sslmode=require"; got != want {
		t.Errorf("got %q want %q", got, want)
	}
}

func TestOpenRedis(t *testing.T) {
	if OpenRedis("", "") != nil {
		t.Errorf("empty addr should disable redis")
	}
	t.Setenv("REDIS_DISABLED", "true")
	if OpenRedisFromEnv() != nil {
		t.Errorf("REDIS_DISABLED should return nil")
	}
	t.Setenv("REDIS_DISABLED", "")
	t.Setenv("REDIS_DB", "-1")
	c := OpenRedisFromEnv()
	if c == nil {
		t.Fatalf("expected client")
	}
	defer c.Close()
	if c.Options().DB != 0 {
		t.Errorf("negative db should fall back to 0, got %d", c.Options().DB)
	}
}

func TestOpenPostgresFromEnv_PoolSettings(t *testing.T) {
	t.Setenv("PG_MAX_OPEN_CONNS", "3")
	db, err := OpenPostgresFromEnv()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	if db.Stats().MaxOpenConnections != 3 {
		t.Errorf("unexpected max open %d", db.Stats().MaxOpenConnections)
	}
}
