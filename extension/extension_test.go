package extension

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/xraph/rampart/cache"
	"github.com/xraph/rampart/directory"
	"github.com/xraph/rampart/id"
	"github.com/xraph/rampart/store/memory"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.CacheTTL <= 0 {
		t.Errorf("CacheTTL = %v, want positive", cfg.CacheTTL)
	}
	if cfg.RedisPrefix != "rampart" {
		t.Errorf("RedisPrefix = %q", cfg.RedisPrefix)
	}

	ec := Config{CacheTTL: time.Minute}.engineConfig()
	if ec.CacheTTL != time.Minute {
		t.Errorf("engine CacheTTL = %v", ec.CacheTTL)
	}
	if ec.CacheSize <= 0 {
		t.Errorf("engine CacheSize = %d, want default", ec.CacheSize)
	}
}

func TestOptions(t *testing.T) {
	s := memory.New()
	d := directory.NewMemory()
	e := New(WithStore(s), WithDirectory(d), WithDisableRoutes(), WithDisableMigrate())

	if e.store != s || e.directory == nil {
		t.Fatal("store or directory not applied")
	}
	if !e.config.DisableRoutes || !e.config.DisableMigrate {
		t.Errorf("config = %+v", e.config)
	}
	if e.Name() != ExtensionName {
		t.Errorf("Name = %q", e.Name())
	}
}

func TestNewStoreUnknownBackend(t *testing.T) {
	if _, err := newStore("cassandra", nil); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestBuildCache(t *testing.T) {
	logger := slog.Default()

	e := New()
	ec := Config{}.engineConfig()
	ec.CacheTTL = 0
	if c := e.buildCache(ec, logger); c != nil {
		t.Errorf("cache with zero TTL = %T, want nil", c)
	}

	ec = e.config.engineConfig()
	if _, ok := e.buildCache(ec, logger).(*cache.Memory); !ok {
		t.Error("expected in-process cache without redis address")
	}

	mr := miniredis.RunT(t)
	e = New(WithConfig(Config{RedisAddr: mr.Addr(), RedisPrefix: "t", CacheTTL: time.Minute}))
	c, ok := e.buildCache(e.config.engineConfig(), logger).(*cache.Redis)
	if !ok {
		t.Fatal("expected redis cache with an address")
	}
	if e.redis == nil {
		t.Fatal("redis client not retained for shutdown")
	}
	defer e.redis.Close()

	if _, hit := c.GetRolePermissions(context.Background(), "org1", id.NewRoleID()); hit {
		t.Error("empty redis reported a hit")
	}
}

func TestLifecycleBeforeRegister(t *testing.T) {
	e := New()
	if err := e.Start(context.Background()); err == nil {
		t.Error("Start before Register should fail")
	}
	if err := e.Stop(context.Background()); err != nil {
		t.Errorf("Stop before Register: %v", err)
	}
	if err := e.Health(context.Background()); err == nil {
		t.Error("Health before Register should fail")
	}
}
