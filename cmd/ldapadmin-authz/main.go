package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"ldapadmin-authz/internal/config"
	"ldapadmin-authz/internal/database"
	"ldapadmin-authz/internal/domain"
	httpapi "ldapadmin-authz/internal/http"
	"ldapadmin-authz/internal/logger"
	"ldapadmin-authz/internal/repository"
	"ldapadmin-authz/internal/service"
	"ldapadmin-authz/internal/store"
)

func main() {
	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "ldapadmin-authz")
	if err != nil {
		log, _ = zap.NewProduction()
	}
	defer log.Sync()

	// Decision cache: Redis when enabled and reachable, in-process otherwise.
	var kv store.KV = store.NewMemoryKV()
	if cfg.CacheEnabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			log.Warn("Redis enabled but unreachable, using in-process cache", zap.Error(err))
		} else {
			kv = store.NewRedisKV(redisClient)
			log.Info("Redis decision cache enabled", zap.String("addr", cfg.Redis.Addr))
		}
		cancel()
	}

	// Assignment store + scope registry: Postgres when enabled, with an
	// in-memory fallback so the service still comes up for local dev.
	var assignments repository.AssignmentsRepository
	var scopes repository.ScopeRegistry
	if cfg.DBEnabled {
		if db, err := database.NewPostgresDB(cfg); err == nil {
			assignments = repository.NewPostgresAssignmentsRepo(db)
			scopes = repository.NewPostgresScopeRegistry(db)
			log.Info("DB enabled for ldapadmin-authz")
		} else {
			log.Warn("DB enabled but connection failed, falling back to in-memory store", zap.Error(err))
		}
	}
	if assignments == nil {
		memAssignments := repository.NewMemoryAssignmentsRepo()
		memScopes := repository.NewMemoryScopeRegistry(memAssignments)

		// Dev seed: a System tenant with one directory, one realm and a
		// manager-level bootstrap admin, so evaluate calls work out of
		// the box without provisioning.
		if os.Getenv("SEED_DEMO") != "false" {
			tenant := memScopes.CreateTenant(domain.Tenant{
				TenantID:   "00000000-0000-0000-0000-000000000001",
				TenantName: "System",
				Domain:     "system.local",
			})
			dir, _ := memScopes.CreateDirectory(domain.Directory{
				DirectoryID:   "00000000-0000-0000-0000-000000000010",
				TenantID:      tenant.TenantID,
				DirectoryName: "Demo Directory",
				Host:          "localhost",
				Port:          389,
				BaseDN:        "dc=example,dc=com",
				Vendor:        "openldap",
			})
			_, _ = memScopes.CreateRealm(domain.Realm{
				RealmID:     "00000000-0000-0000-0000-000000000020",
				DirectoryID: dir.DirectoryID,
				RealmName:   "People",
				UserBaseDN:  "ou=people,dc=example,dc=com",
				GroupBaseDN: "ou=groups,dc=example,dc=com",
			})
			admin, _ := memScopes.CreateAdmin(domain.AdminAccount{
				AdminID:     "00000000-0000-0000-0000-000000000030",
				TenantID:    tenant.TenantID,
				Account:     "sysadmin",
				DisplayName: "SystemAdmin",
				Active:      true,
			})
			_ = memAssignments.AssignDirectoryRole(context.Background(), admin.AdminID, dir.DirectoryID, domain.RoleManager)
		}

		assignments = memAssignments
		scopes = memScopes
	}

	evaluator := service.NewEvaluator(scopes, assignments, log)
	gate := service.NewGate(evaluator, assignments, kv, cfg.DecisionTTL, log)
	perms := service.NewPermissionService(scopes, assignments, gate, log)

	handler := httpapi.NewAuthzHandler(gate, perms, log)
	router := httpapi.NewRouter(log)
	router.RegisterAuthzRoutes(handler)

	server := service.NewServer(cfg.HTTP.Addr, router, log)
	go func() {
		if err := server.Start(); err != nil {
			log.Error("HTTP server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
