package main

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"admin_backoffice/config"
	models "admin_backoffice/internal/api/auth/models"
	authsvc "admin_backoffice/internal/api/auth/service"
	basesvc "admin_backoffice/internal/api/base/service"
	"admin_backoffice/internal/database"
	"admin_backoffice/internal/database/memstore"
	"admin_backoffice/internal/global"
	"admin_backoffice/internal/logger"
	"admin_backoffice/internal/metrics"
)

// Server gom các thành phần đã khởi tạo của ứng dụng
type Server struct {
	Config   *config.Configuration
	Client   *mongo.Client // nil khi STORE_DRIVER=memory
	Memory   *memstore.Store
	Prom     *prometheus.Registry
	Metrics  *metrics.Metrics
	Audit    *logger.AuditLogger
	Runner   *database.TransactionRunner
	Roles    *authsvc.AccountRoleService
	Accounts *authsvc.AccountService
	Auth     *authsvc.AuthService
}

// repositories là cặp repository của domain auth theo store driver
type repositories struct {
	factory  database.ScopeFactory
	roles    basesvc.Repository[models.AccountRole]
	accounts basesvc.Repository[models.Account]
}

// initValidator khởi tạo validator (đăng ký no_xss, strong_password, permission)
func initValidator() {
	global.InitValidator()
	logrus.Info("Initialized validator")
}

// initConfig đọc cấu hình server
func initConfig() *config.Configuration {
	cfg, err := config.NewConfig()
	if err != nil {
		logrus.Fatalf("Failed to initialize config: %v", err)
	}
	logrus.WithField("store", cfg.StoreDriver).Info("Initialized server config")
	return cfg
}

// InitServer khởi tạo store, audit, metrics, transaction runner và các service
func InitServer(ctx context.Context, cfg *config.Configuration) (*Server, error) {
	s := &Server{Config: cfg, Prom: prometheus.NewRegistry()}
	s.Prom.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	s.Metrics = metrics.New(s.Prom)

	repos, err := s.initDatabase(ctx)
	if err != nil {
		return nil, err
	}

	s.Audit = s.initAudit()

	s.Runner = database.NewTransactionRunner(repos.factory, database.RetryPolicy{
		MaxRetries:   cfg.TxMaxRetries,
		BaseInterval: time.Duration(cfg.TxBackoffBaseMs) * time.Millisecond,
		Multiplier:   cfg.TxBackoffFactor,
		MaxInterval:  time.Duration(cfg.TxBackoffMaxMs) * time.Millisecond,
	}, s.Audit, s.Metrics)

	s.Roles = authsvc.NewAccountRoleService(repos.roles, repos.accounts, s.Runner, s.Audit, s.Metrics)
	s.Accounts = authsvc.NewAccountService(repos.accounts, s.Roles, s.Runner, s.Audit, s.Metrics)
	s.Accounts.SetPasswordCost(cfg.BcryptCost)
	s.Auth = authsvc.NewAuthService(s.Accounts, s.Runner, cfg.JwtSecret, cfg.JwtTTL())

	logger.GetAppLogger().Info("Initialized services")
	return s, nil
}

// initDatabase kết nối store theo STORE_DRIVER và tạo repository
func (s *Server) initDatabase(ctx context.Context) (*repositories, error) {
	switch s.Config.StoreDriver {
	case config.StoreDriverMemory:
		return s.initMemoryStore(), nil
	case config.StoreDriverMongo:
		return s.initMongoStore(ctx)
	}
	return nil, fmt.Errorf("unsupported store driver %q", s.Config.StoreDriver)
}

func (s *Server) initMongoStore(ctx context.Context) (*repositories, error) {
	client, err := database.Connect(ctx, s.Config.MongoDB_URI)
	if err != nil {
		return nil, err
	}
	s.Client = client
	db := client.Database(s.Config.MongoDB_DBName)

	// Collection phải có sẵn trước khi ghi trong transaction
	names := append(RegistryModels.Names(), global.MongoDB_ColNames.AuditLogs)
	if err := database.EnsureCollections(ctx, db, names...); err != nil {
		return nil, err
	}
	logrus.Info("Ensured database and collections")

	if err := RegistryModels.Each(func(name string, model interface{}) error {
		return database.CreateIndexes(ctx, db.Collection(name), model)
	}); err != nil {
		return nil, err
	}
	logrus.Info("Ensured indexes")

	_, _ = RegistryHealth.Register("mongodb", func(ctx context.Context) error {
		return client.Ping(ctx, readpref.Primary())
	})

	return &repositories{
		factory:  database.NewMongoScopeFactory(client),
		roles:    basesvc.NewBaseServiceMongo[models.AccountRole](db.Collection(global.MongoDB_ColNames.AccountRoles)),
		accounts: basesvc.NewBaseServiceMongo[models.Account](db.Collection(global.MongoDB_ColNames.Accounts)),
	}, nil
}

func (s *Server) initMemoryStore() *repositories {
	store := memstore.New()
	s.Memory = store
	_ = RegistryModels.Each(func(name string, model interface{}) error {
		store.EnsureIndexes(name, database.CollectIndexes(model))
		return nil
	})
	logrus.Warn("Using in-memory store, data is lost on restart")

	_, _ = RegistryHealth.Register("memory", func(context.Context) error { return nil })

	return &repositories{
		factory:  store,
		roles:    basesvc.NewBaseServiceMemory[models.AccountRole](store.Collection(global.MongoDB_ColNames.AccountRoles)),
		accounts: basesvc.NewBaseServiceMemory[models.Account](store.Collection(global.MongoDB_ColNames.Accounts)),
	}
}

// initAudit tạo audit logger ghi ra kênh audit của logrus và (tùy chọn) collection audit_logs
func (s *Server) initAudit() *logger.AuditLogger {
	sinks := []logger.AuditSink{logger.NewLogrusAuditSink(logger.GetAuditLogger())}
	if s.Config.AuditMongo && s.Client != nil {
		col := s.Client.Database(s.Config.MongoDB_DBName).Collection(global.MongoDB_ColNames.AuditLogs)
		sinks = append(sinks, database.NewMongoAuditSink(col))
	}
	audit := logger.NewAuditLogger(s.Config.AuditQueueSize, sinks...)
	audit.SetFallback(logger.GetErrorLogger().Writer())
	return audit
}

// Close giải phóng tài nguyên theo thứ tự ngược với lúc khởi tạo
func (s *Server) Close() {
	if s.Audit != nil {
		s.Audit.Close()
	}
	if s.Client != nil {
		_ = database.Disconnect(s.Client)
	}
}
