// Package config đọc cấu hình ứng dụng từ biến môi trường và file config/env/{GO_ENV}.env
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Các store driver được hỗ trợ
const (
	StoreDriverMongo  = "mongo"
	StoreDriverMemory = "memory"
)

// Configuration chứa thông tin tĩnh cần thiết để chạy ứng dụng
type Configuration struct {
	Address         string `env:"ADDRESS" envDefault:":8080"`                  // Địa chỉ server
	JwtSecret       string `env:"JWT_SECRET,required"`                         // Bí mật ký JWT
	JwtTTLMinutes   int    `env:"JWT_TTL_MINUTES" envDefault:"60"`             // Thời gian sống của token (phút)
	StoreDriver     string `env:"STORE_DRIVER" envDefault:"mongo"`             // mongo | memory
	BcryptCost      int    `env:"BCRYPT_COST" envDefault:"10"`                 // Cost của bcrypt
	ShutdownTimeout int    `env:"SHUTDOWN_TIMEOUT_SECONDS" envDefault:"10"`    // Thời gian chờ tắt server (giây)
	MetricsEnabled  bool   `env:"METRICS_ENABLED" envDefault:"true"`           // Bật route /metrics
	AuditQueueSize  int    `env:"AUDIT_QUEUE_SIZE" envDefault:"1024"`          // Kích thước hàng đợi audit
	AuditMongo      bool   `env:"AUDIT_MONGO_ENABLED" envDefault:"false"`      // Ghi audit vào collection audit_logs
	CORS_Origins    string `env:"CORS_ORIGINS" envDefault:"*"`                 // Các origins được phép (phân cách bởi dấu phẩy, * = tất cả)
	CORS_AllowCreds bool   `env:"CORS_ALLOW_CREDENTIALS" envDefault:"false"`   // Cho phép gửi credentials
	MongoDB_URI     string `env:"MONGODB_CONNECTION_URI"`                      // URL kết nối cơ sở dữ liệu
	MongoDB_DBName  string `env:"MONGODB_DBNAME_AUTH" envDefault:"backoffice"` // Tên cơ sở dữ liệu

	RateLimit_Enabled bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"` // Bật/tắt rate limiting
	RateLimit_Max     int  `env:"RATE_LIMIT_MAX" envDefault:"100"`      // Số request tối đa trong window (0 = tắt)
	RateLimit_Window  int  `env:"RATE_LIMIT_WINDOW" envDefault:"60"`    // Thời gian window (giây)

	// Retry của transaction
	TxMaxRetries    uint64  `env:"TX_MAX_RETRIES" envDefault:"3"`
	TxBackoffBaseMs int     `env:"TX_BACKOFF_BASE_MS" envDefault:"1000"`
	TxBackoffFactor float64 `env:"TX_BACKOFF_FACTOR" envDefault:"2"`
	TxBackoffMaxMs  int     `env:"TX_BACKOFF_MAX_MS" envDefault:"5000"`

	// Tài khoản quản trị tạo khi khởi động (email rỗng = bỏ qua)
	BootstrapAdminEmail    string `env:"BOOTSTRAP_ADMIN_EMAIL"`
	BootstrapAdminPassword string `env:"BOOTSTRAP_ADMIN_PASSWORD"`
	BootstrapAdminName     string `env:"BOOTSTRAP_ADMIN_NAME" envDefault:"Administrator"`
}

// JwtTTL trả về thời gian sống của token
func (c *Configuration) JwtTTL() time.Duration {
	return time.Duration(c.JwtTTLMinutes) * time.Minute
}

// RateLimitWindow trả về window của rate limiter
func (c *Configuration) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimit_Window) * time.Second
}

// CORSOrigins tách danh sách origins
func (c *Configuration) CORSOrigins() []string {
	if strings.TrimSpace(c.CORS_Origins) == "*" {
		return []string{"*"}
	}
	origins := strings.Split(c.CORS_Origins, ",")
	for i, origin := range origins {
		origins[i] = strings.TrimSpace(origin)
	}
	return origins
}

// Validate kiểm tra các ràng buộc giữa các key
func (c *Configuration) Validate() error {
	var errs []error
	switch c.StoreDriver {
	case StoreDriverMongo:
		if c.MongoDB_URI == "" {
			errs = append(errs, errors.New("MONGODB_CONNECTION_URI is required when STORE_DRIVER=mongo"))
		}
		if c.MongoDB_DBName == "" {
			errs = append(errs, errors.New("MONGODB_DBNAME_AUTH is required when STORE_DRIVER=mongo"))
		}
	case StoreDriverMemory:
		if c.AuditMongo {
			errs = append(errs, errors.New("AUDIT_MONGO_ENABLED requires STORE_DRIVER=mongo"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported STORE_DRIVER %q", c.StoreDriver))
	}
	if len(c.JwtSecret) < 16 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 16 characters"))
	}
	if c.JwtTTLMinutes <= 0 {
		errs = append(errs, errors.New("JWT_TTL_MINUTES must be positive"))
	}
	if c.BootstrapAdminEmail != "" && c.BootstrapAdminPassword == "" {
		errs = append(errs, errors.New("BOOTSTRAP_ADMIN_PASSWORD is required when BOOTSTRAP_ADMIN_EMAIL is set"))
	}
	return errors.Join(errs...)
}

// getEnvPath trả về đường dẫn đến file env dựa trên môi trường
func getEnvPath() string {
	goEnv := os.Getenv("GO_ENV")
	if goEnv == "" {
		goEnv = "development"
	}

	currentDir, err := os.Getwd()
	if err != nil {
		return ""
	}

	// Tìm thư mục config/env từ thư mục hiện tại đi lên
	for {
		envDir := filepath.Join(currentDir, "config", "env")
		if _, err := os.Stat(envDir); err == nil {
			return filepath.Join(envDir, fmt.Sprintf("%s.env", goEnv))
		}
		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return ""
		}
		currentDir = parentDir
	}
}

// NewConfig đọc cấu hình. files được load trước file env mặc định;
// biến môi trường đã có luôn được ưu tiên hơn giá trị trong file.
func NewConfig(files ...string) (*Configuration, error) {
	if envPath := getEnvPath(); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			files = append(files, envPath)
		}
	}
	if len(files) > 0 {
		if err := godotenv.Load(files...); err != nil {
			return nil, fmt.Errorf("load env files: %w", err)
		}
	}

	cfg := Configuration{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}
