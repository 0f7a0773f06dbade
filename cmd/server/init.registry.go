package main

import (
	"github.com/sirupsen/logrus"

	models "admin_backoffice/internal/api/auth/models"
	basehdl "admin_backoffice/internal/api/base/handler"
	"admin_backoffice/internal/global"
	"admin_backoffice/internal/registry"
)

// RegistryModels: tên collection → model dùng để tạo index
var RegistryModels = registry.NewRegistry[interface{}]()

// RegistryHealth: tên thành phần → hàm kiểm tra sức khỏe
var RegistryHealth = registry.NewRegistry[basehdl.HealthChecker]()

// InitRegistry đăng ký các collection nghiệp vụ cùng model của chúng
func InitRegistry() {
	entries := map[string]interface{}{
		global.MongoDB_ColNames.AccountRoles: models.AccountRole{},
		global.MongoDB_ColNames.Accounts:     models.Account{},
	}
	for name, model := range entries {
		registered, err := RegistryModels.Register(name, model)
		if err != nil {
			logrus.Fatalf("Failed to register collection %s: %v", name, err)
		}
		if registered {
			logrus.Infof("Collection %s registered successfully", name)
		} else {
			logrus.Warnf("Collection %s already registered", name)
		}
	}
	logrus.Info("Initialized collection registry")
}

// healthChecks trả về toàn bộ health check đã đăng ký
func healthChecks() map[string]basehdl.HealthChecker {
	checks := make(map[string]basehdl.HealthChecker)
	_ = RegistryHealth.Each(func(name string, check basehdl.HealthChecker) error {
		checks[name] = check
		return nil
	})
	return checks
}
