package main

import (
	"context"

	"admin_backoffice/internal/api/initsvc"
	"admin_backoffice/internal/logger"
)

// InitDefaultData tạo vai trò Admin hệ thống và tài khoản quản trị (nếu được cấu hình)
func InitDefaultData(ctx context.Context, s *Server) error {
	log := logger.GetAppLogger()
	log.Info("[INIT] Starting InitDefaultData...")

	initService := initsvc.NewInitService(s.Roles, s.Accounts, s.Runner)
	err := initService.InitAll(ctx, initsvc.AdminAccount{
		Email:    s.Config.BootstrapAdminEmail,
		Password: s.Config.BootstrapAdminPassword,
		Name:     s.Config.BootstrapAdminName,
	})
	if err != nil {
		log.WithError(err).Error("[INIT] Failed to initialize default data")
		return err
	}

	if s.Config.BootstrapAdminEmail == "" {
		log.Info("[INIT] BOOTSTRAP_ADMIN_EMAIL not set, skipped admin account")
	}
	log.Info("[INIT] Default data initialized")
	return nil
}
