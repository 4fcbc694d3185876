package inbound

import (
	"context"

	"github.com/shandysiswandi/campusguard/internal/pkg/router"
	"github.com/shandysiswandi/campusguard/internal/twofactor/usecase"
)

type uc interface {
	Login(ctx context.Context, in usecase.LoginInput) (*usecase.LoginOutput, error)
	Login2FA(ctx context.Context, in usecase.Login2FAInput) (*usecase.Login2FAOutput, error)
	LoginSMSChallenge(ctx context.Context, in usecase.LoginSMSChallengeInput) (*usecase.SMSChallengeOutput, error)

	SecurityStatus(ctx context.Context) (*usecase.SecurityStatusOutput, error)
	TOTPSetup(ctx context.Context) (*usecase.TOTPSetupOutput, error)
	TOTPConfirm(ctx context.Context, in usecase.TOTPConfirmInput) (*usecase.TOTPConfirmOutput, error)
	Disable(ctx context.Context, in usecase.DisableInput) error
	RegenerateBackupCodes(ctx context.Context, in usecase.RegenerateBackupCodesInput) (*usecase.RegenerateBackupCodesOutput, error)
	ReauthSMSChallenge(ctx context.Context) (*usecase.SMSChallengeOutput, error)

	AdminSecurityStatus(ctx context.Context, in usecase.AdminAccountInput) (*usecase.SecurityStatusOutput, error)
	AdminUnlock(ctx context.Context, in usecase.AdminAccountInput) error
	AdminReset2FA(ctx context.Context, in usecase.AdminAccountInput) error
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// Login handoff
	r.PublicPOST("/api/v1/auth/login", end.Login)
	r.PublicPOST("/api/v1/auth/login/2fa", end.Login2FA)
	r.PublicPOST("/api/v1/auth/login/2fa/sms", end.LoginSMSChallenge)

	// Own second factor (need authenticated)
	r.GET("/api/v1/auth/2fa", end.SecurityStatus)
	r.POST("/api/v1/auth/2fa/totp/setup", end.TOTPSetup)
	r.POST("/api/v1/auth/2fa/totp/confirm", end.TOTPConfirm)
	r.POST("/api/v1/auth/2fa/disable", end.Disable)
	r.POST("/api/v1/auth/2fa/backup-codes", end.RegenerateBackupCodes)
	r.POST("/api/v1/auth/2fa/sms", end.ReauthSMSChallenge)

	// Administration (need authenticated & authorization)
	r.GET("/api/v1/admin/accounts/:id/security", end.AdminSecurityStatus)
	r.POST("/api/v1/admin/accounts/:id/unlock", end.AdminUnlock)
	r.POST("/api/v1/admin/accounts/:id/2fa/reset", end.AdminReset2FA)
}
