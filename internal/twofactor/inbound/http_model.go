package inbound

import (
	"net/http"
	"time"

	"github.com/shandysiswandi/campusguard/internal/twofactor/entity"
	"github.com/shandysiswandi/campusguard/internal/twofactor/usecase"
)

// FactorRequest carries exactly one second factor.
type FactorRequest struct {
	TOTPCode   string `json:"totp_code,omitempty"`
	BackupCode string `json:"backup_code,omitempty"`
	SMSCode    string `json:"sms_code,omitempty"`
}

func (f FactorRequest) input() usecase.FactorInput {
	return usecase.FactorInput{
		TOTPCode:   f.TOTPCode,
		BackupCode: f.BackupCode,
		SMSCode:    f.SMSCode,
	}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	RequiresTwoFactor  bool       `json:"requires_2fa"`
	AccessToken        string     `json:"access_token,omitempty"`
	ChallengeToken     string     `json:"challenge_token,omitempty"`
	ChallengeExpiresAt *time.Time `json:"challenge_expires_at,omitempty"`
	Methods            []string   `json:"methods,omitempty"`
}

type Login2FARequest struct {
	ChallengeToken string `json:"challenge_token"`
	FactorRequest
}

type Login2FAResponse struct {
	AccessToken string `json:"access_token"`
	Factor      string `json:"factor"`
}

type LoginSMSChallengeRequest struct {
	ChallengeToken string `json:"challenge_token"`
}

type SMSChallengeResponse struct {
	Destination string    `json:"destination"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (SMSChallengeResponse) StatusCode() int { return http.StatusAccepted }

func (SMSChallengeResponse) Message() string {
	return "A verification code has been sent to your registered phone."
}

type SecurityStatusResponse struct {
	AccountID            int64      `json:"account_id"`
	State                string     `json:"state"`
	Enabled              bool       `json:"enabled"`
	PendingVerification  bool       `json:"pending_verification"`
	BackupCodesRemaining int        `json:"backup_codes_remaining"`
	SMSAvailable         bool       `json:"sms_available"`
	FailedAttempts       int        `json:"failed_attempts"`
	Locked               bool       `json:"locked"`
	LockedUntil          *time.Time `json:"locked_until,omitempty"`
	RetryAfterSeconds    int64      `json:"retry_after_seconds,omitempty"`
	UpdatedAt            *time.Time `json:"updated_at,omitempty"`
}

func newSecurityStatusResponse(out *usecase.SecurityStatusOutput) SecurityStatusResponse {
	resp := SecurityStatusResponse{
		AccountID:            out.AccountID,
		State:                out.State.String(),
		Enabled:              out.State == entity.StateEnabled,
		PendingVerification:  out.State == entity.StatePendingVerification,
		BackupCodesRemaining: out.BackupCodesRemaining,
		SMSAvailable:         out.SMSAvailable,
		FailedAttempts:       out.FailedAttempts,
		Locked:               out.Locked,
		LockedUntil:          out.LockedUntil,
		RetryAfterSeconds:    out.RetryAfterSeconds,
	}
	if !out.UpdatedAt.IsZero() {
		resp.UpdatedAt = &out.UpdatedAt
	}
	return resp
}

type TOTPSetupResponse struct {
	Secret          string `json:"secret"`
	ProvisioningURI string `json:"provisioning_uri"`
}

type TOTPConfirmRequest struct {
	Code string `json:"code"`
}

type BackupCodesResponse struct {
	BackupCodes []string `json:"backup_codes"`
}

func (BackupCodesResponse) Message() string {
	return "Store these backup codes somewhere safe. They will not be shown again."
}

type ReauthRequest struct {
	Password string `json:"password"`
	FactorRequest
}

type NoContentResponse struct{}

func (NoContentResponse) StatusCode() int { return http.StatusNoContent }
