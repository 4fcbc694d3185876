package inbound

import (
	"github.com/samber/lo"
	"github.com/shandysiswandi/campusguard/internal/pkg/router"
	"github.com/shandysiswandi/campusguard/internal/twofactor/entity"
	"github.com/shandysiswandi/campusguard/internal/twofactor/usecase"
)

// HTTPEndpoint exposes the login handoff, self-service second factor
// management and the security administration endpoints.
type HTTPEndpoint struct {
	uc uc
}

// Login checks email and password.
// @Summary Authenticate account
// @Description Returns an access token, or a challenge token when a second factor is required.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login payload"
// @Success 200 {object} router.successResponse{data=LoginResponse}
// @Failure 401 {object} router.errorResponse "Invalid email or password"
// @Failure 423 {object} router.errorResponse "Account temporarily locked"
// @Router /api/v1/auth/login [post]
func (h *HTTPEndpoint) Login(r *router.Request) (any, error) {
	var req LoginRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Login(r.Context(), usecase.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return nil, err
	}

	out := LoginResponse{
		RequiresTwoFactor: resp.RequiresTwoFactor,
		AccessToken:       resp.AccessToken,
		ChallengeToken:    resp.ChallengeToken,
		Methods:           lo.Map(resp.Methods, func(f entity.Factor, _ int) string { return f.String() }),
	}
	if resp.RequiresTwoFactor {
		out.ChallengeExpiresAt = &resp.ChallengeExpiresAt
	}

	return out, nil
}

// Login2FA completes a login with one second factor.
// @Summary Complete login with a second factor
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body Login2FARequest true "Exactly one of totp_code, backup_code, sms_code"
// @Success 200 {object} router.successResponse{data=Login2FAResponse}
// @Failure 401 {object} router.errorResponse "Invalid code or challenge"
// @Failure 422 {object} router.errorResponse "Zero or several factors supplied"
// @Failure 423 {object} router.errorResponse "Account temporarily locked"
// @Router /api/v1/auth/login/2fa [post]
func (h *HTTPEndpoint) Login2FA(r *router.Request) (any, error) {
	var req Login2FARequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Login2FA(r.Context(), usecase.Login2FAInput{
		ChallengeToken: req.ChallengeToken,
		FactorInput:    req.FactorRequest.input(),
	})
	if err != nil {
		return nil, err
	}

	return Login2FAResponse{
		AccessToken: resp.AccessToken,
		Factor:      resp.Factor.String(),
	}, nil
}

// LoginSMSChallenge sends an SMS code for a pending login.
// @Summary Send login SMS code
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body LoginSMSChallengeRequest true "Login challenge"
// @Success 202 {object} router.successResponse{data=SMSChallengeResponse}
// @Failure 429 {object} router.errorResponse "Code requested too recently"
// @Failure 503 {object} router.errorResponse "SMS provider unavailable"
// @Router /api/v1/auth/login/2fa/sms [post]
func (h *HTTPEndpoint) LoginSMSChallenge(r *router.Request) (any, error) {
	var req LoginSMSChallengeRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.LoginSMSChallenge(r.Context(), usecase.LoginSMSChallengeInput{ChallengeToken: req.ChallengeToken})
	if err != nil {
		return nil, err
	}

	return SMSChallengeResponse{Destination: resp.Destination, ExpiresAt: resp.ExpiresAt}, nil
}

func (h *HTTPEndpoint) SecurityStatus(r *router.Request) (any, error) {
	resp, err := h.uc.SecurityStatus(r.Context())
	if err != nil {
		return nil, err
	}

	return newSecurityStatusResponse(resp), nil
}

// TOTPSetup starts enrollment and returns the secret once.
// @Summary Begin TOTP enrollment
// @Tags Two Factor
// @Produce json
// @Success 200 {object} router.successResponse{data=TOTPSetupResponse}
// @Failure 409 {object} router.errorResponse "Already enabled"
// @Router /api/v1/auth/2fa/totp/setup [post]
func (h *HTTPEndpoint) TOTPSetup(r *router.Request) (any, error) {
	resp, err := h.uc.TOTPSetup(r.Context())
	if err != nil {
		return nil, err
	}

	return TOTPSetupResponse{
		Secret:          resp.Secret,
		ProvisioningURI: resp.ProvisioningURI,
	}, nil
}

// TOTPConfirm finishes enrollment and returns the first backup code batch.
// @Summary Confirm TOTP enrollment
// @Tags Two Factor
// @Accept json
// @Produce json
// @Param request body TOTPConfirmRequest true "Current code from the authenticator"
// @Success 200 {object} router.successResponse{data=BackupCodesResponse}
// @Failure 401 {object} router.errorResponse "Invalid code"
// @Failure 409 {object} router.errorResponse "No pending setup or already enabled"
// @Router /api/v1/auth/2fa/totp/confirm [post]
func (h *HTTPEndpoint) TOTPConfirm(r *router.Request) (any, error) {
	var req TOTPConfirmRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.TOTPConfirm(r.Context(), usecase.TOTPConfirmInput{Code: req.Code})
	if err != nil {
		return nil, err
	}

	return BackupCodesResponse{BackupCodes: resp.BackupCodes}, nil
}

// Disable turns the second factor off.
// @Summary Disable two-factor authentication
// @Tags Two Factor
// @Accept json
// @Param request body ReauthRequest true "Password and one current factor"
// @Success 204
// @Failure 403 {object} router.errorResponse "Re-authentication failed"
// @Router /api/v1/auth/2fa/disable [post]
func (h *HTTPEndpoint) Disable(r *router.Request) (any, error) {
	var req ReauthRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.Disable(r.Context(), usecase.DisableInput{
		Password:    req.Password,
		FactorInput: req.FactorRequest.input(),
	}); err != nil {
		return nil, err
	}

	return NoContentResponse{}, nil
}

// RegenerateBackupCodes replaces every backup code.
// @Summary Regenerate backup codes
// @Tags Two Factor
// @Accept json
// @Produce json
// @Param request body ReauthRequest true "Password and one current factor"
// @Success 200 {object} router.successResponse{data=BackupCodesResponse}
// @Failure 403 {object} router.errorResponse "Re-authentication failed"
// @Router /api/v1/auth/2fa/backup-codes [post]
func (h *HTTPEndpoint) RegenerateBackupCodes(r *router.Request) (any, error) {
	var req ReauthRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.RegenerateBackupCodes(r.Context(), usecase.RegenerateBackupCodesInput{
		Password:    req.Password,
		FactorInput: req.FactorRequest.input(),
	})
	if err != nil {
		return nil, err
	}

	return BackupCodesResponse{BackupCodes: resp.BackupCodes}, nil
}

func (h *HTTPEndpoint) ReauthSMSChallenge(r *router.Request) (any, error) {
	resp, err := h.uc.ReauthSMSChallenge(r.Context())
	if err != nil {
		return nil, err
	}

	return SMSChallengeResponse{Destination: resp.Destination, ExpiresAt: resp.ExpiresAt}, nil
}

func (h *HTTPEndpoint) AdminSecurityStatus(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.AdminSecurityStatus(r.Context(), usecase.AdminAccountInput{AccountID: id})
	if err != nil {
		return nil, err
	}

	return newSecurityStatusResponse(resp), nil
}

func (h *HTTPEndpoint) AdminUnlock(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	if err := h.uc.AdminUnlock(r.Context(), usecase.AdminAccountInput{AccountID: id}); err != nil {
		return nil, err
	}

	return NoContentResponse{}, nil
}

func (h *HTTPEndpoint) AdminReset2FA(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	if err := h.uc.AdminReset2FA(r.Context(), usecase.AdminAccountInput{AccountID: id}); err != nil {
		return nil, err
	}

	return NoContentResponse{}, nil
}
