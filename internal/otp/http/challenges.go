package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/otpgate/internal/otp/domain"
	"github.com/aussiebroadwan/otpgate/internal/otp/service"
	"github.com/aussiebroadwan/otpgate/pkg/httpx"
	"github.com/aussiebroadwan/otpgate/pkg/otpsdk"
	"github.com/aussiebroadwan/otpgate/pkg/slogx"
	"github.com/aussiebroadwan/otpgate/pkg/validx"
)

// ChallengeHandler serves the challenge lifecycle endpoints.
type ChallengeHandler struct {
	ChallengeService *service.ChallengeService
	Validator        *validx.Validator
}

// HandleCreate handles POST /v1/otp/challenges
//
//	@Summary		Request a verification code
//	@Description	Issues a 6-digit code for exactly one of email or phone and sends it over that channel.
//	@Description	The code is valid for 5 minutes and allows 3 attempts. A delivery failure still returns 201 with delivery.status "failed".
//	@Tags			OTP
//	@Accept			json
//	@Produce		json
//	@Param			request	body		otpsdk.CreateChallengeRequest	true	"Email or phone"
//	@Success		201		{object}	otpsdk.ChallengeResponse		"Challenge issued"
//	@Failure		400		{object}	otpsdk.ErrorResponse			"Invalid request"
//	@Failure		429		{object}	otpsdk.ErrorResponse			"Too many codes for this target"
//	@Failure		500		{object}	otpsdk.ErrorResponse			"Internal server error"
//	@Router			/v1/otp/challenges [post].
func (h *ChallengeHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req otpsdk.CreateChallengeRequest
	if !h.decode(w, r, &req) {
		return
	}

	target, err := domain.NewTarget(req.Email, req.Phone)
	if err != nil {
		otpsdk.ErrValidation.WithDescription(err.Error()).WriteError(w)
		return
	}

	issued, err := h.ChallengeService.CreateChallenge(ctx, target)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidTarget):
			otpsdk.ErrValidation.WithDescription(err.Error()).WriteError(w)
		case errors.Is(err, service.ErrRateLimited):
			log.Warn("issue limit reached", "channel", target.Kind, "target", target.Masked())
			otpsdk.ErrRateLimited.WriteError(w)
		default:
			log.Error("failed to create challenge", "err", err)
			otpsdk.ErrServerError.WriteError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, toChallengeResponse(issued))
}

// HandleVerify handles POST /v1/otp/verify
//
//	@Summary		Submit a verification code
//	@Description	Checks the code against the challenge. Only an accepted code returns 200.
//	@Description	Wrong codes consume an attempt; expired, exhausted and superseded challenges need a resend.
//	@Tags			OTP
//	@Accept			json
//	@Produce		json
//	@Param			request	body		otpsdk.VerifyRequest	true	"Challenge id and code"
//	@Success		200		{object}	otpsdk.VerifyResponse	"Code accepted"
//	@Failure		400		{object}	otpsdk.ErrorResponse	"Invalid request or wrong code"
//	@Failure		404		{object}	otpsdk.ErrorResponse	"Unknown or superseded challenge"
//	@Failure		409		{object}	otpsdk.ErrorResponse	"Challenge already verified"
//	@Failure		410		{object}	otpsdk.ErrorResponse	"Code expired"
//	@Failure		429		{object}	otpsdk.ErrorResponse	"Attempts exhausted"
//	@Failure		500		{object}	otpsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/otp/verify [post].
func (h *ChallengeHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req otpsdk.VerifyRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.ChallengeService.Verify(ctx, req.ChallengeID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCode):
			otpsdk.ErrValidation.WithDescription(err.Error()).WriteError(w)
		case errors.Is(err, service.ErrAlreadyVerified):
			otpsdk.ErrInvalidState.WithChallenge(req.ChallengeID, nil).WriteError(w)
		default:
			log.Error("failed to verify code", "challenge_id", req.ChallengeID, "err", err)
			otpsdk.ErrServerError.WriteError(w)
		}
		return
	}

	remaining := res.AttemptsRemaining
	switch res.Outcome {
	case domain.OutcomeAccepted:
		httpx.WriteJSON(w, http.StatusOK, otpsdk.VerifyResponse{
			Outcome:     string(res.Outcome),
			ChallengeID: res.ChallengeID,
			Identity: otpsdk.IdentityInfo{
				UserID:     res.Identity.UserID,
				TargetKind: string(res.Identity.Target.Kind),
				Target:     res.Identity.Target.Value,
				VerifiedAt: res.Identity.VerifiedAt,
			},
		})
	case domain.OutcomeWrongCode:
		otpsdk.ErrWrongCode.
			WithDescription(wrongCodeDescription(remaining)).
			WithChallenge(res.ChallengeID, &remaining).
			WriteError(w)
	case domain.OutcomeExpired:
		otpsdk.ErrExpired.WithChallenge(res.ChallengeID, &remaining).WriteError(w)
	case domain.OutcomeExhausted:
		otpsdk.ErrExhausted.WithChallenge(res.ChallengeID, &remaining).WriteError(w)
	case domain.OutcomeNotFound:
		otpsdk.ErrNotFound.WithChallenge(res.ChallengeID, nil).WriteError(w)
	default:
		log.Error("unexpected verification outcome", "outcome", res.Outcome)
		otpsdk.ErrServerError.WriteError(w)
	}
}

// HandleResend handles POST /v1/otp/resend
//
//	@Summary		Resend a verification code
//	@Description	Replaces the challenge with a new one for the same target: new id, new code, 5 more minutes and 3 attempts.
//	@Description	The old challenge id stops working immediately.
//	@Tags			OTP
//	@Accept			json
//	@Produce		json
//	@Param			request	body		otpsdk.ResendRequest		true	"Challenge to replace"
//	@Success		201		{object}	otpsdk.ChallengeResponse	"New challenge issued"
//	@Failure		400		{object}	otpsdk.ErrorResponse		"Invalid request"
//	@Failure		404		{object}	otpsdk.ErrorResponse		"Unknown or superseded challenge"
//	@Failure		409		{object}	otpsdk.ErrorResponse		"Challenge already verified"
//	@Failure		429		{object}	otpsdk.ErrorResponse		"Too many codes for this target"
//	@Failure		500		{object}	otpsdk.ErrorResponse		"Internal server error"
//	@Router			/v1/otp/resend [post].
func (h *ChallengeHandler) HandleResend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req otpsdk.ResendRequest
	if !h.decode(w, r, &req) {
		return
	}

	issued, err := h.ChallengeService.Resend(ctx, req.ChallengeID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrChallengeNotFound):
			otpsdk.ErrNotFound.WithChallenge(req.ChallengeID, nil).WriteError(w)
		case errors.Is(err, service.ErrAlreadyVerified):
			otpsdk.ErrInvalidState.WithChallenge(req.ChallengeID, nil).WriteError(w)
		case errors.Is(err, service.ErrRateLimited):
			log.Warn("issue limit reached on resend", "challenge_id", req.ChallengeID)
			otpsdk.ErrRateLimited.WithChallenge(req.ChallengeID, nil).WriteError(w)
		default:
			log.Error("failed to resend challenge", "challenge_id", req.ChallengeID, "err", err)
			otpsdk.ErrServerError.WriteError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, toChallengeResponse(issued))
}

// decode reads and validates the JSON body, writing a validation error and
// returning false on failure.
func (h *ChallengeHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	log := slogx.FromContext(r.Context())

	if err := httpx.DecodeJSON(r, dst); err != nil {
		log.Warn("failed to parse request", "err", err)
		otpsdk.ErrValidation.WithDescription("invalid JSON body").WriteError(w)
		return false
	}

	if err := h.Validator.Struct(dst); err != nil {
		var fe validx.FieldErrors
		if errors.As(err, &fe) {
			otpsdk.ErrValidation.WithDescription(fe.Summary()).WriteError(w)
			return false
		}
		log.Error("failed to validate request", "err", err)
		otpsdk.ErrServerError.WriteError(w)
		return false
	}
	return true
}

func toChallengeResponse(issued domain.IssuedChallenge) otpsdk.ChallengeResponse {
	return otpsdk.ChallengeResponse{
		ChallengeID:       issued.Challenge.ID,
		TargetKind:        string(issued.Challenge.TargetKind),
		ExpiresAt:         issued.Challenge.ExpiresAt,
		AttemptsRemaining: issued.Challenge.AttemptsRemaining,
		Code:              issued.Code,
		Delivery: otpsdk.DeliveryInfo{
			Channel: string(issued.Delivery.Channel),
			Status:  string(issued.Delivery.Status),
			Warning: issued.Delivery.Warning,
		},
	}
}

func wrongCodeDescription(remaining int) string {
	if remaining == 1 {
		return "the code is incorrect; 1 attempt remaining"
	}
	return fmt.Sprintf("the code is incorrect; %d attempts remaining", remaining)
}
