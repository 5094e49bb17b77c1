/*
Package otpsdk is a client for the otpgate one-time code service.

# Overview

A verification runs in two steps. First ask for a code to be sent to an
email address or phone number, then submit the code the user received:

	client := otpsdk.NewSDKClient("https://otp.example.com")

	ch, err := client.CreateChallenge(ctx, otpsdk.CreateChallengeRequest{
		Email: "user@example.com",
	})
	if err != nil {
		return err
	}
	if ch.Delivery.Status == "failed" {
		// The challenge exists but the code never left; offer a resend.
	}

	res, err := client.Verify(ctx, otpsdk.VerifyRequest{
		ChallengeID: ch.ChallengeID,
		Code:        "123456",
	})

# Errors

Only an accepted code produces a VerifyResponse. Every other outcome is an
*APIError whose Code is one of the ErrorCode constants:

	var apiErr *otpsdk.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case otpsdk.ErrorCodeWrongCode:
			// *apiErr.AttemptsRemaining tries left
		case otpsdk.ErrorCodeExpired, otpsdk.ErrorCodeExhausted:
			// call Resend
		case otpsdk.ErrorCodeNotFound, otpsdk.ErrorCodeInvalidState:
			// start over with CreateChallenge
		}
	}

# Resend

Resend returns a new challenge with a new id, a full attempt budget and a new
expiry. The old challenge id stops working immediately, even with its code.

The server uses the same APIError values to write its responses, so the wire
format is defined in one place.
*/
package otpsdk
