package portal

import (
	"context"
	"errors"
	"fmt"

	"wyniki/pkg/browser"
	errs "wyniki/pkg/errors"
	"wyniki/pkg/logger"
	"wyniki/pkg/models"
)

// TwoFactorPrompter tells the operator to finish the SMS step in the browser
type TwoFactorPrompter interface {
	PromptTwoFactor(ctx context.Context, accountID string)
	TwoFactorCompleted(ctx context.Context)
}

type silentPrompter struct{}

func (silentPrompter) PromptTwoFactor(context.Context, string) {}
func (silentPrompter) TwoFactorCompleted(context.Context)      {}

// Authenticator signs a session into the portal
type Authenticator struct {
	baseURL  string
	timing   Timing
	prompter TwoFactorPrompter
	logger   logger.Logger
}

// NewAuthenticator creates an authenticator. A nil prompter disables the
// operator prompt; the wait for confirmation still happens.
func NewAuthenticator(baseURL string, timing Timing, prompter TwoFactorPrompter, log logger.Logger) *Authenticator {
	if prompter == nil {
		prompter = silentPrompter{}
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Authenticator{
		baseURL:  baseURL,
		timing:   timing,
		prompter: prompter,
		logger:   log.WithField("component", "auth"),
	}
}

func authErr(message string, err error) error {
	return errs.New(errs.ErrorTypeAuth, "authenticate", message, err)
}

// Authenticate submits creds and returns once the orders list is reached.
// Every failure is a fatal auth error.
func (a *Authenticator) Authenticate(ctx context.Context, s browser.Session, creds models.Credentials) error {
	if !creds.Valid() {
		return authErr("account ID and password are required", errs.ErrLoginFormMissing)
	}

	a.logger.Info("Navigating to login page")
	if err := s.Navigate(ctx, a.baseURL); err != nil {
		return authErr("login page did not load", err)
	}
	if err := s.Pause(ctx, a.timing.LoginSettle); err != nil {
		return authErr("", err)
	}

	a.logger.InfoWithFields("Logging in", map[string]interface{}{"account_id": creds.MaskedAccountID()})
	if err := s.Fill(ctx, AccountIDInput, creds.AccountID); err != nil {
		return authErr("account ID field", errors.Join(errs.ErrLoginFormMissing, err))
	}
	if err := s.Fill(ctx, PasswordInput, creds.Password); err != nil {
		return authErr("password field", errors.Join(errs.ErrLoginFormMissing, err))
	}
	if err := s.Click(ctx, SubmitButton); err != nil {
		return authErr("submit button", errors.Join(errs.ErrLoginFormMissing, err))
	}

	matched, err := s.WaitURL(ctx, a.timing.RedirectTimeout, TwoFactorPage, OrdersPage)
	switch {
	case err == nil && matched == 0:
		if err := a.awaitTwoFactor(ctx, s, creds.AccountID); err != nil {
			return err
		}
	case err == nil:
		// Landed on the orders list directly
	case errors.Is(err, browser.ErrTimeout):
		a.logger.Debug("No redirect observed, waiting for orders list")
		if _, err := s.WaitURL(ctx, a.timing.ConfirmTimeout, OrdersPage); err != nil {
			if ctx.Err() != nil {
				return authErr("", ctx.Err())
			}
			return authErr(fmt.Sprintf("orders list not reached within %s", a.timing.ConfirmTimeout),
				errors.Join(errs.ErrLoginNotConfirmed, err))
		}
	default:
		return authErr("waiting for redirect", err)
	}

	a.logger.Info("Login successful")
	return nil
}

func (a *Authenticator) awaitTwoFactor(ctx context.Context, s browser.Session, accountID string) error {
	a.logger.WarnWithFields("Two-factor authentication required", map[string]interface{}{
		"timeout": a.timing.TwoFactorTimeout.String(),
	})
	a.prompter.PromptTwoFactor(ctx, accountID)

	if _, err := s.WaitURL(ctx, a.timing.TwoFactorTimeout, OrdersPage); err != nil {
		if ctx.Err() != nil {
			return authErr("", ctx.Err())
		}
		return authErr(fmt.Sprintf("SMS code not confirmed within %s", a.timing.TwoFactorTimeout),
			errors.Join(errs.ErrTwoFactorExpired, err))
	}

	a.prompter.TwoFactorCompleted(ctx)
	a.logger.Info("Two-factor authentication completed")
	return nil
}
