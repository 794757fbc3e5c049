package portal

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"wyniki/pkg/browser"
	"wyniki/pkg/browser/browsertest"
	errs "wyniki/pkg/errors"
	"wyniki/pkg/logger"
	"wyniki/pkg/models"
)

const testBaseURL = "https://wyniki.diag.pl"

var testCreds = models.Credentials{AccountID: "12345", Password: "secret"}

type recordingPrompter struct {
	prompted  int
	completed int
}

func (p *recordingPrompter) PromptTwoFactor(context.Context, string) { p.prompted++ }
func (p *recordingPrompter) TwoFactorCompleted(context.Context)      { p.completed++ }

// loginPage scripts a session whose login form leads to the given URLs
func loginPage(after ...string) *browsertest.Session {
	s := browsertest.New()
	s.SetElements(AccountIDInput, browsertest.Element{})
	s.SetElements(PasswordInput, browsertest.Element{})
	s.SetElements(SubmitButton, browsertest.Element{})
	s.OnClick(SubmitButton, func(s *browsertest.Session) {
		s.QueueURL(after...)
	})
	return s
}

func TestAuthenticateScenarios(t *testing.T) {
	tests := []struct {
		name      string
		after     []string
		wantErr   error
		prompted  int
		completed int
	}{
		{
			name:  "direct redirect to orders",
			after: []string{testBaseURL + "/zlecenia"},
		},
		{
			name:      "two-factor confirmed",
			after:     []string{testBaseURL + "/uwierzytelnianie-dwuskladnikowe", testBaseURL + "/zlecenia"},
			prompted:  1,
			completed: 1,
		},
		{
			name:     "two-factor expires",
			after:    []string{testBaseURL + "/uwierzytelnianie-dwuskladnikowe"},
			wantErr:  errs.ErrTwoFactorExpired,
			prompted: 1,
		},
		{
			name:    "no redirect and no orders list",
			after:   []string{testBaseURL + "/logowanie"},
			wantErr: errs.ErrLoginNotConfirmed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Repeated runs on fresh sessions give the same outcome
			for run := 0; run < 2; run++ {
				s := loginPage(tt.after...)
				prompter := &recordingPrompter{}
				a := NewAuthenticator(testBaseURL, DefaultTiming(), prompter, logger.NewNopLogger())

				err := a.Authenticate(context.Background(), s, testCreds)
				if tt.wantErr != nil {
					require.Error(t, err)
					assert.ErrorIs(t, err, tt.wantErr)
					assert.Equal(t, errs.ErrorTypeAuth, errs.TypeOf(err))
					assert.True(t, errs.IsFatal(errs.TypeOf(err)))
				} else {
					require.NoError(t, err)
				}
				assert.Equal(t, tt.prompted, prompter.prompted)
				assert.Equal(t, tt.completed, prompter.completed)
			}
		})
	}
}

// The orders list can appear only after the redirect window has passed
func TestAuthenticateConfirmFallback(t *testing.T) {
	s := loginPage(testBaseURL + "/logowanie")
	s.OnWaitTimeout(func(s *browsertest.Session) {
		s.SetURL(testBaseURL + "/zlecenia")
	})
	a := NewAuthenticator(testBaseURL, DefaultTiming(), nil, logger.NewNopLogger())

	require.NoError(t, a.Authenticate(context.Background(), s, testCreds))

	timing := DefaultTiming()
	assert.True(t, s.Called("WaitURL "+timing.ConfirmTimeout.String()+" **/zlecenia**"))
}

func TestAuthenticateSequence(t *testing.T) {
	s := loginPage(testBaseURL + "/zlecenia")
	a := NewAuthenticator(testBaseURL, DefaultTiming(), nil, logger.NewNopLogger())

	require.NoError(t, a.Authenticate(context.Background(), s, testCreds))

	calls := s.Calls()
	require.GreaterOrEqual(t, len(calls), 5)
	assert.Equal(t, []string{
		"Navigate " + testBaseURL,
		"Fill " + AccountIDInput,
		"Fill " + PasswordInput,
		"Click " + SubmitButton,
	}, calls[:4])
	assert.Equal(t, DefaultTiming().LoginSettle, s.Pauses()[0])
}

func TestAuthenticateMissingForm(t *testing.T) {
	s := browsertest.New()
	a := NewAuthenticator(testBaseURL, DefaultTiming(), nil, logger.NewNopLogger())

	err := a.Authenticate(context.Background(), s, testCreds)
	assert.ErrorIs(t, err, errs.ErrLoginFormMissing)
	assert.Equal(t, errs.ErrorTypeAuth, errs.TypeOf(err))
}

func TestAuthenticateNavigationFailure(t *testing.T) {
	s := loginPage(testBaseURL + "/zlecenia")
	s.FailNavigation(browser.ErrTimeout)
	a := NewAuthenticator(testBaseURL, DefaultTiming(), nil, logger.NewNopLogger())

	err := a.Authenticate(context.Background(), s, testCreds)
	assert.ErrorIs(t, err, browser.ErrTimeout)
	assert.Equal(t, errs.ErrorTypeAuth, errs.TypeOf(err))
}

func TestAuthenticateRequiresCredentials(t *testing.T) {
	a := NewAuthenticator(testBaseURL, DefaultTiming(), nil, logger.NewNopLogger())
	err := a.Authenticate(context.Background(), loginPage(), models.Credentials{AccountID: "x"})
	assert.Error(t, err)
}

func TestAuthenticateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := NewAuthenticator(testBaseURL, DefaultTiming(), nil, logger.NewNopLogger())
	err := a.Authenticate(ctx, loginPage(testBaseURL+"/zlecenia"), testCreds)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestAuthenticateMasksAccountIDInLogs(t *testing.T) {
	log := logger.NewTestLogger()
	s := loginPage(testBaseURL+"/uwierzytelnianie-dwuskladnikowe", testBaseURL+"/zlecenia")
	prompter := &recordingPrompter{}
	account := models.Credentials{AccountID: "90010112345", Password: "secret"}

	require.NoError(t, NewAuthenticator(testBaseURL, DefaultTiming(), prompter, log).
		Authenticate(context.Background(), s, account))

	var loggedIn bool
	for _, m := range log.GetMessages() {
		assert.NotContains(t, m.Message, account.AccountID)
		for k, v := range m.Fields {
			assert.NotContains(t, fmt.Sprint(v), account.AccountID, "field %s of %q", k, m.Message)
		}
		if m.Message == "Logging in" {
			loggedIn = true
			assert.Equal(t, "***345", m.Fields["account_id"])
		}
	}
	assert.True(t, loggedIn)
	assert.Equal(t, 1, prompter.prompted)
}
