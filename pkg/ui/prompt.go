package ui

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// TwoFactorPrompt asks the operator to type the SMS code into the open
// browser window
type TwoFactorPrompt struct {
	notifier *Notifier
	timeout  time.Duration
	notify   bool
}

// NewTwoFactorPrompt creates a prompt; notify controls the desktop
// notification, the console banner is always shown
func NewTwoFactorPrompt(notifier *Notifier, timeout time.Duration, notify bool) *TwoFactorPrompt {
	return &TwoFactorPrompt{notifier: notifier, timeout: timeout, notify: notify}
}

// PromptTwoFactor prints the banner and raises a notification
func (p *TwoFactorPrompt) PromptTwoFactor(_ context.Context, accountID string) {
	rule := strings.Repeat("=", 60)
	w := Output()

	fmt.Fprintf(w, "\n%s\n", Yellow(rule))
	fmt.Fprintf(w, "%s\n", Yellow("⚠️  TWO-FACTOR AUTHENTICATION REQUIRED"))
	fmt.Fprintf(w, "%s\n", Yellow(rule))
	fmt.Fprintln(w, "Please enter the SMS code in the browser window.")
	fmt.Fprintf(w, "The crawl continues automatically once the code is accepted (waiting up to %s).\n", p.timeout)
	fmt.Fprintf(w, "%s\n\n", Yellow(rule))

	if p.notify && p.notifier != nil {
		p.notifier.send("wyniki: SMS code required",
			fmt.Sprintf("Enter the code sent for account %s in the browser window", accountID))
	}
}

// TwoFactorCompleted confirms the step on the console
func (p *TwoFactorPrompt) TwoFactorCompleted(context.Context) {
	fmt.Fprintln(Output(), Green("✓ Two-factor authentication completed!"))
}
