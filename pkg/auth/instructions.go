package auth

import (
	"fmt"
	"io"
	"strings"
)

// ShowLoginGuide explains where a crawl looks for the portal login
func ShowLoginGuide(w io.Writer) {
	fmt.Fprintln(w, strings.Repeat("=", 70))
	fmt.Fprintln(w, "🔑 PORTAL LOGIN")
	fmt.Fprintln(w, strings.Repeat("=", 70))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "A crawl needs the account ID and password of the results portal.")
	fmt.Fprintln(w, "They are looked up in this order:")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  1. --account-id flag together with WYNIKI_PASSWORD")
	fmt.Fprintln(w, "  2. WYNIKI_USERNAME and WYNIKI_PASSWORD in the environment,")
	fmt.Fprintln(w, "     or in .env, tests/.env or ~/.wyniki.env")
	fmt.Fprintln(w, "  3. An account saved with 'wyniki auth login'")
	fmt.Fprintln(w, "     (system keychain, or an encrypted file in the config directory)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "⚠️  The portal sends an SMS code on most logins. Keep the phone at hand;")
	fmt.Fprintln(w, "   the code is typed into the browser window the crawl opens.")
	fmt.Fprintln(w, strings.Repeat("=", 70))
}
