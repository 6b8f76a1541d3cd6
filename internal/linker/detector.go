// Package linker attaches human follow-up comments to reviewer comments.
package linker

import (
	"strings"

	"github.com/joescharf/revstat/internal/models"
)

// knownAutomationPrefixes are logins of automation accounts that do not
// always carry the Bot account type.
var knownAutomationPrefixes = []string{
	"dependabot",
	"renovate",
	"github-actions",
	"codecov",
	"sonarcloud",
}

// Detector tells humans from bots. A user is a bot if its account type says
// so or its login matches a bot pattern; either check is sufficient.
type Detector struct {
	reviewer string
}

// NewDetector returns a Detector that also treats the reviewer login as a bot.
func NewDetector(reviewer string) Detector {
	return Detector{reviewer: strings.ToLower(strings.TrimSpace(reviewer))}
}

// IsHuman reports whether u is a person.
func (d Detector) IsHuman(u models.User) bool {
	if u.Type == models.AccountTypeBot {
		return false
	}
	return !d.botLogin(u.Login)
}

func (d Detector) botLogin(login string) bool {
	l := strings.ToLower(strings.TrimSpace(login))
	if l == "" {
		return false
	}
	if SameAccount(l, d.reviewer) {
		return true
	}
	if strings.Contains(l, "[bot]") || strings.HasSuffix(l, "bot") {
		return true
	}
	for _, p := range knownAutomationPrefixes {
		if strings.HasPrefix(l, p) {
			return true
		}
	}
	return false
}

// SameAccount reports whether two logins name the same account, ignoring
// case and the "[bot]" suffix GitHub adds to app accounts.
func SameAccount(a, b string) bool {
	a = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(a)), "[bot]")
	b = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(b)), "[bot]")
	return a != "" && a == b
}
