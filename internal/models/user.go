package models

import "strings"

// AccountType is the kind of account that authored a comment or reaction.
type AccountType string

const (
	AccountTypeHuman AccountType = "User"
	AccountTypeBot   AccountType = "Bot"
)

// User identifies a GitHub account.
type User struct {
	Login string      `json:"login"`
	Type  AccountType `json:"type"`
	ID    int64       `json:"id"`
}

// SameLogin reports whether the user's login equals login, ignoring case.
func (u User) SameLogin(login string) bool {
	return login != "" && strings.EqualFold(u.Login, login)
}
