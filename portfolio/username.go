package portfolio

import (
	"errors"
	"regexp"
	"strings"
)

var (
	ErrUsernameRequired = errors.New("portfolio: username is required")
	ErrInvalidUsername  = errors.New("portfolio: invalid GitHub username format")
)

// 1 a 39 caracteres alfanuméricos; hífens isolados, nunca no início ou no fim.
var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9](?:[a-zA-Z0-9]|-[a-zA-Z0-9])*$`)

const maxUsernameLen = 39

// NormalizeUsername apara espaços e valida o nome da conta.
func NormalizeUsername(username string) (string, error) {
	u := strings.TrimSpace(username)
	if u == "" {
		return "", ErrUsernameRequired
	}
	if len(u) > maxUsernameLen || !usernameRe.MatchString(u) {
		return "", ErrInvalidUsername
	}
	return u, nil
}
