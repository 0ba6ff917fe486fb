package guest

import (
	"strings"

	"github.com/xxxsen/docshare/internal/model"
	appErr "github.com/xxxsen/docshare/internal/pkg/errors"
	"github.com/xxxsen/docshare/internal/pkg/password"
)

// CheckPassword verifies a submitted password against the share's bcrypt hash.
// Shares without a password always pass.
func CheckPassword(share *model.Share, submitted string) error {
	if !share.HasPassword() {
		return nil
	}
	if strings.TrimSpace(submitted) == "" {
		return appErr.ErrPasswordRequired
	}
	if !password.Matches(share.PasswordHash, submitted) {
		return appErr.ErrWrongPassword
	}
	return nil
}
