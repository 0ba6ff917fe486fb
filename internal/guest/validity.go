// Package guest implements the share-token access flow for unauthenticated guests.
package guest

import (
	"time"

	"github.com/xxxsen/docshare/internal/model"
	appErr "github.com/xxxsen/docshare/internal/pkg/errors"
	"github.com/xxxsen/docshare/internal/pkg/timeutil"
)

const (
	ReasonRevoked  = "revoked"
	ReasonExpired  = "expired"
	ReasonNotFound = "not found"
)

type Validity struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// CheckValidity decides whether a share may be used at now. Revocation wins over expiry.
func CheckValidity(share *model.Share, now time.Time) Validity {
	if share.Status == model.ShareStatusRevoked {
		return Validity{Reason: ReasonRevoked}
	}
	if share.Status == model.ShareStatusExpired || timeutil.Expired(share.ExpiresAt, now) {
		return Validity{Reason: ReasonExpired}
	}
	return Validity{Valid: true}
}

func (v Validity) Err() error {
	switch {
	case v.Valid:
		return nil
	case v.Reason == ReasonRevoked:
		return appErr.ErrRevoked
	case v.Reason == ReasonExpired:
		return appErr.ErrExpired
	default:
		return appErr.ErrNotFound
	}
}
