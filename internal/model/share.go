package model

const (
	ShareStatusPending  = "pending"
	ShareStatusAccepted = "accepted"
	ShareStatusRevoked  = "revoked"
	ShareStatusExpired  = "expired"
)

const (
	PermissionView     = "view"
	PermissionComment  = "comment"
	PermissionDownload = "download"
	PermissionEdit     = "edit"
)

const ResourceTypeDocument = "document"

// Share grants one external party access to one resource through an opaque token.
type Share struct {
	ID             string `json:"id"`
	OwnerID        string `json:"owner_id"`
	Token          string `json:"token"`
	ResourceID     string `json:"resource_id"`
	ResourceType   string `json:"resource_type"`
	ResourceName   string `json:"resource_name"`
	InviteeEmail   string `json:"invitee_email,omitempty"`
	Permission     string `json:"permission"`
	AllowDownload  bool   `json:"allow_download"`
	AllowPrint     bool   `json:"allow_print"`
	ExpiresAt      int64  `json:"expires_at"`
	Status         string `json:"status"`
	UsageCount     int64  `json:"usage_count"`
	PasswordHash   string `json:"password_hash,omitempty"`
	LastAccessedAt int64  `json:"last_accessed_at"`
	Ctime          int64  `json:"ctime"`
	Mtime          int64  `json:"mtime"`
}

func (s *Share) HasPassword() bool {
	return s.PasswordHash != ""
}

func (s *Share) CanDownload() bool {
	return s.AllowDownload || s.Permission == PermissionDownload || s.Permission == PermissionEdit
}

func ValidPermission(p string) bool {
	switch p {
	case PermissionView, PermissionComment, PermissionDownload, PermissionEdit:
		return true
	}
	return false
}
