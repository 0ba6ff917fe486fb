package model

const (
	DocumentStateNormal  = 1
	DocumentStateDeleted = 2
)

// Document points at a file held in object storage. FileKey is the storage path.
type Document struct {
	ID          string `json:"id"`
	OwnerID     string `json:"owner_id"`
	Name        string `json:"name"`
	FileKey     string `json:"file_key"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	State       int    `json:"state"`
	Ctime       int64  `json:"ctime"`
	Mtime       int64  `json:"mtime"`
}
