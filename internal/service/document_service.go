package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/docshare/internal/filestore"
	"github.com/xxxsen/docshare/internal/model"
	appErr "github.com/xxxsen/docshare/internal/pkg/errors"
	"github.com/xxxsen/docshare/internal/pkg/timeutil"
)

const sniffLen = 3072

type DocumentStore interface {
	Create(ctx context.Context, doc *model.Document) error
	GetByID(ctx context.Context, ownerID, docID string) (*model.Document, error)
	Lookup(ctx context.Context, docID string) (*model.Document, error)
	List(ctx context.Context, ownerID string, limit, offset uint) ([]model.Document, error)
	Delete(ctx context.Context, ownerID, docID string, mtime int64) error
}

type ShareRevoker interface {
	RevokeByResource(ctx context.Context, ownerID, resourceID string, mtime int64) error
}

type DocumentService struct {
	docs     DocumentStore
	files    filestore.Store
	shares   ShareRevoker
	maxBytes int64
}

func NewDocumentService(docs DocumentStore, files filestore.Store, shares ShareRevoker, maxBytes int64) *DocumentService {
	return &DocumentService{docs: docs, files: files, shares: shares, maxBytes: maxBytes}
}

// Upload stores the file under a fresh key. The stored content type comes from
// sniffing the leading bytes, not from the client.
func (s *DocumentService) Upload(ctx context.Context, ownerID, name string, r io.Reader, size int64) (*model.Document, error) {
	name = strings.TrimSpace(filepath.Base(name))
	if name == "" || name == "." || name == "/" {
		return nil, appErr.ErrInvalid
	}
	if size <= 0 || (s.maxBytes > 0 && size > s.maxBytes) {
		return nil, appErr.ErrInvalid
	}
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]
	mt := mimetype.Detect(head)
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		ext = mt.Extension()
	}
	now := timeutil.NowUnix()
	doc := &model.Document{
		ID:          newID(),
		OwnerID:     ownerID,
		Name:        name,
		ContentType: mt.String(),
		Size:        size,
		State:       model.DocumentStateNormal,
		Ctime:       now,
		Mtime:       now,
	}
	doc.FileKey = doc.ID + ext
	body := io.MultiReader(bytes.NewReader(head), r)
	if err := s.files.Save(ctx, doc.FileKey, body, size, doc.ContentType); err != nil {
		return nil, fmt.Errorf("save file: %w", err)
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		if delErr := s.files.Delete(ctx, doc.FileKey); delErr != nil {
			logutil.GetLogger(ctx).Warn("cleanup uploaded file failed", zap.String("key", doc.FileKey), zap.Error(delErr))
		}
		return nil, err
	}
	return doc, nil
}

func (s *DocumentService) Get(ctx context.Context, ownerID, docID string) (*model.Document, error) {
	return s.docs.GetByID(ctx, ownerID, docID)
}

func (s *DocumentService) List(ctx context.Context, ownerID string, limit, offset uint) ([]model.Document, error) {
	if limit == 0 || limit > 200 {
		limit = 50
	}
	return s.docs.List(ctx, ownerID, limit, offset)
}

// Delete soft-deletes the document and revokes every share pointing at it.
func (s *DocumentService) Delete(ctx context.Context, ownerID, docID string) error {
	doc, err := s.docs.GetByID(ctx, ownerID, docID)
	if err != nil {
		return err
	}
	now := timeutil.NowUnix()
	if err := s.docs.Delete(ctx, ownerID, docID, now); err != nil {
		return err
	}
	if err := s.shares.RevokeByResource(ctx, ownerID, docID, now); err != nil {
		return err
	}
	if err := s.files.Delete(ctx, doc.FileKey); err != nil {
		logutil.GetLogger(ctx).Warn("delete stored file failed", zap.String("key", doc.FileKey), zap.Error(err))
	}
	return nil
}

// ReadText returns up to maxChars characters of a text document.
func (s *DocumentService) ReadText(ctx context.Context, ownerID, docID string, maxChars int) (string, error) {
	doc, err := s.docs.GetByID(ctx, ownerID, docID)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(doc.ContentType, "text/") {
		return "", fmt.Errorf("document is %s: %w", doc.ContentType, appErr.ErrInvalid)
	}
	rc, err := s.files.Open(ctx, doc.FileKey)
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer rc.Close()
	limit := int64(maxChars) * utf8.UTFMax
	if maxChars <= 0 {
		limit = 1 << 20
	}
	data, err := io.ReadAll(io.LimitReader(rc, limit))
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	text := strings.ToValidUTF8(string(data), "")
	if maxChars > 0 && utf8.RuneCountInString(text) > maxChars {
		text = string([]rune(text)[:maxChars])
	}
	return text, nil
}
