package service

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/docshare/internal/model"
	appErr "github.com/xxxsen/docshare/internal/pkg/errors"
)

const pdfBody = "%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n"

func TestDocumentUploadSniffsContentType(t *testing.T) {
	e := newEnv(t)
	svc := NewDocumentService(e.docs, e.files, e.shares, 1<<20)
	ctx := context.Background()

	doc, err := svc.Upload(ctx, "owner", "../report.pdf", strings.NewReader(pdfBody), int64(len(pdfBody)))
	require.NoError(t, err)
	require.Equal(t, "report.pdf", doc.Name)
	require.Equal(t, "application/pdf", doc.ContentType)
	require.Equal(t, doc.ID+".pdf", doc.FileKey)

	rc, err := e.files.Open(ctx, doc.FileKey)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	require.Equal(t, pdfBody, string(data))

	text, err := svc.Upload(ctx, "owner", "notes", strings.NewReader("hello world"), 11)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(text.ContentType, "text/plain"))
	require.Equal(t, text.ID+".txt", text.FileKey)
}

func TestDocumentUploadRejectsBadInput(t *testing.T) {
	e := newEnv(t)
	svc := NewDocumentService(e.docs, e.files, e.shares, 4)
	ctx := context.Background()

	_, err := svc.Upload(ctx, "owner", "", strings.NewReader("abc"), 3)
	require.ErrorIs(t, err, appErr.ErrInvalid)
	_, err = svc.Upload(ctx, "owner", "big.txt", strings.NewReader("too large"), 9)
	require.ErrorIs(t, err, appErr.ErrInvalid)
	_, err = svc.Upload(ctx, "owner", "empty.txt", strings.NewReader(""), 0)
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestDocumentDeleteRevokesShares(t *testing.T) {
	e := newEnv(t)
	docs := NewDocumentService(e.docs, e.files, e.shares, 1<<20)
	shares := NewShareService(e.shares, e.docs)
	ctx := context.Background()

	doc, err := docs.Upload(ctx, "owner", "a.txt", strings.NewReader("content"), 7)
	require.NoError(t, err)
	share, err := shares.Create(ctx, "owner", doc.ID, ShareInput{})
	require.NoError(t, err)

	require.ErrorIs(t, docs.Delete(ctx, "intruder", doc.ID), appErr.ErrNotFound)
	require.NoError(t, docs.Delete(ctx, "owner", doc.ID))

	stored, err := e.shares.GetByID(ctx, share.ID)
	require.NoError(t, err)
	require.Equal(t, model.ShareStatusRevoked, stored.Status)
	_, err = docs.Get(ctx, "owner", doc.ID)
	require.ErrorIs(t, err, appErr.ErrNotFound)
	_, err = e.files.Open(ctx, doc.FileKey)
	require.Error(t, err)
}

func TestDocumentReadText(t *testing.T) {
	e := newEnv(t)
	svc := NewDocumentService(e.docs, e.files, e.shares, 1<<20)
	ctx := context.Background()

	doc, err := svc.Upload(ctx, "owner", "a.txt", strings.NewReader("héllo world"), 12)
	require.NoError(t, err)
	text, err := svc.ReadText(ctx, "owner", doc.ID, 5)
	require.NoError(t, err)
	require.Equal(t, "héllo", text)

	pdf, err := svc.Upload(ctx, "owner", "a.pdf", strings.NewReader(pdfBody), int64(len(pdfBody)))
	require.NoError(t, err)
	_, err = svc.ReadText(ctx, "owner", pdf.ID, 100)
	require.ErrorIs(t, err, appErr.ErrInvalid)
}
