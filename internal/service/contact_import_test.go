package service

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"

	"putrace/internal/model"
)

type mockObjectStorage struct {
	downloadFn func(ctx context.Context, bucket, key string) ([]byte, error)
	deleteFn   func(ctx context.Context, bucket, key string) error

	deleted []string
}

func (m *mockObjectStorage) Download(ctx context.Context, bucket, key string) ([]byte, error) {
	if m.downloadFn != nil {
		return m.downloadFn(ctx, bucket, key)
	}
	return nil, errors.New("not found")
}

func (m *mockObjectStorage) Delete(ctx context.Context, bucket, key string) error {
	m.deleted = append(m.deleted, key)
	if m.deleteFn != nil {
		return m.deleteFn(ctx, bucket, key)
	}
	return nil
}

func zipWithEntries(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range entries {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("create zip entry: %v", err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatalf("write zip entry: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

// =============================================================================
// IMPORT TESTS
// =============================================================================

const connectionsCSV = "First Name,Last Name,Email Address,Phone Number\n" +
	"Ada,Lovelace,ADA@Example.com,\n" +
	"Alan,Turing,,+44 1234 567890\n" +
	"Grace,Hopper,,\n"

func TestImportService_ImportExport_CSV(t *testing.T) {
	storage := &mockObjectStorage{
		downloadFn: func(ctx context.Context, bucket, key string) ([]byte, error) {
			return []byte(connectionsCSV), nil
		},
	}
	tokens := &mockContactTokenRepo{}
	svc := NewImportService(storage, tokens)

	count, err := svc.ImportExport(context.Background(), 7, "linkedin_uploads/7/Connections.csv", "uploads")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if count != 2 {
		t.Errorf("tokens written = %d, want 2", count)
	}

	if len(tokens.upsertCalls) != 1 {
		t.Fatalf("UpsertBatch called %d times, want 1", len(tokens.upsertCalls))
	}
	batch := tokens.upsertCalls[0]

	// Emails are lowercased before hashing; the owner's ID keys the HMAC,
	// so the same address tokenizes differently per owner.
	mac := hmac.New(sha256.New, []byte("7"))
	mac.Write([]byte("email:ada@example.com"))
	wantEmailToken := hex.EncodeToString(mac.Sum(nil))

	var foundEmail, foundPhone bool
	for _, tok := range batch {
		if tok.OwnerID != 7 {
			t.Errorf("token owner = %d, want 7", tok.OwnerID)
		}
		switch tok.Kind {
		case model.ContactKindEmail:
			foundEmail = true
			if tok.Token != wantEmailToken {
				t.Errorf("email token = %s, want %s", tok.Token, wantEmailToken)
			}
		case model.ContactKindPhone:
			foundPhone = true
		}
	}
	if !foundEmail || !foundPhone {
		t.Errorf("batch = %v, want one email and one phone token", batch)
	}

	// Raw identifiers are deleted with the source object after import.
	if len(storage.deleted) != 1 || storage.deleted[0] != "linkedin_uploads/7/Connections.csv" {
		t.Errorf("deleted = %v, want the source object", storage.deleted)
	}
}

func TestImportService_ImportExport_ZIPArchive(t *testing.T) {
	archive := zipWithEntries(t, map[string]string{
		"Basic_LinkedInDataExport/Connections.csv": connectionsCSV,
		"Basic_LinkedInDataExport/Profile.csv":     "First Name,Last Name\nMe,Myself\n",
	})
	storage := &mockObjectStorage{
		downloadFn: func(ctx context.Context, bucket, key string) ([]byte, error) {
			return archive, nil
		},
	}
	tokens := &mockContactTokenRepo{}
	svc := NewImportService(storage, tokens)

	count, err := svc.ImportExport(context.Background(), 7, "linkedin_uploads/7/export.zip", "uploads")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	// Profile.csv is ignored; only Connections.csv rows tokenize.
	if count != 2 {
		t.Errorf("tokens written = %d, want 2", count)
	}
}

func TestImportService_ImportExport_RejectsForeignPath(t *testing.T) {
	storage := &mockObjectStorage{}
	tokens := &mockContactTokenRepo{}
	svc := NewImportService(storage, tokens)

	// Caller 7 must not import an export uploaded under user 8.
	_, err := svc.ImportExport(context.Background(), 7, "linkedin_uploads/8/Connections.csv", "uploads")
	if !errors.Is(err, ErrInvalidExportPath) {
		t.Errorf("error = %v, want ErrInvalidExportPath", err)
	}
	if len(tokens.upsertCalls) != 0 {
		t.Error("no tokens may be written for a rejected path")
	}
}

func TestImportService_ImportExport_RejectsMalformedPath(t *testing.T) {
	svc := NewImportService(&mockObjectStorage{}, &mockContactTokenRepo{})

	_, err := svc.ImportExport(context.Background(), 7, "somewhere/else.csv", "uploads")
	if !errors.Is(err, ErrInvalidExportPath) {
		t.Errorf("error = %v, want ErrInvalidExportPath", err)
	}
}

func TestImportService_ImportExport_RejectsMissingBucket(t *testing.T) {
	downloads := 0
	storage := &mockObjectStorage{
		downloadFn: func(ctx context.Context, bucket, key string) ([]byte, error) {
			downloads++
			return []byte(connectionsCSV), nil
		},
	}
	tokens := &mockContactTokenRepo{}
	svc := NewImportService(storage, tokens)

	_, err := svc.ImportExport(context.Background(), 7, "linkedin_uploads/7/Connections.csv", "")
	if !errors.Is(err, ErrMissingBucket) {
		t.Errorf("error = %v, want ErrMissingBucket", err)
	}
	if downloads != 0 {
		t.Error("storage must not be contacted without a bucket name")
	}
	if len(tokens.upsertCalls) != 0 {
		t.Error("no tokens may be written without a bucket name")
	}
}

func TestImportService_ImportExport_UnsupportedExtension(t *testing.T) {
	storage := &mockObjectStorage{
		downloadFn: func(ctx context.Context, bucket, key string) ([]byte, error) {
			return []byte("{}"), nil
		},
	}
	svc := NewImportService(storage, &mockContactTokenRepo{})

	_, err := svc.ImportExport(context.Background(), 7, "linkedin_uploads/7/export.json", "uploads")
	if !errors.Is(err, ErrUnsupportedExport) {
		t.Errorf("error = %v, want ErrUnsupportedExport", err)
	}
}

func TestImportService_ImportExport_DeleteFailureTolerated(t *testing.T) {
	// Losing the cleanup must not fail an import that already committed.
	storage := &mockObjectStorage{
		downloadFn: func(ctx context.Context, bucket, key string) ([]byte, error) {
			return []byte(connectionsCSV), nil
		},
		deleteFn: func(ctx context.Context, bucket, key string) error {
			return errors.New("access denied")
		},
	}
	svc := NewImportService(storage, &mockContactTokenRepo{})

	count, err := svc.ImportExport(context.Background(), 7, "linkedin_uploads/7/Connections.csv", "uploads")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if count != 2 {
		t.Errorf("tokens written = %d, want 2", count)
	}
}

func TestImportService_ImportExport_EmptyCSV(t *testing.T) {
	storage := &mockObjectStorage{
		downloadFn: func(ctx context.Context, bucket, key string) ([]byte, error) {
			return []byte("First Name,Last Name,Email Address,Phone Number\n"), nil
		},
	}
	tokens := &mockContactTokenRepo{}
	svc := NewImportService(storage, tokens)

	count, err := svc.ImportExport(context.Background(), 7, "linkedin_uploads/7/Connections.csv", "uploads")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if count != 0 {
		t.Errorf("tokens written = %d, want 0", count)
	}
}
