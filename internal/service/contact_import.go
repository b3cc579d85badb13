package service

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"regexp"
	"strconv"
	"strings"

	"putrace/internal/model"
	"putrace/internal/repository"
)

// Import errors surfaced to the caller as InvalidArgument.
var (
	ErrInvalidExportPath = errors.New("invalid file path format")
	ErrUnsupportedExport = errors.New("unsupported export file type")
	ErrMissingBucket     = errors.New("bucket name is required")
)

// uploadPathPattern matches the expected object key layout for uploaded
// exports: linkedin_uploads/<uid>/<filename>.
var uploadPathPattern = regexp.MustCompile(`^linkedin_uploads/(\d+)/`)

// connectionsCSVPattern matches the connections file inside a GDPR archive.
var connectionsCSVPattern = regexp.MustCompile(`(?i)Connections\.csv$`)

// ImportService parses uploaded contact exports (LinkedIn GDPR CSV or ZIP)
// into per-owner contact tokens. Raw identifiers never reach the database:
// each is normalized and HMAC-SHA256 hashed with the owner's ID as key, so
// tokens are only comparable through the graph builder's intersection step.
type ImportService struct {
	storage   ObjectStorage
	tokenRepo repository.ContactTokenRepository
}

func NewImportService(storage ObjectStorage, tokenRepo repository.ContactTokenRepository) *ImportService {
	return &ImportService{
		storage:   storage,
		tokenRepo: tokenRepo,
	}
}

// ImportExport downloads the uploaded file, extracts contact rows, writes
// tokens as one merge batch, and deletes the source object. Returns the
// number of tokens written.
func (s *ImportService) ImportExport(ctx context.Context, callerID int64, filePath, bucketName string) (int, error) {
	if s.storage == nil {
		return 0, fmt.Errorf("object storage not configured")
	}
	if bucketName == "" {
		return 0, ErrMissingBucket
	}
	m := uploadPathPattern.FindStringSubmatch(filePath)
	if m == nil || m[1] != strconv.FormatInt(callerID, 10) {
		// Paths are namespaced per uploader; importing someone else's
		// export is rejected the same way as a malformed path.
		return 0, ErrInvalidExportPath
	}

	data, err := s.storage.Download(ctx, bucketName, filePath)
	if err != nil {
		return 0, fmt.Errorf("download export: %w", err)
	}

	csvFiles, err := extractCSVFiles(filePath, data)
	if err != nil {
		return 0, err
	}
	if len(csvFiles) == 0 {
		return 0, nil
	}

	var tokens []model.ContactToken
	for _, file := range csvFiles {
		rows, err := parseContactRows(file)
		if err != nil {
			return 0, fmt.Errorf("parse export csv: %w", err)
		}
		for _, row := range rows {
			if row.email != "" {
				tokens = append(tokens, model.ContactToken{
					OwnerID: callerID,
					Token:   contactToken(callerID, model.ContactKindEmail, row.email),
					Kind:    model.ContactKindEmail,
				})
			}
			if row.phone != "" {
				tokens = append(tokens, model.ContactToken{
					OwnerID: callerID,
					Token:   contactToken(callerID, model.ContactKindPhone, row.phone),
					Kind:    model.ContactKindPhone,
				})
			}
		}
	}

	if err := s.tokenRepo.UpsertBatch(ctx, tokens); err != nil {
		return 0, fmt.Errorf("write contact tokens: %w", err)
	}

	if err := s.storage.Delete(ctx, bucketName, filePath); err != nil {
		// Tokens are already durable; a leftover upload only costs storage.
		log.Printf("[Import] delete source failed: path=%s err=%v", filePath, err)
	}

	log.Printf("[Import] OK: user=%d path=%s tokens=%d", callerID, filePath, len(tokens))
	return len(tokens), nil
}

// extractCSVFiles returns the CSV payloads of an upload: the file itself for
// .csv, every Connections.csv entry for .zip.
func extractCSVFiles(filePath string, data []byte) ([][]byte, error) {
	switch {
	case strings.HasSuffix(filePath, ".csv"):
		return [][]byte{data}, nil

	case strings.HasSuffix(filePath, ".zip"):
		reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, fmt.Errorf("open zip: %w", err)
		}
		var files [][]byte
		for _, entry := range reader.File {
			if !connectionsCSVPattern.MatchString(entry.Name) {
				continue
			}
			rc, err := entry.Open()
			if err != nil {
				return nil, fmt.Errorf("open zip entry %s: %w", entry.Name, err)
			}
			content, err := io.ReadAll(rc)
			rc.Close()
			if err != nil {
				return nil, fmt.Errorf("read zip entry %s: %w", entry.Name, err)
			}
			files = append(files, content)
		}
		return files, nil

	default:
		return nil, ErrUnsupportedExport
	}
}

type contactRow struct {
	email string
	phone string
}

// parseContactRows reads a headered CSV and extracts normalized email and
// phone columns. Unknown columns are ignored; rows without either field are
// skipped.
func parseContactRows(data []byte) ([]contactRow, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1 // LinkedIn exports have ragged note rows

	header, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, err
	}

	emailIdx, phoneIdx := -1, -1
	for i, col := range header {
		switch strings.TrimSpace(col) {
		case "Email Address", "Email":
			emailIdx = i
		case "Phone Number":
			phoneIdx = i
		}
	}

	var rows []contactRow
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		var row contactRow
		if emailIdx >= 0 && emailIdx < len(record) {
			row.email = strings.ToLower(strings.TrimSpace(record[emailIdx]))
		}
		if phoneIdx >= 0 && phoneIdx < len(record) {
			row.phone = strings.TrimSpace(record[phoneIdx])
		}
		if row.email == "" && row.phone == "" {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// contactToken derives the one-way token for a normalized identifier:
// hex(HMAC-SHA256(key=ownerID, msg="<kind>:<value>")).
func contactToken(ownerID int64, kind, value string) string {
	mac := hmac.New(sha256.New, []byte(strconv.FormatInt(ownerID, 10)))
	mac.Write([]byte(kind + ":" + value))
	return hex.EncodeToString(mac.Sum(nil))
}
