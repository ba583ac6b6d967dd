// Package invoicing turns a draft into a committed, rendered invoice.
package invoicing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/satheeshds/repairbook/fsutil"
	"github.com/satheeshds/repairbook/ledger"
	"github.com/satheeshds/repairbook/models"
	"github.com/satheeshds/repairbook/profile"
	"github.com/satheeshds/repairbook/render"
)

// ErrDocument means the invoice was recorded but its document could not
// be produced or stored.
var ErrDocument = errors.New("invoice document generation failed")

// ErrNoDocument is returned when a stored document does not exist.
var ErrNoDocument = errors.New("invoice document not found")

type Result struct {
	Record       models.InvoiceRecord `json:"invoice"`
	DocumentPath string               `json:"-"`
	DocumentName string               `json:"document"`
	ShareURL     string               `json:"share_url"`
}

type Service struct {
	ledger   *ledger.Ledger
	profiles profile.Store
	outDir   string
	log      *slog.Logger
}

func NewService(l *ledger.Ledger, profiles profile.Store, outDir string, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{ledger: l, profiles: profiles, outDir: outDir, log: log}
}

// Generate commits d for userID. Validation failures return a
// *models.ValidationError and persist nothing.
func (s *Service) Generate(ctx context.Context, userID string, d *models.Draft) (*Result, error) {
	if msg := d.Validate(); msg != "" {
		return nil, &models.ValidationError{Msg: msg}
	}
	p := s.profiles.Load(ctx, userID)

	rec, err := s.ledger.Issue(ctx, userID, func(number string, now time.Time) (models.InvoiceRecord, error) {
		return d.Commit(number, now, userID, p.WorkshopName)
	})
	if err != nil {
		return nil, err
	}

	res := &Result{Record: rec, ShareURL: render.ShareLink(rec, p)}
	doc, err := render.PDF(rec, p)
	if err != nil {
		s.log.Error("rendering invoice failed", "user", userID, "number", rec.InvoiceNumber, "error", err)
		return res, fmt.Errorf("%w: %v", ErrDocument, err)
	}
	path, err := s.documentPath(userID, rec.InvoiceNumber)
	if err == nil {
		err = fsutil.WriteFileAtomic(path, doc)
	}
	if err != nil {
		s.log.Error("storing invoice document failed", "user", userID, "number", rec.InvoiceNumber, "error", err)
		return res, fmt.Errorf("%w: %v", ErrDocument, err)
	}
	res.DocumentPath = path
	res.DocumentName = filepath.Base(path)
	return res, nil
}

// Document returns the stored document of an invoice.
func (s *Service) Document(userID, number string) ([]byte, string, error) {
	if _, ok := ledger.ParseNumber(number); !ok {
		return nil, "", ErrNoDocument
	}
	path, err := s.documentPath(userID, number)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, "", ErrNoDocument
	}
	if err != nil {
		return nil, "", fmt.Errorf("reading document: %w", err)
	}
	return data, filepath.Base(path), nil
}

func (s *Service) documentPath(userID, number string) (string, error) {
	if userID == "" || userID == "." || userID == ".." || filepath.Base(userID) != userID {
		return "", fmt.Errorf("%w: %q", ledger.ErrInvalidUser, userID)
	}
	return filepath.Join(s.outDir, userID, render.DocumentFilename(number)), nil
}
