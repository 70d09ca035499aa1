// ABOUTME: Release service over the release store
// ABOUTME: Validates create input, enforces the lifecycle and renders notes

package releases

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/2389/labeldesk/internal/store"
)

// ListLimit caps how many releases the admin list shows.
const ListLimit = 100

var (
	// ErrInvalidTransition is returned when the lifecycle forbids a status change.
	ErrInvalidTransition = errors.New("invalid release status transition")

	// ErrUnknownStatus is returned for a status value outside the lifecycle.
	ErrUnknownStatus = errors.New("unknown release status")
)

// CreateInput is the submitted create form.
type CreateInput struct {
	Title       string `validate:"required,max=200"`
	Artist      string `validate:"required,max=200"`
	UPC         string `validate:"omitempty,upc"`
	ReleaseDate string `validate:"omitempty,datetime=2006-01-02"`
	Notes       string `validate:"max=20000"`
}

// ValidationError lists create form problems keyed by field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return "invalid release: " + strings.Join(parts, "; ")
}

// Service implements release operations.
type Service struct {
	releases store.ReleaseStore
	validate *validator.Validate
	markdown goldmark.Markdown
	logger   *slog.Logger
	now      func() time.Time
}

// customValidations are the tags CreateInput uses beyond the validator's builtins.
var customValidations = map[string]validator.Func{
	"upc": validUPC,
}

// validUPC accepts a 12 digit barcode, digits only.
func validUPC(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if len(value) != 12 {
		return false
	}
	for _, c := range value {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// newValidator builds a validator with the given custom tags registered.
func newValidator(custom map[string]validator.Func) (*validator.Validate, error) {
	validate := validator.New()
	for tag, fn := range custom {
		if err := validate.RegisterValidation(tag, fn); err != nil {
			return nil, fmt.Errorf("registering %q validation: %w", tag, err)
		}
	}
	return validate, nil
}

// NewService creates a Service backed by the given store. It panics if the
// custom validations fail to register.
func NewService(releases store.ReleaseStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	validate, err := newValidator(customValidations)
	if err != nil {
		panic(err)
	}

	return &Service{
		releases: releases,
		validate: validate,
		markdown: goldmark.New(goldmark.WithExtensions(extension.GFM)),
		logger:   logger.With("component", "releases"),
		now:      time.Now,
	}
}

// List returns releases newest first. An empty status lists every release.
func (s *Service) List(ctx context.Context, status store.ReleaseStatus) ([]*store.Release, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}
	releases, err := s.releases.ListReleases(ctx, store.ReleaseFilter{Status: status, Limit: ListLimit})
	if err != nil {
		return nil, fmt.Errorf("listing releases: %w", err)
	}
	return releases, nil
}

// Get returns one release.
func (s *Service) Get(ctx context.Context, id string) (*store.Release, error) {
	release, err := s.releases.GetRelease(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting release: %w", err)
	}
	return release, nil
}

// Create validates the input and stores a new draft release.
func (s *Service) Create(ctx context.Context, in CreateInput) (*store.Release, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Artist = strings.TrimSpace(in.Artist)
	in.UPC = strings.TrimSpace(in.UPC)
	in.ReleaseDate = strings.TrimSpace(in.ReleaseDate)

	if err := s.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return nil, newValidationError(verrs)
		}
		return nil, fmt.Errorf("validating release: %w", err)
	}

	now := s.now().UTC()
	release := &store.Release{
		ID:        uuid.New().String(),
		Title:     in.Title,
		Artist:    in.Artist,
		UPC:       in.UPC,
		Status:    store.ReleaseStatusDraft,
		Notes:     in.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.ReleaseDate != "" {
		// Already checked by the datetime validator.
		date, _ := time.Parse("2006-01-02", in.ReleaseDate)
		release.ReleaseDate = &date
	}

	if err := s.releases.CreateRelease(ctx, release); err != nil {
		return nil, fmt.Errorf("creating release: %w", err)
	}
	s.logger.Info("release created", "release_id", release.ID, "title", release.Title)
	return release, nil
}

// SetStatus moves a release to a new status if the lifecycle allows it.
func (s *Service) SetStatus(ctx context.Context, id string, to store.ReleaseStatus) (*store.Release, error) {
	if !to.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStatus, to)
	}

	release, err := s.releases.GetRelease(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting release: %w", err)
	}
	if !CanTransition(release.Status, to) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, release.Status, to)
	}

	now := s.now().UTC()
	if err := s.releases.UpdateReleaseStatus(ctx, id, release.Status, to, now); err != nil {
		return nil, fmt.Errorf("updating release status: %w", err)
	}

	s.logger.Info("release status changed", "release_id", id, "from", release.Status, "to", to)
	release.Status = to
	release.UpdatedAt = now
	return release, nil
}

// RenderNotes converts markdown release notes to HTML. Raw HTML in the
// source is not passed through.
func (s *Service) RenderNotes(md string) template.HTML {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(md), &buf); err != nil {
		s.logger.Error("failed to convert release notes", "error", err)
		return template.HTML("<p>Failed to render notes.</p>")
	}
	return template.HTML(buf.String())
}

var fieldMessages = map[string]string{
	"required": "is required",
	"max":      "is too long",
	"upc":      "must be 12 digits",
	"datetime": "must be a date like 2006-01-02",
}

func newValidationError(verrs validator.ValidationErrors) *ValidationError {
	ve := &ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		msg, ok := fieldMessages[fe.Tag()]
		if !ok {
			msg = "is invalid"
		}
		ve.Fields[fe.Field()] = msg
	}
	return ve
}
