package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/rishtahq/rishta/core"
	"github.com/rishtahq/rishta/storage"
)

const defaultImportBatchSize = 1000

// Importer loads profiles from CSV into the profile store.
// The first row is the header; columns are matched to profile fields by
// canonical name and unknown columns are ignored with a warning.
type Importer struct {
	profiles  storage.ProfileRepository
	batchSize int
	logger    *slog.Logger
}

// ImporterOption configures an Importer.
type ImporterOption func(*Importer) error

// WithImportBatchSize sets the number of rows inserted per batch.
// Default is 1000.
func WithImportBatchSize(size int) ImporterOption {
	return func(imp *Importer) error {
		if size < 1 {
			size = 1
		}
		imp.batchSize = size
		return nil
	}
}

// WithImporterLogger sets a custom logger.
// Default is slog.Default().
func WithImporterLogger(logger *slog.Logger) ImporterOption {
	return func(imp *Importer) error {
		if logger == nil {
			logger = slog.Default()
		}
		imp.logger = logger.With("component", "ingest.importer")
		return nil
	}
}

// NewImporter creates a new CSV importer.
func NewImporter(profiles storage.ProfileRepository, opts ...ImporterOption) (*Importer, error) {
	if profiles == nil {
		return nil, ErrProfileRepositoryRequired
	}

	imp := &Importer{
		profiles:  profiles,
		batchSize: defaultImportBatchSize,
		logger:    slog.Default().With("component", "ingest.importer"),
	}

	for _, opt := range opts {
		if err := opt(imp); err != nil {
			return nil, err
		}
	}

	return imp, nil
}

// ImportResult summarizes one import run.
type ImportResult struct {
	Inserted int
	Skipped  int // Rows that failed validation or insert
}

// ImportCSV reads profiles from r and inserts them. When drop is true the
// store is emptied first. Rows that fail validation are skipped, and a
// failed batch insert falls back to row-by-row inserts so one bad row
// cannot sink its batch.
func (imp *Importer) ImportCSV(ctx context.Context, r io.Reader, drop bool) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrMissingHeader
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	// Excel exports prepend a UTF-8 byte order mark.
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	columns := imp.mapColumns(header)

	if drop {
		imp.logger.Info("dropping existing profiles")
		if err := imp.profiles.DeleteAllProfiles(ctx); err != nil {
			return nil, err
		}
	}

	result := &ImportResult{}
	batch := make([]*core.Profile, 0, imp.batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		imp.insertBatch(ctx, batch, result)
		batch = batch[:0]
		return ctx.Err()
	}

	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv row %d: %w", line+1, err)
		}
		line++

		profile := imp.buildProfile(columns, row, line)
		if profile == nil {
			result.Skipped++
			continue
		}

		batch = append(batch, profile)
		if len(batch) >= imp.batchSize {
			if err := flush(); err != nil {
				return result, err
			}
		}
	}
	if err := flush(); err != nil {
		return result, err
	}

	imp.logger.Info("import finished", "inserted", result.Inserted, "skipped", result.Skipped)
	return result, nil
}

// mapColumns resolves header names to canonical field names. Unknown
// columns map to "" and are reported once.
func (imp *Importer) mapColumns(header []string) []string {
	known := map[string]string{
		strings.ToLower(core.FieldAge):               core.FieldAge,
		strings.ToLower(core.FieldGender):            core.FieldGender,
		strings.ToLower(core.FieldMaritalStatus):     core.FieldMaritalStatus,
		strings.ToLower(core.FieldCaste):             core.FieldCaste,
		strings.ToLower(core.FieldSect):              core.FieldSect,
		strings.ToLower(core.FieldState):             core.FieldState,
		strings.ToLower(core.FieldAbout):             core.FieldAbout,
		strings.ToLower(core.FieldPartnerPreference): core.FieldPartnerPreference,
	}

	columns := make([]string, len(header))
	for i, name := range header {
		field, ok := known[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			imp.logger.Warn("ignoring unknown csv column", "column", name)
			continue
		}
		columns[i] = field
	}
	return columns
}

// buildProfile converts one CSV row into a profile, or nil if the row is
// invalid.
func (imp *Importer) buildProfile(columns []string, row []string, line int) *core.Profile {
	profile := &core.Profile{}
	for i, value := range row {
		if i >= len(columns) || columns[i] == "" {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}

		switch columns[i] {
		case core.FieldAge:
			age, err := strconv.Atoi(value)
			if err != nil {
				imp.logger.Warn("unparseable age, treating as unknown", "line", line, "value", value)
				continue
			}
			profile.Age = age
		case core.FieldGender:
			profile.Gender = value
		case core.FieldMaritalStatus:
			profile.MaritalStatus = value
		case core.FieldCaste:
			profile.Caste = value
		case core.FieldSect:
			profile.Sect = value
		case core.FieldState:
			profile.State = value
		case core.FieldAbout:
			profile.About = value
		case core.FieldPartnerPreference:
			profile.PartnerPreference = value
		}
	}

	if err := profile.Validate(); err != nil {
		imp.logger.Warn("skipping invalid row", "line", line, "err", err)
		return nil
	}
	return profile
}

// insertBatch inserts a batch, falling back to individual inserts if the
// batch fails as a whole.
func (imp *Importer) insertBatch(ctx context.Context, batch []*core.Profile, result *ImportResult) {
	if _, err := imp.profiles.AddProfiles(ctx, batch...); err == nil {
		result.Inserted += len(batch)
		return
	}

	imp.logger.Warn("batch insert failed, retrying rows individually", "batch", len(batch))
	for _, profile := range batch {
		if _, err := imp.profiles.AddProfiles(ctx, profile); err != nil {
			imp.logger.Warn("failed to insert profile", "err", err)
			result.Skipped++
			continue
		}
		result.Inserted++
	}
}
