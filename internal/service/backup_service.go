package service

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"bookmatch/internal/database"
	"bookmatch/internal/logging"
	"bookmatch/internal/models"
	"bookmatch/internal/repository"
)

// BackupVersion is written into every backup file
const BackupVersion = "1.0"

// BackupData is the complete database backup structure
type BackupData struct {
	Version       string                `json:"version"`
	ExportedAt    time.Time             `json:"exported_at"`
	DatabaseType  string                `json:"database_type"`
	Children      []ChildBackup         `json:"children"`
	SavedSessions []models.SavedSession `json:"saved_sessions"`
}

// ChildBackup is a child with everything recorded for them
type ChildBackup struct {
	models.Child
	ReadingHistory []models.ReadingRecord `json:"reading_history"`
	Games          []models.GameRecord    `json:"games"`
}

// BackupSummary counts what an export or import touched
type BackupSummary struct {
	Children       int `json:"children"`
	ReadingRecords int `json:"reading_records"`
	Games          int `json:"games"`
	SavedSessions  int `json:"saved_sessions"`
}

func (s BackupSummary) log(ev *zerolog.Event) {
	ev.Int("children", s.Children).
		Int("reading_records", s.ReadingRecords).
		Int("games", s.Games).
		Int("saved_sessions", s.SavedSessions)
}

// BackupService handles database backup and restore operations
type BackupService struct {
	db       *database.DB
	children *repository.ChildRepository
	readings *repository.ReadingRepository
	games    *repository.GameRepository
	sessions *repository.SavedSessionRepository
	logger   zerolog.Logger
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{
		db:       db,
		children: repository.NewChildRepository(db),
		readings: repository.NewReadingRepository(db),
		games:    repository.NewGameRepository(db),
		sessions: repository.NewSavedSessionRepository(db),
		logger:   logging.WithComponent("backup"),
	}
}

// Snapshot reads every table into a BackupData
func (s *BackupService) Snapshot() (*BackupData, BackupSummary, error) {
	var sum BackupSummary
	backup := &BackupData{
		Version:      BackupVersion,
		ExportedAt:   time.Now().UTC(),
		DatabaseType: s.db.Dialect.MigrationsSubdir(),
	}

	children, err := s.children.GetAllChildren()
	if err != nil {
		return nil, sum, fmt.Errorf("failed to export children: %w", err)
	}
	for _, c := range children {
		records, err := s.readings.GetHistory(c.ID)
		if err != nil {
			return nil, sum, fmt.Errorf("failed to export reading history: %w", err)
		}
		games, err := s.games.GetChildGames(c.ID, 0)
		if err != nil {
			return nil, sum, fmt.Errorf("failed to export games: %w", err)
		}
		backup.Children = append(backup.Children, ChildBackup{Child: c, ReadingHistory: records, Games: games})
		sum.ReadingRecords += len(records)
		sum.Games += len(games)
	}
	sum.Children = len(children)

	backup.SavedSessions, err = s.sessions.GetSessions()
	if err != nil {
		return nil, sum, fmt.Errorf("failed to export saved sessions: %w", err)
	}
	sum.SavedSessions = len(backup.SavedSessions)

	return backup, sum, nil
}

// Export writes a complete backup as indented JSON
func (s *BackupService) Export(w io.Writer) (BackupSummary, error) {
	s.logger.Info().Msg("Starting database export")

	backup, sum, err := s.Snapshot()
	if err != nil {
		return sum, err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(backup); err != nil {
		return sum, fmt.Errorf("failed to encode backup: %w", err)
	}

	ev := s.logger.Info()
	sum.log(ev)
	ev.Msg("Database exported")
	return sum, nil
}

// ExportFile writes a complete backup to outputPath
func (s *BackupService) ExportFile(outputPath string) (BackupSummary, error) {
	file, err := os.Create(outputPath)
	if err != nil {
		return BackupSummary{}, fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	return s.Export(file)
}

// Import restores a backup in one transaction. Children get new IDs and every
// reference to them is remapped, so a backup can be loaded into any database.
// Session IDs are kept and must not already exist.
func (s *BackupService) Import(r io.Reader) (BackupSummary, error) {
	var backup BackupData
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return BackupSummary{}, fmt.Errorf("failed to decode backup: %w", err)
	}
	if backup.Version != BackupVersion {
		return BackupSummary{}, fmt.Errorf("unsupported backup version %q", backup.Version)
	}

	s.logger.Info().Str("version", backup.Version).Time("exported_at", backup.ExportedAt).
		Str("source", backup.DatabaseType).Msg("Starting database import")

	var sum BackupSummary
	err := s.db.WithTx(func(tx *database.Tx) error {
		ids := make(map[int64]int64, len(backup.Children))

		for _, cb := range backup.Children {
			child, err := s.children.RestoreChild(tx, cb.Child)
			if err != nil {
				return fmt.Errorf("failed to import child %q: %w", cb.Name, err)
			}
			ids[cb.ID] = child.ID

			if err := s.readings.InsertRecords(tx, child.ID, cb.ReadingHistory); err != nil {
				return err
			}
			for _, g := range cb.Games {
				g.ChildID = child.ID
				if err := s.games.InsertGame(tx, &g); err != nil {
					return err
				}
			}
			sum.Children++
			sum.ReadingRecords += len(cb.ReadingHistory)
			sum.Games += len(cb.Games)
		}

		for _, saved := range backup.SavedSessions {
			if saved.ChildID != nil {
				newID, ok := ids[*saved.ChildID]
				if !ok {
					return fmt.Errorf("saved session %s refers to unknown child %d", saved.ID, *saved.ChildID)
				}
				saved.ChildID = &newID
			}
			if err := s.sessions.InsertSession(tx, &saved); err != nil {
				return err
			}
			sum.SavedSessions++
		}
		return nil
	})
	if err != nil {
		return BackupSummary{}, err
	}

	ev := s.logger.Info()
	sum.log(ev)
	ev.Msg("Database import completed")
	return sum, nil
}

// ImportFile restores a backup from inputPath
func (s *BackupService) ImportFile(inputPath string) (BackupSummary, error) {
	file, err := os.Open(inputPath)
	if err != nil {
		return BackupSummary{}, fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return s.Import(file)
}
