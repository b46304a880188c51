package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Dosada05/scoreboard/models"
	"github.com/Dosada05/scoreboard/repositories"
	"github.com/Dosada05/scoreboard/storage"
)

// Archiver кладет итоговое табло завершенного матча в хранилище объектов
// и записывает публичный URL в матч.
type Archiver struct {
	store  storage.ObjectStore
	repo   repositories.MatchRepository
	logger *slog.Logger
}

func NewArchiver(store storage.ObjectStore, repo repositories.MatchRepository, logger *slog.Logger) *Archiver {
	return &Archiver{store: store, repo: repo, logger: logger}
}

func archiveKey(matchID int) string {
	return fmt.Sprintf("matches/%d/final.json", matchID)
}

// Archive загружает матч и возвращает публичный URL документа.
func (a *Archiver) Archive(ctx context.Context, match *models.Match) (string, error) {
	body, err := json.Marshal(match)
	if err != nil {
		return "", fmt.Errorf("failed to encode match %d: %w", match.ID, err)
	}

	key := archiveKey(match.ID)
	if _, err := a.store.Put(ctx, key, "application/json", bytes.NewReader(body)); err != nil {
		return "", fmt.Errorf("failed to upload archive for match %d: %w", match.ID, err)
	}

	url := a.store.PublicURL(key)
	if err := a.repo.SetArchiveURL(ctx, match.ID, url); err != nil {
		// не оставляем сиротский объект в бакете
		if delErr := a.store.Delete(ctx, key); delErr != nil {
			a.logger.Error("failed to remove orphaned archive", slog.String("key", key), slog.Any("error", delErr))
		}
		return "", fmt.Errorf("failed to store archive url for match %d: %w", match.ID, handleRepositoryError(err))
	}

	a.logger.Info("final scoreboard archived", slog.Int("match_id", match.ID), slog.String("url", url))
	return url, nil
}
