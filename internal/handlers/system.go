package handlers

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/osuchan/stats-api/internal/models"
)

// InstallDatabase applies the schema files of both databases. Every statement
// is idempotent, so the endpoint can be called on every deploy.
// @Summary Install Database Schema
// @Description Executes SQL migrations for PostgreSQL and ClickHouse
// @Tags System
// @Produce json
// @Success 200 {object} models.InstallResponse
// @Failure 500 {object} models.InstallResponse
// @Router /system/install [post]
func (h *Handler) InstallDatabase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := models.InstallResponse{Success: true, Results: make(map[string]string)}

	apply := func(db string, exec func(context.Context, string) error) {
		files, err := migrationFiles(filepath.Join(h.migrationsDir, db))
		if err != nil {
			resp.Results[db] = "failed: " + err.Error()
			resp.Success = false
			return
		}
		for _, path := range files {
			key := db + "/" + filepath.Base(path)
			if err := exec(ctx, path); err != nil {
				resp.Results[key] = "failed: " + err.Error()
				resp.Success = false
				// Later files depend on earlier ones
				return
			}
			resp.Results[key] = "success"
		}
	}

	apply("postgres", h.executePostgresSQL)
	apply("clickhouse", h.executeClickHouseSQL)

	status := http.StatusOK
	if !resp.Success {
		status = http.StatusInternalServerError
	}
	h.jsonResponse(w, status, resp)
}

// migrationFiles lists the .sql files of dir in name order.
func migrationFiles(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no schema files in %s", dir)
	}
	sort.Strings(files)
	return files, nil
}

// executePostgresSQL reads a SQL file and executes it on Postgres
func (h *Handler) executePostgresSQL(ctx context.Context, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		h.logger.Errorw("failed to read schema file", "db", "PostgreSQL", "path", path, "error", err)
		return err
	}

	if _, err := h.pg.Exec(ctx, string(content)); err != nil {
		h.logger.Errorw("failed to execute schema", "db", "PostgreSQL", "path", path, "error", err)
		return err
	}

	h.logger.Infow("successfully installed schema", "db", "PostgreSQL", "path", path)
	return nil
}

// executeClickHouseSQL runs a SQL file on ClickHouse one statement at a time,
// the driver rejects multi-statement queries.
func (h *Handler) executeClickHouseSQL(ctx context.Context, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		h.logger.Errorw("failed to read schema file", "db", "ClickHouse", "path", path, "error", err)
		return err
	}

	for _, stmt := range strings.Split(string(content), ";") {
		trimmed := strings.TrimSpace(stmt)
		if trimmed == "" {
			continue
		}

		if err := h.ch.Exec(ctx, trimmed); err != nil {
			h.logger.Warnw("statement execution failed", "db", "ClickHouse", "error", err, "statement", trimmed[:min(len(trimmed), 50)]+"...")
			return err
		}
	}

	h.logger.Infow("successfully installed schema", "db", "ClickHouse", "path", path)
	return nil
}
