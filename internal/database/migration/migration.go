package migration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/gtrusler/lexpertchatai-sub000/internal/database/pgerr"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_extension_uuid_ossp",
		SQL:  `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	},
	{
		Name: "create_table_chats",
		SQL: `CREATE TABLE IF NOT EXISTS chats (
  id         UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  title      TEXT        NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_documents",
		SQL: `CREATE TABLE IF NOT EXISTS documents (
  id         UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  content    TEXT        NOT NULL DEFAULT '',
  metadata   JSONB       NOT NULL DEFAULT '{}'::jsonb,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  chat_id    UUID        REFERENCES chats (id) ON DELETE SET NULL
);`,
	},
	{
		Name: "create_index_documents_storage_path",
		SQL:  `CREATE UNIQUE INDEX IF NOT EXISTS idx_documents_storage_path ON documents ((metadata->>'storage_path'));`,
	},
	{
		Name: "create_index_documents_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents (created_at);`,
	},
	{
		Name: "create_table_tag_hierarchy",
		SQL: `CREATE TABLE IF NOT EXISTS tag_hierarchy (
  id            UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  name          TEXT        NOT NULL UNIQUE,
  description   TEXT,
  parent_tag_id UUID        REFERENCES tag_hierarchy (id) ON DELETE SET NULL,
  type          TEXT        NOT NULL DEFAULT 'general',
  created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_document_tag_links",
		SQL: `CREATE TABLE IF NOT EXISTS document_tag_links (
  document_id      UUID        NOT NULL REFERENCES documents (id) ON DELETE CASCADE,
  tag_hierarchy_id UUID        NOT NULL REFERENCES tag_hierarchy (id) ON DELETE CASCADE,
  created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
  PRIMARY KEY (document_id, tag_hierarchy_id)
);`,
	},
	{
		Name: "create_table_templates",
		SQL: `CREATE TABLE IF NOT EXISTS templates (
  id           UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  name         TEXT        NOT NULL UNIQUE,
  description  TEXT,
  content      TEXT,
  prompt       TEXT,
  case_history TEXT,
  participants TEXT,
  objective    TEXT,
  created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_template_tag_links",
		SQL: `CREATE TABLE IF NOT EXISTS template_tag_links (
  template_id      UUID        NOT NULL REFERENCES templates (id) ON DELETE CASCADE,
  tag_hierarchy_id UUID        NOT NULL REFERENCES tag_hierarchy (id) ON DELETE CASCADE,
  created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
  PRIMARY KEY (template_id, tag_hierarchy_id)
);`,
	},
	{
		Name: "create_table_template_documents",
		SQL: `CREATE TABLE IF NOT EXISTS template_documents (
  template_id UUID        NOT NULL REFERENCES templates (id) ON DELETE CASCADE,
  document_id UUID        NOT NULL REFERENCES documents (id) ON DELETE CASCADE,
  created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
  PRIMARY KEY (template_id, document_id)
);`,
	},
}

// EnsureMigrated checks a sentinel table and runs the schema steps when it
// is absent. Every step is IF NOT EXISTS, and duplicate-relation or
// unique-violation failures from a concurrent creator are treated as
// success, so racing callers all observe a migrated schema. Any other
// failure is fatal for startup.
func EnsureMigrated(ctx context.Context, db *sql.DB, loc *time.Location, dbHost string) error {
	start := time.Now()

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_check",
		"status":    "starting",
		"db_host":   dbHost,
	})

	var exists bool
	query := "SELECT to_regclass('public.template_documents') IS NOT NULL"
	err := db.QueryRowContext(ctx, query).Scan(&exists)
	if err != nil {
		logJSON(loc, map[string]any{
			"component":     "database",
			"event":         "db_migration_failed",
			"status":        "error",
			"error_message": fmt.Sprintf("failed to check sentinel table: %v", err),
			"db_host":       dbHost,
			"duration_ms":   time.Since(start).Milliseconds(),
		})
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		logJSON(loc, map[string]any{
			"component":   "database",
			"event":       "db_migration_skip",
			"status":      "success",
			"msg":         "schema already exists, skipping migration",
			"db_host":     dbHost,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return nil
	}

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_start",
		"status":    "in_progress",
		"db_host":   dbHost,
	})

	for _, step := range steps {
		stepStart := time.Now()
		_, err := db.ExecContext(ctx, step.SQL)
		if err != nil && (pgerr.IsDuplicateTable(err) || pgerr.IsUniqueViolation(err)) {
			// Another caller created the relation between our check and exec.
			logJSON(loc, map[string]any{
				"component":      "database",
				"event":          "db_migration_step",
				"status":         "success",
				"msg":            "relation already created concurrently",
				"migration_step": step.Name,
				"db_host":        dbHost,
			})
			continue
		}
		if err != nil {
			logJSON(loc, map[string]any{
				"component":        "database",
				"event":            "db_migration_failed",
				"status":           "error",
				"migration_step":   step.Name,
				"error_message":    err.Error(),
				"db_host":          dbHost,
				"duration_ms":      time.Since(start).Milliseconds(),
				"step_duration_ms": time.Since(stepStart).Milliseconds(),
			})
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		logJSON(loc, map[string]any{
			"component":        "database",
			"event":            "db_migration_step",
			"status":           "success",
			"migration_step":   step.Name,
			"db_host":          dbHost,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		})
	}

	logJSON(loc, map[string]any{
		"component":   "database",
		"event":       "db_migration_success",
		"status":      "success",
		"db_host":     dbHost,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return nil
}

func logJSON(loc *time.Location, data map[string]any) {
	data["ts"] = time.Now().In(loc).Format(time.RFC3339Nano)
	if _, ok := data["level"]; !ok {
		if data["status"] == "error" {
			data["level"] = "error"
		} else {
			data["level"] = "info"
		}
	}

	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal migration log: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
