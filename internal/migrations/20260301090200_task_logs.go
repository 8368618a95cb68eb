package migrations

import "github.com/jmoiron/sqlx"

func init() {
	m.addMigration(&migration{
		version: "20260301090200",
		up:      mig_20260301090200_task_logs_up,
		down:    mig_20260301090200_task_logs_down,
	})
}

func mig_20260301090200_task_logs_up(tx *sqlx.Tx) error {
	_, err := tx.Exec(`
        CREATE TABLE IF NOT EXISTS task_logs (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            user_id UUID NOT NULL REFERENCES users(id),
            date DATE NOT NULL,
            total_hours DOUBLE PRECISION NOT NULL CHECK (total_hours >= 0),
            entries JSONB NOT NULL DEFAULT '[]'::jsonb,
            is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
            CONSTRAINT task_logs_user_date_key UNIQUE (user_id, date)
        );
    `)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
        CREATE INDEX IF NOT EXISTS idx_task_logs_date ON task_logs(date) WHERE is_deleted = false;
    `)
	if err != nil {
		return err
	}

	// Serves the entries @> '[{"project_id": ...}]' lookups of rename propagation.
	_, err = tx.Exec(`
        CREATE INDEX IF NOT EXISTS idx_task_logs_entries ON task_logs USING GIN (entries jsonb_path_ops);
    `)
	return err
}

func mig_20260301090200_task_logs_down(tx *sqlx.Tx) error {
	_, err := tx.Exec(`DROP TABLE IF EXISTS task_logs;`)
	return err
}
