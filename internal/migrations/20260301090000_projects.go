package migrations

import "github.com/jmoiron/sqlx"

func init() {
	m.addMigration(&migration{
		version: "20260301090000",
		up:      mig_20260301090000_projects_up,
		down:    mig_20260301090000_projects_down,
	})
}

func mig_20260301090000_projects_up(tx *sqlx.Tx) error {
	_, err := tx.Exec(`
        CREATE TABLE IF NOT EXISTS projects (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            name VARCHAR(200) NOT NULL,
            description VARCHAR(1000) NOT NULL DEFAULT '',
            status VARCHAR(20) NOT NULL DEFAULT 'backlog' CHECK (status IN ('done', 'inprogress', 'paused', 'backlog')),
            is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
            deleted_at TIMESTAMP WITH TIME ZONE,
            created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
        );
    `)
	if err != nil {
		return err
	}

	// Names only need to be unique among live projects; deleted ones keep theirs.
	_, err = tx.Exec(`
        CREATE UNIQUE INDEX IF NOT EXISTS idx_projects_live_name ON projects(name) WHERE is_deleted = false;
    `)
	return err
}

func mig_20260301090000_projects_down(tx *sqlx.Tx) error {
	_, err := tx.Exec(`DROP TABLE IF EXISTS projects;`)
	return err
}
