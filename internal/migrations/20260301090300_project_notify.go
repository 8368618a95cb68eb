package migrations

import "github.com/jmoiron/sqlx"

func init() {
	m.addMigration(&migration{
		version: "20260301090300",
		up:      mig_20260301090300_project_notify_up,
		down:    mig_20260301090300_project_notify_down,
	})
}

func mig_20260301090300_project_notify_up(tx *sqlx.Tx) error {
	_, err := tx.Exec(`
		CREATE OR REPLACE FUNCTION notify_project_change()
		RETURNS TRIGGER AS $$
		BEGIN
			PERFORM pg_notify('project_changes', TG_TABLE_NAME || ':' || TG_OP);
			RETURN COALESCE(NEW, OLD);
		END;
		$$ LANGUAGE plpgsql;
	`)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
		CREATE TRIGGER projects_notify
		AFTER INSERT OR UPDATE OR DELETE ON projects
		FOR EACH ROW EXECUTE FUNCTION notify_project_change();
	`)
	return err
}

func mig_20260301090300_project_notify_down(tx *sqlx.Tx) error {
	_, err := tx.Exec(`DROP TRIGGER IF EXISTS projects_notify ON projects;`)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`DROP FUNCTION IF EXISTS notify_project_change();`)
	return err
}
