package db

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/sevaops/bskdash/dataset"
	"github.com/sevaops/bskdash/errors"
)

// Seed replaces the contents of the four reference tables with a flat-file
// snapshot. All inserts run inside one transaction so a partial load never
// becomes visible.
func Seed(ctx context.Context, db *sql.DB, snap *dataset.Snapshot, logger *zap.SugaredLogger) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin seed transaction")
	}
	defer tx.Rollback()

	for _, table := range []string{"provision", "deo_master", "bsk_master", "service_master"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return errors.Wrapf(err, "clear %s", table)
		}
	}

	for _, svc := range snap.Services {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO service_master (service_id, service_name, category, department, active)
			 VALUES (?, ?, ?, ?, ?)`,
			svc.ServiceID, svc.ServiceName, svc.Category, svc.Department, svc.Active)
		if err != nil {
			return errors.Wrapf(err, "insert service %d", svc.ServiceID)
		}
	}

	for _, c := range snap.Centers {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO bsk_master (bsk_code, bsk_name, district, state, pincode, operator_name)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			c.BSKCode, c.BSKName, c.District, c.State, c.Pincode, c.OperatorName)
		if err != nil {
			return errors.Wrapf(err, "insert bsk %s", c.BSKCode)
		}
	}

	for _, a := range snap.Agents {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO deo_master (agent_id, agent_name, bsk_code, role, phone)
			 VALUES (?, ?, ?, ?, ?)`,
			a.AgentID, a.AgentName, a.BSKCode, a.Role, a.Phone)
		if err != nil {
			return errors.Wrapf(err, "insert deo %d", a.AgentID)
		}
	}

	for _, p := range snap.Provisions {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO provision (customer_id, service_id, bsk_code, agent_id, status, provision_date, remarks)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			p.CustomerID, p.ServiceID, p.BSKCode, p.AgentID, p.Status, p.ProvisionDate, p.Remarks)
		if err != nil {
			return errors.Wrapf(err, "insert provision for customer %s", p.CustomerID)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit seed transaction")
	}

	if logger != nil {
		logger.Infow("Seeded reference tables",
			"services", len(snap.Services),
			"bsks", len(snap.Centers),
			"deos", len(snap.Agents),
			"provisions", len(snap.Provisions))
	}
	return nil
}

// Stats returns row counts for the four reference tables.
func Stats(ctx context.Context, db *sql.DB) (map[string]int64, error) {
	counts := make(map[string]int64, 4)
	for _, table := range []string{"service_master", "bsk_master", "deo_master", "provision"} {
		var n int64
		if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return nil, errors.Wrapf(err, "count %s", table)
		}
		counts[table] = n
	}
	return counts, nil
}
