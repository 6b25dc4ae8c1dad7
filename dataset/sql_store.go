package dataset

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/sevaops/bskdash/errors"
)

// Query constants. Each list query carries a contiguous OFFSET/LIMIT window;
// a negative limit means unbounded (SQLite semantics). Only domain columns
// are selected, so backend row metadata never leaks into records.
const (
	serviceListQuery = `
		SELECT service_id, service_name, category, department, active
		FROM service_master ORDER BY service_id LIMIT ? OFFSET ?`

	serviceByIDQuery = `
		SELECT service_id, service_name, category, department, active
		FROM service_master WHERE service_id = ?`

	centerListQuery = `
		SELECT bsk_code, bsk_name, district, state, pincode, operator_name
		FROM bsk_master ORDER BY bsk_code LIMIT ? OFFSET ?`

	centerByCodeQuery = `
		SELECT bsk_code, bsk_name, district, state, pincode, operator_name
		FROM bsk_master WHERE bsk_code = ?`

	agentListQuery = `
		SELECT agent_id, agent_name, bsk_code, role, phone
		FROM deo_master ORDER BY agent_id LIMIT ? OFFSET ?`

	agentByIDQuery = `
		SELECT agent_id, agent_name, bsk_code, role, phone
		FROM deo_master WHERE agent_id = ?`

	provisionListQuery = `
		SELECT customer_id, service_id, bsk_code, agent_id, status, provision_date, remarks
		FROM provision ORDER BY customer_id LIMIT ? OFFSET ?`

	provisionByCustomerQuery = `
		SELECT customer_id, service_id, bsk_code, agent_id, status, provision_date, remarks
		FROM provision WHERE customer_id = ?`
)

// SQLStore reads the four entity collections from the relational store.
// Each query is independently satisfiable: this path also serves direct
// entity lookups by key, not only snapshot assembly, so one missing row set
// does not block the others.
type SQLStore struct {
	db     *sql.DB
	logger *zap.SugaredLogger
}

// NewSQLStore creates a store over an open database handle.
func NewSQLStore(db *sql.DB, logger *zap.SugaredLogger) *SQLStore {
	return &SQLStore{db: db, logger: logger}
}

// ListServices returns a pagination window over service_master.
// limit < 0 means unbounded.
func (s *SQLStore) ListServices(ctx context.Context, skip, limit int) ([]Service, error) {
	rows, err := s.db.QueryContext(ctx, serviceListQuery, limitArg(limit), skip)
	if err != nil {
		return nil, errors.Wrap(err, "list services")
	}
	defer rows.Close()

	var out []Service
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan service")
		}
		out = append(out, svc)
	}
	return out, rows.Err()
}

// GetServiceByID returns the service with the given ID, or ErrNotFound.
func (s *SQLStore) GetServiceByID(ctx context.Context, id int64) (Service, error) {
	row := s.db.QueryRowContext(ctx, serviceByIDQuery, id)
	svc, err := scanService(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Service{}, errors.Wrapf(ErrNotFound, "service %d", id)
	}
	if err != nil {
		return Service{}, errors.Wrapf(err, "get service %d", id)
	}
	return svc, nil
}

// ListCenters returns a pagination window over bsk_master.
func (s *SQLStore) ListCenters(ctx context.Context, skip, limit int) ([]TrainingCenter, error) {
	rows, err := s.db.QueryContext(ctx, centerListQuery, limitArg(limit), skip)
	if err != nil {
		return nil, errors.Wrap(err, "list bsks")
	}
	defer rows.Close()

	var out []TrainingCenter
	for rows.Next() {
		c, err := scanCenter(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan bsk")
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetCenterByCode returns the BSK with the given code, or ErrNotFound.
func (s *SQLStore) GetCenterByCode(ctx context.Context, code string) (TrainingCenter, error) {
	row := s.db.QueryRowContext(ctx, centerByCodeQuery, code)
	c, err := scanCenter(row)
	if errors.Is(err, sql.ErrNoRows) {
		return TrainingCenter{}, errors.Wrapf(ErrNotFound, "bsk %s", code)
	}
	if err != nil {
		return TrainingCenter{}, errors.Wrapf(err, "get bsk %s", code)
	}
	return c, nil
}

// ListAgents returns a pagination window over deo_master.
func (s *SQLStore) ListAgents(ctx context.Context, skip, limit int) ([]Agent, error) {
	rows, err := s.db.QueryContext(ctx, agentListQuery, limitArg(limit), skip)
	if err != nil {
		return nil, errors.Wrap(err, "list deos")
	}
	defer rows.Close()

	var out []Agent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan deo")
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// GetAgentByID returns the DEO with the given agent ID, or ErrNotFound.
func (s *SQLStore) GetAgentByID(ctx context.Context, id int64) (Agent, error) {
	row := s.db.QueryRowContext(ctx, agentByIDQuery, id)
	a, err := scanAgent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Agent{}, errors.Wrapf(ErrNotFound, "deo %d", id)
	}
	if err != nil {
		return Agent{}, errors.Wrapf(err, "get deo %d", id)
	}
	return a, nil
}

// ListProvisions returns a pagination window over provision.
func (s *SQLStore) ListProvisions(ctx context.Context, skip, limit int) ([]Provision, error) {
	rows, err := s.db.QueryContext(ctx, provisionListQuery, limitArg(limit), skip)
	if err != nil {
		return nil, errors.Wrap(err, "list provisions")
	}
	defer rows.Close()

	var out []Provision
	for rows.Next() {
		p, err := scanProvision(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan provision")
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetProvisionByCustomer returns the provision for the given customer ID, or
// ErrNotFound.
func (s *SQLStore) GetProvisionByCustomer(ctx context.Context, customerID string) (Provision, error) {
	row := s.db.QueryRowContext(ctx, provisionByCustomerQuery, customerID)
	p, err := scanProvision(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Provision{}, errors.Wrapf(ErrNotFound, "provision for customer %s", customerID)
	}
	if err != nil {
		return Provision{}, errors.Wrapf(err, "get provision for customer %s", customerID)
	}
	return p, nil
}

// SQLBackend assembles full snapshots from the relational store for the
// analytics path, reusing the store's unbounded list queries.
type SQLBackend struct {
	store *SQLStore
}

// NewSQLBackend creates a snapshot backend over the given store.
func NewSQLBackend(store *SQLStore) *SQLBackend {
	return &SQLBackend{store: store}
}

// Name implements Backend.
func (b *SQLBackend) Name() string { return "sql" }

// Load implements Backend.
func (b *SQLBackend) Load(ctx context.Context) (*Snapshot, error) {
	services, err := b.store.ListServices(ctx, 0, -1)
	if err != nil {
		return nil, err
	}
	centers, err := b.store.ListCenters(ctx, 0, -1)
	if err != nil {
		return nil, err
	}
	agents, err := b.store.ListAgents(ctx, 0, -1)
	if err != nil {
		return nil, err
	}
	provisions, err := b.store.ListProvisions(ctx, 0, -1)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		Services:   services,
		Centers:    centers,
		Agents:     agents,
		Provisions: provisions,
		LoadedAt:   time.Now(),
		Source:     b.Name(),
	}, nil
}

// limitArg maps the unbounded window onto SQLite's negative-limit form.
func limitArg(limit int) int {
	if limit < 0 {
		return -1
	}
	return limit
}

// scanner abstracts *sql.Row and *sql.Rows for the shared scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

// Null columns normalize to the same canonical empty values the flat-file
// path produces: "" for text, 0 for numeric identifiers.

func scanService(sc scanner) (Service, error) {
	var (
		id                                 sql.NullInt64
		name, category, department, active sql.NullString
	)
	if err := sc.Scan(&id, &name, &category, &department, &active); err != nil {
		return Service{}, err
	}
	return Service{
		ServiceID:   id.Int64,
		ServiceName: name.String,
		Category:    category.String,
		Department:  department.String,
		Active:      active.String,
	}, nil
}

func scanCenter(sc scanner) (TrainingCenter, error) {
	var code, name, district, state, pincode, operator sql.NullString
	if err := sc.Scan(&code, &name, &district, &state, &pincode, &operator); err != nil {
		return TrainingCenter{}, err
	}
	return TrainingCenter{
		BSKCode:      code.String,
		BSKName:      name.String,
		District:     district.String,
		State:        state.String,
		Pincode:      pincode.String,
		OperatorName: operator.String,
	}, nil
}

func scanAgent(sc scanner) (Agent, error) {
	var (
		id                      sql.NullInt64
		name, code, role, phone sql.NullString
	)
	if err := sc.Scan(&id, &name, &code, &role, &phone); err != nil {
		return Agent{}, err
	}
	return Agent{
		AgentID:   id.Int64,
		AgentName: name.String,
		BSKCode:   code.String,
		Role:      role.String,
		Phone:     phone.String,
	}, nil
}

func scanProvision(sc scanner) (Provision, error) {
	var (
		serviceID, agentID                    sql.NullInt64
		customer, code, status, date, remarks sql.NullString
	)
	if err := sc.Scan(&customer, &serviceID, &code, &agentID, &status, &date, &remarks); err != nil {
		return Provision{}, err
	}
	return Provision{
		CustomerID:    customer.String,
		ServiceID:     serviceID.Int64,
		BSKCode:       code.String,
		AgentID:       agentID.Int64,
		Status:        status.String,
		ProvisionDate: date.String,
		Remarks:       remarks.String,
	}, nil
}
