// Package dataset provides the dual-backend data-access layer for the four
// reference collections: services, training centers (BSKs), field agents
// (DEOs), and service provisions. Records are loaded as one atomic snapshot
// from either delimited flat files or the relational store, normalized into
// typed rows, and cached process-wide with caller-driven invalidation.
package dataset

import (
	"context"
	"time"

	"github.com/sevaops/bskdash/errors"
)

// ErrNotFound indicates a single-record lookup miss. Distinct from an empty
// collection; handlers translate it to 404.
var ErrNotFound = errors.New("record not found")

// Service is one row of the service master table.
type Service struct {
	ServiceID   int64  `json:"service_id"`
	ServiceName string `json:"service_name"`
	Category    string `json:"category"`
	Department  string `json:"department"`
	Active      string `json:"active"`
}

// TrainingCenter is one row of the BSK master table.
type TrainingCenter struct {
	BSKCode      string `json:"bsk_code"`
	BSKName      string `json:"bsk_name"`
	District     string `json:"district"`
	State        string `json:"state"`
	Pincode      string `json:"pincode"`
	OperatorName string `json:"operator_name"`
}

// Agent is one row of the DEO master table.
type Agent struct {
	AgentID   int64  `json:"agent_id"`
	AgentName string `json:"agent_name"`
	BSKCode   string `json:"bsk_code"`
	Role      string `json:"role"`
	Phone     string `json:"phone"`
}

// Provision records a customer receiving a service at a center, optionally
// through an agent. AgentID 0 means unassigned. References are not validated
// here; dangling service/center/agent references flow through to the scorer.
type Provision struct {
	CustomerID    string `json:"customer_id"`
	ServiceID     int64  `json:"service_id"`
	BSKCode       string `json:"bsk_code"`
	AgentID       int64  `json:"agent_id"`
	Status        string `json:"status"`
	ProvisionDate string `json:"provision_date"`
	Remarks       string `json:"remarks"`
}

// Snapshot is one atomically-loaded, internally consistent set of all four
// collections. Snapshots are immutable once published.
type Snapshot struct {
	Services   []Service
	Centers    []TrainingCenter
	Agents     []Agent
	Provisions []Provision

	LoadedAt time.Time
	Source   string
}

// Backend loads all four collections from one storage medium into a
// normalized snapshot.
type Backend interface {
	// Load builds a complete snapshot or fails without returning partial data.
	Load(ctx context.Context) (*Snapshot, error)
	// Name identifies the backend in logs and health reports.
	Name() string
}

// paginate returns at most limit records starting after the first skip, in
// the snapshot's stored order. A negative limit means unbounded.
func paginate[T any](rows []T, skip, limit int) []T {
	if skip < 0 {
		skip = 0
	}
	if skip >= len(rows) {
		return []T{}
	}
	rows = rows[skip:]
	if limit >= 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}

// ListServices returns a pagination window over the service collection.
func (s *Snapshot) ListServices(skip, limit int) []Service {
	return paginate(s.Services, skip, limit)
}

// ListCenters returns a pagination window over the BSK collection.
func (s *Snapshot) ListCenters(skip, limit int) []TrainingCenter {
	return paginate(s.Centers, skip, limit)
}

// ListAgents returns a pagination window over the DEO collection.
func (s *Snapshot) ListAgents(skip, limit int) []Agent {
	return paginate(s.Agents, skip, limit)
}

// ListProvisions returns a pagination window over the provision collection.
func (s *Snapshot) ListProvisions(skip, limit int) []Provision {
	return paginate(s.Provisions, skip, limit)
}

// ServiceByID returns the service with the given ID, or ErrNotFound.
func (s *Snapshot) ServiceByID(id int64) (Service, error) {
	for _, svc := range s.Services {
		if svc.ServiceID == id {
			return svc, nil
		}
	}
	return Service{}, errors.Wrapf(ErrNotFound, "service %d", id)
}

// CenterByCode returns the BSK with the given code, or ErrNotFound.
func (s *Snapshot) CenterByCode(code string) (TrainingCenter, error) {
	for _, c := range s.Centers {
		if c.BSKCode == code {
			return c, nil
		}
	}
	return TrainingCenter{}, errors.Wrapf(ErrNotFound, "bsk %s", code)
}

// AgentByID returns the DEO with the given agent ID, or ErrNotFound.
func (s *Snapshot) AgentByID(id int64) (Agent, error) {
	for _, a := range s.Agents {
		if a.AgentID == id {
			return a, nil
		}
	}
	return Agent{}, errors.Wrapf(ErrNotFound, "deo %d", id)
}

// ProvisionByCustomer returns the provision for the given customer ID, or
// ErrNotFound.
func (s *Snapshot) ProvisionByCustomer(customerID string) (Provision, error) {
	for _, p := range s.Provisions {
		if p.CustomerID == customerID {
			return p, nil
		}
	}
	return Provision{}, errors.Wrapf(ErrNotFound, "provision for customer %s", customerID)
}
