package dataset

import (
	"strconv"
	"strings"
)

// Normalization reconciles per-backend quirks into one canonical row shape:
// every column present, absent and blank cells both collapsing to the empty
// string, numeric identifiers parsed with blank meaning zero. Backends only
// hand over domain columns, so row-tracking metadata never reaches a record.

// field returns the canonical value for a column: the trimmed cell when
// present, the empty string when the cell is blank or missing entirely.
func field(row map[string]string, column string) string {
	return strings.TrimSpace(row[column])
}

// numericField parses a numeric identifier column. Blank, missing, and
// unparseable cells all normalize to zero.
func numericField(row map[string]string, column string) int64 {
	v := field(row, column)
	if v == "" {
		return 0
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func normalizeService(row map[string]string) Service {
	return Service{
		ServiceID:   numericField(row, "service_id"),
		ServiceName: field(row, "service_name"),
		Category:    field(row, "category"),
		Department:  field(row, "department"),
		Active:      field(row, "active"),
	}
}

func normalizeCenter(row map[string]string) TrainingCenter {
	return TrainingCenter{
		BSKCode:      field(row, "bsk_code"),
		BSKName:      field(row, "bsk_name"),
		District:     field(row, "district"),
		State:        field(row, "state"),
		Pincode:      field(row, "pincode"),
		OperatorName: field(row, "operator_name"),
	}
}

func normalizeAgent(row map[string]string) Agent {
	return Agent{
		AgentID:   numericField(row, "agent_id"),
		AgentName: field(row, "agent_name"),
		BSKCode:   field(row, "bsk_code"),
		Role:      field(row, "role"),
		Phone:     field(row, "phone"),
	}
}

func normalizeProvision(row map[string]string) Provision {
	return Provision{
		CustomerID:    field(row, "customer_id"),
		ServiceID:     numericField(row, "service_id"),
		BSKCode:       field(row, "bsk_code"),
		AgentID:       numericField(row, "agent_id"),
		Status:        field(row, "status"),
		ProvisionDate: field(row, "provision_date"),
		Remarks:       field(row, "remarks"),
	}
}
