package memory

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cmlabs-hris/schedule-core/internal/domain/employee"
)

type seedEmployee struct {
	ID              string                   `json:"id"`
	EmployeeCode    string                   `json:"employee_code"`
	FullName        string                   `json:"full_name"`
	EmploymentClass employee.EmploymentClass `json:"employment_class"`
	BaseTemplate    employee.WeeklyTemplate  `json:"base_template"`
}

type seedFile struct {
	Employees []seedEmployee `json:"employees"`
}

// LoadSeedFile reads employees from a JSON file of the form
// {"employees": [{"id": ..., "full_name": ..., "base_template": {...}}]}
// and puts them into the store. It returns how many were loaded.
func (s *Store) LoadSeedFile(path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read seed file: %w", err)
	}

	var seed seedFile
	if err := json.Unmarshal(raw, &seed); err != nil {
		return 0, fmt.Errorf("decode seed file: %w", err)
	}

	for i, e := range seed.Employees {
		if e.ID == "" {
			return i, fmt.Errorf("seed employee %d: id is required", i)
		}
		if e.EmploymentClass == "" {
			e.EmploymentClass = employee.EmploymentClassRegular
		}
		s.PutEmployee(employee.Employee{
			ID:              e.ID,
			EmployeeCode:    e.EmployeeCode,
			FullName:        e.FullName,
			EmploymentClass: e.EmploymentClass,
			BaseTemplate:    e.BaseTemplate,
		})
	}
	return len(seed.Employees), nil
}
