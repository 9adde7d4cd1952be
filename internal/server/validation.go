package server

import (
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	jobpostingdomain "github.com/smallbiznis/jobboard/internal/jobposting/domain"
)

const tagCompensation = "compensation"

var registerOnce sync.Once

// registerValidators installs struct rules on gin's shared validator.
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterStructValidation(validateCreateCompensation, createJobRequest{})
		v.RegisterStructValidation(validateUpdateCompensation, updateJobRequest{})
	})
}

func validateCreateCompensation(sl validator.StructLevel) {
	req := sl.Current().Interface().(createJobRequest)

	compensationType := strings.ToLower(strings.TrimSpace(req.CompensationType))
	if compensationType == "" {
		compensationType = string(jobpostingdomain.CompensationUndisclosed)
	}
	salary := strings.TrimSpace(req.SalaryRange) != ""
	hourly := strings.TrimSpace(req.HourlyRate) != ""

	switch jobpostingdomain.CompensationType(compensationType) {
	case jobpostingdomain.CompensationSalary:
		if !salary {
			sl.ReportError(req.SalaryRange, "salaryRange", "SalaryRange", "required", "")
		}
		if hourly {
			sl.ReportError(req.HourlyRate, "hourlyRate", "HourlyRate", tagCompensation, "")
		}
	case jobpostingdomain.CompensationHourly:
		if !hourly {
			sl.ReportError(req.HourlyRate, "hourlyRate", "HourlyRate", "required", "")
		}
		if salary {
			sl.ReportError(req.SalaryRange, "salaryRange", "SalaryRange", tagCompensation, "")
		}
	case jobpostingdomain.CompensationUndisclosed:
		if salary {
			sl.ReportError(req.SalaryRange, "salaryRange", "SalaryRange", tagCompensation, "")
		}
		if hourly {
			sl.ReportError(req.HourlyRate, "hourlyRate", "HourlyRate", tagCompensation, "")
		}
	}
}

// validateUpdateCompensation only rejects a request that sets both amounts;
// the merged posting is checked again by the service.
func validateUpdateCompensation(sl validator.StructLevel) {
	req := sl.Current().Interface().(updateJobRequest)
	if req.SalaryRange == nil || req.HourlyRate == nil {
		return
	}
	if strings.TrimSpace(*req.SalaryRange) != "" && strings.TrimSpace(*req.HourlyRate) != "" {
		sl.ReportError(req.HourlyRate, "hourlyRate", "HourlyRate", tagCompensation, "")
	}
}
