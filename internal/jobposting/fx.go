package jobposting

import (
	"github.com/smallbiznis/jobboard/internal/jobposting/repository"
	"github.com/smallbiznis/jobboard/internal/jobposting/service"
	"go.uber.org/fx"
)

var Module = fx.Module("jobposting.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
