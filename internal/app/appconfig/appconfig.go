package appconfig

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"

	"exusiai.dev/stageflow/internal/app/appcontext"
	"exusiai.dev/stageflow/internal/pkg/flowerr"
	"exusiai.dev/stageflow/internal/util"
)

const EnvPrefix = "stageflow"

func Parse(ctx appcontext.Ctx) (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	var config ConfigSpec
	err = envconfig.Process(EnvPrefix, &config)
	if err != nil {
		_ = envconfig.Usage(EnvPrefix, &config)
		return nil, fmt.Errorf("failed to parse configuration: %w. More info on how to configure stageflow is located at https://pkg.go.dev/exusiai.dev/stageflow/internal/app/appconfig#ConfigSpec", err)
	}

	if err := util.NewValidator().Struct(&config); err != nil {
		return nil, flowerr.NewInvalidViolations(util.Violations(err))
	}

	return &Config{
		ConfigSpec: config,
		AppContext: ctx,
	}, nil
}
