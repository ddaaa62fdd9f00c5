package sibylgate

import (
	"github.com/vantle/sibyl/internal/sibylgate/config"
)

func Run(cfg *config.Config) error {
	server, err := createAPIServer(cfg)
	if err != nil {
		return err
	}

	return server.PrepareRun().Run()
}
