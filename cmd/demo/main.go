// Command demo exercises a running prediction service the way the web form does.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/smukkama/bike-demand/internal/logging"
	"github.com/smukkama/bike-demand/pkg/config"
)

var version = "v0.1.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatalln("demo: cannot load configuration")
	}
	if err := logging.Setup(cfg.Log.Level, cfg.Log.JSON); err != nil {
		logrus.WithError(err).Warnln("demo: falling back to info logging")
	}

	app := kingpin.New("bike-demo", "bike demand prediction demo client")
	flags := registerFlags(app, &cfg.Client)
	registerDemo(app, flags)
	registerHealth(app, flags)
	registerScenarios(app, flags)
	registerErrors(app, flags)
	registerForm(app, flags)

	app.Version(version)
	kingpin.MustParse(app.Parse(os.Args[1:]))
}
