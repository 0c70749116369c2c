package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/smukkama/bike-demand/internal/form"
	"github.com/smukkama/bike-demand/internal/timer"
	"github.com/smukkama/bike-demand/pkg/config"
)

type formCommand struct {
	flags  *globalFlags
	sample bool
	set    []string
}

func (c *formCommand) run(*kingpin.ParseContext) error {
	return runForm(nocontext, c.flags.newClient(), c.flags.client, os.Stdout, c.sample, c.set)
}

func registerForm(app *kingpin.Application, flags *globalFlags) {
	c := &formCommand{flags: flags}
	cmd := app.Command("form", "fill in and submit the prediction form").
		Action(c.run)
	cmd.Flag("sample", "load the sample data before applying overrides").
		Default("true").
		BoolVar(&c.sample)
	cmd.Flag("set", "field value, e.g. --set month=Jan; applied in the order given").
		StringsVar(&c.set)
}

func runForm(ctx context.Context, predictor form.Predictor, cfg *config.ClientConfig, w io.Writer, sample bool, set []string) error {
	scheduler := timer.NewScheduler()
	scheduler.Start()
	defer scheduler.Stop()

	view := newConsoleView(w)
	controller := form.NewController(view, predictor, scheduler, form.Options{
		ErrorDismiss:   cfg.ErrorDismiss,
		SuccessDismiss: cfg.SuccessDismiss,
		FrameInterval:  cfg.FrameInterval,
		Logger:         logrus.StandardLogger(),
	})
	controller.Setup()
	defer controller.Close()

	if sample {
		if err := view.click(form.SampleControlID); err != nil {
			return err
		}
	}

	for _, pair := range set {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("invalid field assignment %q, expected field=value", pair)
		}
		f := form.Field(name)
		if !isField(f) {
			return fmt.Errorf("unknown field %q", name)
		}
		view.SetValue(f, value)
		switch f {
		case form.FieldMonth:
			controller.MonthChanged()
		case form.FieldTemperature, form.FieldHumidity, form.FieldWindspeed:
			controller.NumericInput(f)
		}
	}

	fmt.Fprintln(w, "Submitting form...")
	if err := controller.Submit(ctx); err != nil {
		return fmt.Errorf("form not submitted: %w", err)
	}

	controller.Settle()
	fmt.Fprintf(w, "Predicted demand: %s bikes\n", view.resultText())
	return nil
}

func isField(f form.Field) bool {
	for _, known := range form.Fields {
		if f == known {
			return true
		}
	}
	return false
}
