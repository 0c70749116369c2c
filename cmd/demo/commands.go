package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/smukkama/bike-demand/internal/client"
	"github.com/smukkama/bike-demand/internal/protocol"
	"github.com/smukkama/bike-demand/pkg/config"
)

var nocontext = context.Background()

// errServerDown aborts the demo when /health is unreachable
var errServerDown = errors.New("prediction service is not running")

type globalFlags struct {
	client  *config.ClientConfig
	URL     string
	Timeout time.Duration
}

func registerFlags(app *kingpin.Application, cfg *config.ClientConfig) *globalFlags {
	f := &globalFlags{client: cfg}
	app.Flag("url", "prediction service base URL").
		Default(cfg.BaseURL).
		StringVar(&f.URL)
	app.Flag("timeout", "per-request timeout, 0 waits indefinitely").
		Default(cfg.Timeout.String()).
		DurationVar(&f.Timeout)
	return f
}

func (f *globalFlags) newClient() *client.Client {
	return client.New(f.URL, client.WithTimeout(f.Timeout))
}

type demoCommand struct {
	flags *globalFlags
	pause time.Duration
}

func (c *demoCommand) run(*kingpin.ParseContext) error {
	return runDemo(nocontext, c.flags.newClient(), os.Stdout, c.flags.URL, c.pause)
}

func registerDemo(app *kingpin.Application, flags *globalFlags) {
	c := &demoCommand{flags: flags}
	cmd := app.Command("demo", "run the health check, sample scenarios and error cases").
		Default().
		Action(c.run)
	cmd.Flag("pause", "delay between scenarios").
		Default("1s").
		DurationVar(&c.pause)
}

func registerHealth(app *kingpin.Application, flags *globalFlags) {
	app.Command("health", "check the service health endpoint").
		Action(func(*kingpin.ParseContext) error {
			return runHealth(nocontext, flags.newClient(), os.Stdout)
		})
}

func registerScenarios(app *kingpin.Application, flags *globalFlags) {
	var pause time.Duration
	cmd := app.Command("scenarios", "predict demand for the sample scenarios").
		Action(func(*kingpin.ParseContext) error {
			return runScenarios(nocontext, flags.newClient(), os.Stdout, pause)
		})
	cmd.Flag("pause", "delay between scenarios").
		Default("1s").
		DurationVar(&pause)
}

func registerErrors(app *kingpin.Application, flags *globalFlags) {
	app.Command("errors", "check that malformed requests are rejected").
		Action(func(*kingpin.ParseContext) error {
			return runErrors(nocontext, flags.newClient(), os.Stdout)
		})
}

func runDemo(ctx context.Context, c *client.Client, w io.Writer, baseURL string, pause time.Duration) error {
	fmt.Fprintln(w, "Bike Sharing Demand Prediction - API Demonstration")

	if err := runHealth(ctx, c, w); err != nil {
		fmt.Fprintln(w, "Server is not running. Start it with: go run ./cmd/server")
		return err
	}
	if err := runScenarios(ctx, c, w, pause); err != nil {
		return err
	}
	if err := runErrors(ctx, c, w); err != nil {
		return err
	}

	fmt.Fprintln(w, "\nDemonstration completed!")
	fmt.Fprintf(w, "Web interface: %s\n", baseURL)
	return nil
}

func runHealth(ctx context.Context, c *client.Client, w io.Writer) error {
	fmt.Fprintln(w, "Testing health endpoint...")

	health, err := c.Health(ctx)
	if err != nil {
		if errors.Is(err, client.ErrTransport) {
			fmt.Fprintln(w, "  Cannot connect to server")
			return fmt.Errorf("%w: %w", errServerDown, err)
		}
		fmt.Fprintf(w, "  Health check failed: %v\n", err)
		return err
	}

	fmt.Fprintf(w, "  Health check passed: %s\n", health.Status)
	return nil
}

func runScenarios(ctx context.Context, c *client.Client, w io.Writer, pause time.Duration) error {
	fmt.Fprintln(w, "\nTesting prediction endpoint...")

	for i, s := range scenarios {
		if i > 0 && pause > 0 {
			time.Sleep(pause)
		}

		data, _ := json.MarshalIndent(s.Request, "  ", "  ")
		fmt.Fprintf(w, "\n  Scenario: %s\n  %s\n", s.Name, data)

		resp, err := c.Predict(ctx, s.Request)
		if err != nil {
			var statusErr *client.StatusError
			if errors.As(err, &statusErr) {
				fmt.Fprintf(w, "  Error: %d %s\n", statusErr.StatusCode, statusErr.Message)
				continue
			}
			fmt.Fprintf(w, "  Request failed: %v\n", err)
			continue
		}

		fmt.Fprintf(w, "  Prediction: %v bike rentals\n", resp.Prediction)
		fmt.Fprintf(w, "  %s\n", interpret(resp.Prediction))
	}
	return nil
}

// runErrors returns an error when the service accepts a malformed request
func runErrors(ctx context.Context, c *client.Client, w io.Writer) error {
	fmt.Fprintln(w, "\nTesting error handling...")

	cases := []struct {
		name string
		body string
	}{
		{"missing fields", `{"temperature": 25.0}`},
		{"invalid JSON", "invalid json"},
	}

	var failed int
	for _, tc := range cases {
		fmt.Fprintf(w, "  Testing %s...\n", tc.name)

		_, err := c.PredictRaw(ctx, []byte(tc.body))
		var statusErr *client.StatusError
		switch {
		case errors.As(err, &statusErr) && statusErr.StatusCode == 400:
			fmt.Fprintf(w, "  Correctly handled %s: %s\n", tc.name, statusErr.Message)
		case err == nil:
			fmt.Fprintf(w, "  Unexpected success for %s\n", tc.name)
			failed++
		default:
			fmt.Fprintf(w, "  Unexpected response for %s: %v\n", tc.name, err)
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d error case(s) not rejected", failed)
	}
	return nil
}

type scenario struct {
	Name    string
	Request protocol.PredictRequest
}

var scenarios = []scenario{
	{
		Name: "Summer Clear Day",
		Request: protocol.PredictRequest{
			Year: 1, Month: "Jul", Weekday: "Mon",
			Temperature: 28, Humidity: 55, Windspeed: 8,
			Weather: "Clear", Season: "Summer", Holiday: 0, Workingday: 1,
		},
	},
	{
		Name: "Winter Storm Day",
		Request: protocol.PredictRequest{
			Year: 0, Month: "Jan", Weekday: "Sun",
			Temperature: -5, Humidity: 90, Windspeed: 20,
			Weather: "Thunderstrom", Season: "Winter", Holiday: 1, Workingday: 0,
		},
	},
	{
		Name: "Spring Rainy Day",
		Request: protocol.PredictRequest{
			Year: 1, Month: "Apr", Weekday: "Fri",
			Temperature: 15, Humidity: 75, Windspeed: 12,
			Weather: "Light_rainfall", Season: "Spring", Holiday: 0, Workingday: 1,
		},
	},
}

func interpret(prediction float64) string {
	switch {
	case prediction > 1000:
		return "High demand expected!"
	case prediction > 500:
		return "Moderate demand expected"
	default:
		return "Low demand expected"
	}
}
