package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/mamadbah2/stationdash/internal/auth"
	"github.com/mamadbah2/stationdash/internal/config"
	"github.com/mamadbah2/stationdash/internal/domain/models"
	"github.com/mamadbah2/stationdash/internal/engine"
	"github.com/mamadbah2/stationdash/internal/service/reporting"
	"github.com/mamadbah2/stationdash/pkg/clients/stationapi"
	"github.com/mamadbah2/stationdash/pkg/logger"
)

// state is shared by every command once Before has run.
type state struct {
	out       io.Writer
	logger    *zap.Logger
	session   *auth.Session
	reporting *reporting.Service
}

func (s *state) init(c *cli.Context) error {
	cfg, err := config.Load(c.String("env-file"))
	if err != nil {
		return err
	}
	if v := c.String("api-url"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := c.String("token-file"); v != "" {
		cfg.Auth.TokenFile = v
	}
	if v := c.String("timezone"); v != "" {
		cfg.Reporting.Timezone = v
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level := "warn"
	if c.Bool("verbose") {
		level = "debug"
	}
	s.logger, err = logger.NewWithLevel(level)
	if err != nil {
		return err
	}

	loc, err := cfg.Reporting.Location()
	if err != nil {
		return err
	}

	s.session, err = auth.NewSession(cfg.API, auth.NewFileTokenStore(cfg.Auth.TokenFile), s.logger.Named("auth"))
	if err != nil {
		return err
	}
	client := stationapi.NewClient(cfg.API, s.session, s.logger.Named("client.stationapi"))
	s.reporting = reporting.NewService(client, loc, s.logger.Named("svc.reporting"),
		reporting.WithDefaultMetric(cfg.Reporting.DefaultMetric))
	return nil
}

func (s *state) close(*cli.Context) error {
	if s.logger != nil {
		_ = s.logger.Sync()
	}
	return nil
}

func (s *state) login(c *cli.Context) error {
	if err := s.session.Login(c.Context, c.String("email"), c.String("password")); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Logged in as %s\n", c.String("email"))
	return nil
}

func (s *state) logout(*cli.Context) error {
	if err := s.session.Clear(); err != nil {
		return err
	}
	fmt.Fprintln(s.out, "Logged out")
	return nil
}

func (s *state) whoami(*cli.Context) error {
	token, err := s.session.Token()
	if err != nil {
		return errors.New(reporting.UserMessage(err))
	}
	claims, err := auth.Inspect(token)
	if err != nil {
		return err
	}

	fmt.Fprintf(s.out, "Subject: %s\n", claims.Subject)
	if claims.ExpiresAt.IsZero() {
		fmt.Fprintln(s.out, "Expires: never")
		return nil
	}
	status := "valid"
	if claims.Expired(time.Now()) {
		status = "expired"
	}
	fmt.Fprintf(s.out, "Expires: %s (%s)\n", claims.ExpiresAt.Format(time.RFC3339), status)
	return nil
}

func (s *state) export(c *cli.Context) error {
	dataset, err := models.ParseDataset(c.Args().First())
	if err != nil {
		return fmt.Errorf("%w (expected sales, trucks or stock)", err)
	}

	spec := engine.SortSpec{Key: c.String("sort"), Direction: engine.Ascending}
	if c.Bool("desc") {
		spec.Direction = engine.Descending
	}
	format := reporting.FormatCSV
	if c.Bool("xlsx") {
		format = reporting.FormatXLSX
	}

	out, ok, err := s.reporting.Export(c.Context, dataset, filterFrom(c), spec, format)
	if err != nil {
		return userError(err)
	}
	if !ok {
		fmt.Fprintln(s.out, "No data to export")
		return nil
	}

	path := c.String("out")
	if path == "" {
		path = out.Filename
	}
	if err := os.WriteFile(path, out.Data, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	fmt.Fprintf(s.out, "Wrote %d rows to %s\n", out.Rows, path)
	return nil
}

func (s *state) kpi(c *cli.Context) error {
	kpis, err := s.reporting.KPIs(c.Context, filterFrom(c), c.String("metric"))
	if err != nil {
		return userError(err)
	}

	fmt.Fprintf(s.out, "%s (%04d-%02d-%02d)\n", kpis.Metric.Label, kpis.Year, kpis.Month, kpis.Day)
	fmt.Fprintf(s.out, "Total:   %s\n", engine.FormatNumber(kpis.TotalValue))
	fmt.Fprintf(s.out, "Daily:   %s of %s (%.1f%%)\n", engine.FormatNumber(kpis.DailyValue), engine.FormatNumber(kpis.Metric.DailyTarget), kpis.DailyProgress)
	fmt.Fprintf(s.out, "Monthly: %s of %s (%.1f%%)\n", engine.FormatNumber(kpis.MonthlyValue), engine.FormatNumber(kpis.Metric.MonthlyTarget), kpis.MonthlyProgress)
	fmt.Fprintf(s.out, "Trend:   %s\n", kpis.Trend)
	return nil
}

func (s *state) branches(c *cli.Context) error {
	branches, err := s.reporting.Branches(c.Context, models.DatasetSales, filterFrom(c))
	if err != nil {
		return userError(err)
	}
	fmt.Fprintln(s.out, strings.Join(branches, "\n"))
	return nil
}

func filterFrom(c *cli.Context) engine.Filter {
	return engine.Filter{
		Branch: c.String("branch"),
		Year:   c.String("year"),
		Month:  c.String("month"),
		Day:    c.String("day"),
		Search: c.String("search"),
	}
}

// userError prefixes err with the message shown to the user.
func userError(err error) error {
	return fmt.Errorf("%s: %w", reporting.UserMessage(err), err)
}
