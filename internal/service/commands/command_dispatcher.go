package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/stationdash/internal/domain/models"
	"github.com/mamadbah2/stationdash/internal/service/reporting"
)

// ErrInvalidArguments indicates the command payload could not be parsed.
var ErrInvalidArguments = errors.New("invalid command arguments")

// ErrUnsupportedCommand indicates we do not yet support the requested command.
var ErrUnsupportedCommand = errors.New("unsupported command")

// ReportingAdapter defines the reporting functions required by the dispatcher.
type ReportingAdapter interface {
	KPISummary(ctx context.Context, metricKey, branch string) (string, error)
	StockSummary(ctx context.Context) (string, error)
	TruckSummary(ctx context.Context) (string, error)
}

// Dispatcher answers parsed commands.
type Dispatcher interface {
	HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error)
}

// Service implements the Dispatcher interface.
type Service struct {
	reporting ReportingAdapter
	logger    *zap.Logger
}

// NewService constructs a command dispatcher.
func NewService(reporting ReportingAdapter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		reporting: reporting,
		logger:    logger,
	}
}

// HandleCommand answers cmd from the reporting service. Fetch failures are
// answered with the user-facing message rather than returned.
func (s *Service) HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error) {
	s.logger.Debug("dispatching command", zap.String("command", string(cmd.Type)), zap.String("sender", sender), zap.Strings("args", cmd.Args))

	switch cmd.Type {
	case models.CommandKPI:
		metric, branch, err := parseKPIArgs(cmd.Args)
		if err != nil {
			return "", err
		}
		return s.answer(ctx, func(ctx context.Context) (string, error) {
			return s.reporting.KPISummary(ctx, metric, branch)
		})
	case models.CommandStock:
		return s.answer(ctx, s.reporting.StockSummary)
	case models.CommandTrucks:
		return s.answer(ctx, s.reporting.TruckSummary)
	case models.CommandHelp:
		return HelpText(), nil
	default:
		return "", ErrUnsupportedCommand
	}
}

func (s *Service) answer(ctx context.Context, fn func(context.Context) (string, error)) (string, error) {
	summary, err := fn(ctx)
	if err != nil {
		s.logger.Warn("summary failed", zap.Error(err))
		return reporting.UserMessage(err), nil
	}
	return summary, nil
}

// parseKPIArgs reads "[metric] [branch words]". The metric is optional; when
// the first word is not a metric it starts the branch name.
func parseKPIArgs(args []string) (metric, branch string, err error) {
	if len(args) == 0 {
		return "", "", nil
	}

	rest := args
	if m, ok := models.LookupMetric(strings.ToLower(args[0])); ok {
		metric = m.Key
		rest = args[1:]
	}
	if len(rest) == 0 {
		return metric, "", nil
	}

	name := strings.Join(rest, " ")
	if strings.EqualFold(name, models.AllBranches) || strings.EqualFold(name, "all") {
		return metric, "", nil
	}
	b, ok := models.LookupBranch(name)
	if !ok {
		return "", "", fmt.Errorf("%w: unknown branch or metric %q", ErrInvalidArguments, name)
	}
	return metric, b, nil
}

// HelpText lists the supported commands and metrics.
func HelpText() string {
	keys := make([]string, 0, len(models.Metrics))
	for _, m := range models.Metrics {
		keys = append(keys, m.Key)
	}
	return "Commands:\n" +
		"/kpi [metric] [branch] - today's progress against target, e.g. /kpi net_sales Tema\n" +
		"/stock - this year's AGO and PMS totals per branch\n" +
		"/trucks - today's truck deliveries\n" +
		"/help - this message\n" +
		"Metrics: " + strings.Join(keys, ", ")
}
