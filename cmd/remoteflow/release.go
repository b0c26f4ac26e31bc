package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"golang.org/x/time/rate"

	"github.com/odvcencio/remoteflow/pkg/rpc/workflowpb"
	"github.com/odvcencio/remoteflow/pkg/telemetry"
	"github.com/odvcencio/remoteflow/pkg/workflow"
)

type stringList []string

func (s *stringList) String() string {
	return strings.Join(*s, ",")
}

func (s *stringList) Set(v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return fmt.Errorf("empty token")
	}
	*s = append(*s, v)
	return nil
}

// runReleaseCommand releases each handle in turn. Release failures are
// swallowed by the proxy; the command only reports them as warnings.
func runReleaseCommand(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("release", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var common commonFlags
	common.register(fs)
	var tokens stringList
	fs.Var(&tokens, "wf", "Token to release (repeatable)")
	qps := fs.Float64("qps", 0, "Maximum delete requests per second (0 = unlimited)")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return usageError(err)
	}
	for _, arg := range fs.Args() {
		if err := tokens.Set(arg); err != nil {
			return usageError(err)
		}
	}
	if len(tokens) == 0 {
		return usageError(fmt.Errorf("at least one --wf is required"))
	}
	if *qps < 0 {
		return usageError(fmt.Errorf("--qps must not be negative"))
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if *qps > 0 {
		limiter = rate.NewLimiter(rate.Limit(*qps), 1)
	}

	cfg, err := common.load()
	if err != nil {
		return err
	}
	env, err := newCommandEnv(cfg, "cli", stderr)
	if err != nil {
		return err
	}
	defer env.Close()

	events, unsubscribe := env.hub.Subscribe()
	defer unsubscribe()

	sess, err := env.dial(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	for _, token := range tokens {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("release interrupted before %s: %w", token, err)
		}
		workflow.New(sess, &workflowpb.RemoteWorkflow{Token: token}).ReleaseContext(ctx)
		if reason, failed := releaseFailure(events, token); failed {
			fmt.Fprintf(stderr, "warning: release of %s not confirmed: %s\n", token, reason)
			continue
		}
		fmt.Fprintf(stdout, "released %s\n", token)
	}
	return nil
}

// releaseFailure drains events already published for the last release. Hub
// delivery is synchronous into the buffer, so nothing is pending after Release
// returns.
func releaseFailure(events <-chan telemetry.Event, token string) (string, bool) {
	var (
		reason string
		failed bool
	)
	for {
		select {
		case evt, ok := <-events:
			if !ok {
				return reason, failed
			}
			if evt.Type == telemetry.EventWorkflowReleaseFailed && evt.Token == token {
				reason, _ = evt.Data["error"].(string)
				failed = true
			}
		default:
			return reason, failed
		}
	}
}
