package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	rferrors "github.com/odvcencio/remoteflow/pkg/errors"
	"github.com/odvcencio/remoteflow/pkg/rpc/workflowpb"
	"github.com/odvcencio/remoteflow/pkg/workflow"
)

func runChainCommand(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("chain", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var common commonFlags
	common.register(fs)
	wf := fs.String("wf", "", "Token of the receiving workflow")
	with := fs.String("with", "", "Token of the workflow to chain in")
	output := fs.String("output", "", "Output of --wf to connect (requires --input)")
	input := fs.String("input", "", "Input of --with to connect (requires --output)")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return usageError(err)
	}

	wfToken := strings.TrimSpace(*wf)
	withToken := strings.TrimSpace(*with)
	if wfToken == "" || withToken == "" {
		return usageError(fmt.Errorf("--wf and --with are required"))
	}
	link := workflow.Link{Output: strings.TrimSpace(*output), Input: strings.TrimSpace(*input)}
	if (link.Output == "") != (link.Input == "") {
		return usageError(fmt.Errorf("--output and --input must be given together"))
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

	sess, err := env.dial(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	// The handles belong to whoever created them; the CLI never releases them here.
	receiver := workflow.New(sess, &workflowpb.RemoteWorkflow{Token: wfToken})
	operand := workflow.New(sess, &workflowpb.RemoteWorkflow{Token: withToken})

	if err := receiver.ChainWith(ctx, operand, link); err != nil {
		return fmt.Errorf("chain %s into %s (%s): %w", withToken, wfToken, rferrors.Classify(err), err)
	}

	if link.IsZero() {
		fmt.Fprintf(stdout, "chained %s into %s (matching names)\n", withToken, wfToken)
	} else {
		fmt.Fprintf(stdout, "chained %s into %s (%s -> %s)\n", withToken, wfToken, link.Output, link.Input)
	}
	return nil
}
