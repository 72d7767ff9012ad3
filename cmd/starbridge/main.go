package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/reusee/dscope"
	"github.com/reusee/starbridge/bridge"
	"github.com/reusee/starbridge/cmds"
	"github.com/reusee/starbridge/configs"
	"github.com/reusee/starbridge/logs"
	"github.com/reusee/starbridge/modes"
	"github.com/reusee/starbridge/vars"
	"golang.org/x/sync/errgroup"
)

var (
	scripts   = cmds.Collect[string]("run", "run a script file")
	exprs     = cmds.Collect[string]("eval", "evaluate an expression with the host globals")
	jobs      = cmds.Var[int]("-j", "number of scripts run at the same time")
	showTrace = cmds.Switch("-trace", "print the merged trace of foreign failures")
)

func main() {
	cmds.Execute(os.Args[1:])
	if len(*scripts) == 0 && len(*exprs) == 0 {
		cmds.GlobalExecutor.PrintUsage()
		return
	}

	var err error
	dscope.New(new(Module), modes.ForProduction()).Call(func(
		run Run,
	) {
		err = run(context.Background(), *scripts, *exprs, vars.FirstNonZero(*jobs, 1), os.Stdout)
	})
	if err != nil {
		report(err)
		os.Exit(1)
	}
}

// Run executes the preloaded scripts, then scripts with up to jobs at once,
// then writes the str() of each expression to out.
type Run func(ctx context.Context, scripts []string, exprs []string, jobs int, out io.Writer) error

func (Module) Run(
	logger logs.Logger,
	newSpan logs.NewSpan,
	loader configs.Loader,
	b *bridge.Bridge,
) Run {
	return func(ctx context.Context, scripts []string, exprs []string, jobs int, out io.Writer) error {
		if err := defineHost(b); err != nil {
			return err
		}

		// preloaded scripts run first, in config order
		for paths := range configs.All[[]string](loader, "starbridge.preload") {
			for _, path := range paths {
				if err := runScript(ctx, logger, newSpan, b, path); err != nil {
					return err
				}
			}
		}

		// with one job, scripts run in command line order and may load earlier ones
		g := new(errgroup.Group)
		g.SetLimit(jobs)
		for _, path := range scripts {
			g.Go(func() error {
				return runScript(ctx, logger, newSpan, b, path)
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		for _, expr := range exprs {
			o, err := b.Eval(expr)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, o.String())
			o.Close()
		}
		return nil
	}
}

func runScript(ctx context.Context, logger logs.Logger, newSpan logs.NewSpan, b *bridge.Bridge, path string) error {
	ctx, _ = newSpan(ctx, "run")
	logger.InfoContext(ctx, "run script", "path", path)
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	mod, err := b.Exec(path, src)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return mod.Close()
}

func report(err error) {
	fmt.Fprintln(os.Stderr, err)
	var foreignErr *bridge.ForeignError
	if *showTrace && errors.As(err, &foreignErr) {
		fmt.Fprint(os.Stderr, bridge.FormatTrace(foreignErr.Trace))
	}
}
