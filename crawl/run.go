// Package crawl implements resolve command: it runs spider session for every
// entry stylesheet and writes collected font records.
package crawl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"fspider/config"
	"fspider/resource"
	"fspider/spider"
	"fspider/state"
	"fspider/utils/urls"
)

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("resolve")

	sources := cmd.Args().Slice()
	if len(sources) == 0 {
		return errors.New("no entry stylesheet has been specified")
	}

	dst := cmd.String("out")
	if len(dst) == 0 {
		env.Stdout = true
	} else if dst, err = filepath.Abs(dst); err != nil {
		return err
	}

	if to := cmd.String("to"); len(to) > 0 {
		format, err := config.ParseOutputFmt(to)
		if err != nil {
			log.Warn("Unknown output format requested, using configured one", zap.Stringer("format", env.Cfg.Output.Format), zap.Error(err))
		} else {
			env.Cfg.Output.Format = format
		}
	}
	if cmd.IsSet("summary") {
		env.Cfg.Output.Summary = cmd.Bool("summary")
	}
	if cmd.IsSet("check-files") {
		env.Cfg.Output.CheckFiles = cmd.Bool("check-files")
	}
	if cmd.IsSet("no-cache") {
		env.Cfg.Spider.Cache = !cmd.Bool("no-cache")
	}
	if cmd.IsSet("max-imports") {
		if n := int(cmd.Int("max-imports")); n > 0 {
			env.Cfg.Spider.MaxImports = n
		}
	}
	env.Overwrite = cmd.Bool("overwrite")

	cs := env.Cfg.Spider.DefaultEncoding
	if cmd.IsSet("encoding") {
		cs = cmd.String("encoding")
	}
	if name, err := env.SetDefaultEncoding(cs); err != nil {
		log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", cs), zap.Error(err))
	} else if env.DefaultEncoding != nil {
		log.Debug("Stylesheets without @charset are decoded as", zap.String("charset", name))
	}

	log.Info("Processing starting", zap.Strings("sources", sources), zap.String("destination", dst), zap.Stringer("format", env.Cfg.Output.Format))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, sources, dst, log)
}

// process handles resolution independently of CLI framework. Each source is
// either stylesheet path, http(s) URL or directory to be searched for
// stylesheets. Failure of one entry does not prevent processing of others,
// all errors are returned together.
func process(ctx context.Context, sources []string, dst string, log *zap.Logger) (err error) {
	env := state.EnvFromContext(ctx)

	fetcher := newFetcher(env, log)

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return err
		}

		entries, er := expandSource(ctx, src, log)
		if er != nil {
			err = multierr.Append(err, er)
			continue
		}
		for _, entry := range entries {
			if er := processEntry(ctx, fetcher, entry, dst, log); er != nil {
				log.Error("Unable to resolve stylesheet", zap.String("entry", entry), zap.Strings("chain", spider.FileChain(er)), zap.Error(er))
				err = multierr.Append(err, er)
			}
		}
	}
	return err
}

// newFetcher builds fetcher according to configuration: local files are
// always available, http(s) only when enabled.
func newFetcher(env *state.LocalEnv, log *zap.Logger) *resource.Dispatcher {
	dec := resource.Decoder{Fallback: env.DefaultEncoding}

	root := env.Cfg.Spider.Root
	if len(root) > 0 {
		if abs, err := filepath.Abs(root); err == nil {
			root = abs
		}
	}
	local := resource.NewFileFetcher(root, dec, log)

	var remote resource.Fetcher
	if hc := env.Cfg.Spider.HTTP; hc.Enable {
		hf := resource.NewHTTPFetcher(hc.Timeout, hc.UserAgent, hc.MaxSize, dec, log)
		hf.Authorization = hc.Authorization.Reveal()
		remote = hf
	}
	return resource.NewDispatcher(local, remote, log)
}

// expandSource turns command line argument into list of entry stylesheets.
func expandSource(ctx context.Context, src string, log *zap.Logger) ([]string, error) {
	if urls.IsRemote(src) {
		return []string{src}, nil
	}

	abs, err := filepath.Abs(src)
	if err != nil {
		return nil, err
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("input source was not found (%s): %w", src, err)
	}
	if !fi.IsDir() {
		return []string{abs}, nil
	}

	var entries []string
	err = filepath.Walk(abs, func(path string, info os.FileInfo, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err != nil {
			log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !info.Mode().IsRegular() || !strings.EqualFold(filepath.Ext(path), ".css") {
			return nil
		}
		entries = append(entries, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		log.Debug("Nothing to process", zap.String("dir", abs))
	}
	return entries, nil
}

// processEntry resolves single entry stylesheet in its own session and
// writes result.
func processEntry(ctx context.Context, fetcher spider.Fetcher, entry, dst string, log *zap.Logger) error {
	env := state.EnvFromContext(ctx)

	res, err := resolveEntry(ctx, fetcher, entry, log)
	if err != nil {
		return err
	}

	if env.Rpt != nil {
		name := reportName(entry)
		env.Rpt.StoreData("records/"+name+".txt", dumpResult(res))
		if !urls.IsRemote(entry) {
			if err := env.Rpt.StoreCopy("sources/"+name+".css", entry); err != nil {
				log.Debug("Unable to store stylesheet copy in report", zap.String("entry", entry), zap.Error(err))
			}
		}
	}

	return writeResult(env, res, dst, log)
}
