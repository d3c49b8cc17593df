package crawl

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
	yaml "gopkg.in/yaml.v3"

	"fspider/config"
	"fspider/state"
	"fspider/utils/urls"
)

// Values is a struct that holds variables we make available for output name
// template expansion
type Values struct {
	Context string
	Base    string
	Entry   string
	Host    string
	Session string
	Format  string
}

func writeResult(env *state.LocalEnv, res *Result, dst string, log *zap.Logger) error {
	data, err := encodeResult(res, env.Cfg.Output.Format, env.Cfg.Output.Indent)
	if err != nil {
		return err
	}

	if env.Stdout {
		if _, err := os.Stdout.Write(data); err != nil {
			return fmt.Errorf("unable to write result: %w", err)
		}
		return nil
	}

	name := buildOutputPath(env, res, dst, log)
	if _, err := os.Stat(name); err == nil && !env.Overwrite {
		return fmt.Errorf("output file already exists: %s", name)
	}
	if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}
	if err := os.WriteFile(name, data, 0644); err != nil {
		return fmt.Errorf("unable to write result: %w", err)
	}
	log.Info("Result written", zap.String("entry", res.Entry), zap.String("file", name))
	return nil
}

func encodeResult(res *Result, format config.OutputFmt, indent int) ([]byte, error) {
	buf := new(bytes.Buffer)
	switch format {
	case config.OutputFmtYAML:
		enc := yaml.NewEncoder(buf)
		if indent > 0 {
			enc.SetIndent(indent)
		}
		if err := enc.Encode(res); err != nil {
			return nil, fmt.Errorf("unable to encode result: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("unable to encode result: %w", err)
		}
	default:
		enc := json.NewEncoder(buf)
		enc.SetEscapeHTML(false)
		if indent > 0 {
			enc.SetIndent("", strings.Repeat(" ", indent))
		}
		if err := enc.Encode(res); err != nil {
			return nil, fmt.Errorf("unable to encode result: %w", err)
		}
	}
	return buf.Bytes(), nil
}

// buildOutputPath returns output file path for the entry. Name comes from
// user-defined template, falling back to entry base name when template is
// empty or its expansion fails.
func buildOutputPath(env *state.LocalEnv, res *Result, dst string, log *zap.Logger) string {
	format := env.Cfg.Output.Format
	values := buildValues(res, format)

	name := values.Base
	if tmpl := env.Cfg.Output.NameTemplate; tmpl != "" {
		expanded, err := expandTemplate(config.OutputNameTemplateFieldName, tmpl, values)
		if err != nil {
			log.Warn("Unable to prepare output filename", zap.Error(err))
		} else if len(strings.TrimSpace(expanded)) > 0 {
			name = expanded
		}
	}
	return filepath.Join(dst, cleanName(name)+format.Ext())
}

func buildValues(res *Result, format config.OutputFmt) Values {
	v := Values{
		Entry:   res.Entry,
		Session: res.Session,
		Format:  format.String(),
	}
	if urls.IsRemote(res.Entry) {
		if u, err := url.Parse(res.Entry); err == nil {
			v.Host = u.Hostname()
			v.Base = strings.TrimSuffix(path.Base(u.Path), path.Ext(u.Path))
			if v.Base == "" || v.Base == "/" || v.Base == "." {
				v.Base = v.Host
			}
		}
	} else {
		v.Base = strings.TrimSuffix(filepath.Base(res.Entry), filepath.Ext(res.Entry))
	}
	return v
}

func expandTemplate(name config.TemplateFieldName, field string, values Values) (string, error) {
	funcMap := sprig.FuncMap()

	tmpl, err := template.New(string(name)).Funcs(funcMap).Parse(field)
	if err != nil {
		return "", fmt.Errorf("unable to parse template field %s: %w", name, err)
	}

	values.Context = string(name)

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// cleanName makes a single file name out of expanded template.
func cleanName(name string) string {
	name = slug.Make(name)
	return config.CleanFileName(name)
}

// reportName returns stable name for entry in debug report.
func reportName(entry string) string {
	return slug.Make(strings.TrimSuffix(entry, path.Ext(entry)))
}
