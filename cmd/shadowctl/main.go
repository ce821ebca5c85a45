// Package main is the operator CLI for traffic shadowing: it replays a
// single capture file, previews schema inference and shows which reference
// dataset a model would be registered with.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Hydrospheredata/hydro-serving-integrations/internal/config"
	"github.com/Hydrospheredata/hydro-serving-integrations/internal/logging"
	"github.com/Hydrospheredata/hydro-serving-integrations/internal/reference"
	"github.com/Hydrospheredata/hydro-serving-integrations/internal/schema"
	"github.com/Hydrospheredata/hydro-serving-integrations/internal/shadow"
	"github.com/Hydrospheredata/hydro-serving-integrations/internal/storage"
)

type app struct {
	configFile  string
	logLevel    string
	output      string
	out         io.Writer
	newServices func(*config.Config, logrus.FieldLogger) *shadow.Services
}

func main() {
	a := &app{
		out: os.Stdout,
		newServices: func(cfg *config.Config, logger logrus.FieldLogger) *shadow.Services {
			return shadow.NewServices(cfg, logger)
		},
	}
	if err := a.rootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "shadowctl",
		Short:        "Replay captured endpoint traffic into model monitoring",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&a.configFile, "config", "c", "", "config file (YAML, JSON or TOML)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override LOG_LEVEL")
	root.PersistentFlags().StringVarP(&a.output, "output", "o", "json", "output format: json or yaml")

	root.AddCommand(a.processCommand(), a.inferCommand(), a.referenceCommand())
	return root
}

func (a *app) processCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "process <s3-uri>",
		Short: "Shadow one capture file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := storage.ParseURI(args[0])
			if err != nil {
				return err
			}
			services, err := a.services(true)
			if err != nil {
				return err
			}
			defer services.Close()

			summary, err := shadow.NewHandler(services).ProcessObject(cmd.Context(), loc.Bucket, loc.Key)
			if err != nil {
				return err
			}
			return a.print(summary)
		},
	}
}

func (a *app) inferCommand() *cobra.Command {
	var referenceURI string
	cmd := &cobra.Command{
		Use:   "infer <capture-uri>",
		Short: "Print the schema inferred from a capture file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			captureLoc, err := storage.ParseURI(args[0])
			if err != nil {
				return err
			}
			var ref *storage.Location
			if referenceURI != "" {
				loc, err := storage.ParseURI(referenceURI)
				if err != nil {
					return err
				}
				ref = &loc
			}

			services, err := a.services(false)
			if err != nil {
				return err
			}
			defer services.Close()
			store, err := services.Store(cmd.Context())
			if err != nil {
				return err
			}

			s, err := schema.NewContract(store, captureLoc, ref).Schema(cmd.Context())
			if err != nil {
				return err
			}
			return a.print(s)
		},
	}
	cmd.Flags().StringVar(&referenceURI, "reference", "", "reference dataset s3:// URI supplying column names")
	return cmd
}

func (a *app) referenceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reference <model-name>",
		Short: "Print the reference dataset selected for a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			services, err := a.services(false)
			if err != nil {
				return err
			}
			defer services.Close()
			store, err := services.Store(cmd.Context())
			if err != nil {
				return err
			}

			cfg := services.Config()
			uri, err := reference.NewSelector(store, services.Logger()).
				Select(cmd.Context(), cfg.TrainingBucket, cfg.TrainingPrefix, args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.out, uri)
			return err
		},
	}
}

func (a *app) services(validate bool) (*shadow.Services, error) {
	cfg, err := config.Load(a.configFile)
	if err != nil {
		return nil, err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if validate {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	return a.newServices(cfg, logger), nil
}

func (a *app) print(v any) error {
	switch a.output {
	case "", "json":
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(a.out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unsupported output format %q", a.output)
}
