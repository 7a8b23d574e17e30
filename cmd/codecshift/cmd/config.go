package cmd

import (
	"fmt"
	"reflect"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/backmassage/codecshift/internal/config"
)

func newConfigCommand(o *options) *cobra.Command {
	c := &cobra.Command{
		Use:   "config",
		Short: "Configuration commands",
	}
	var effective bool
	dump := &cobra.Command{
		Use:   "dump",
		Short: "Print the configuration as YAML",
		Long: `Print the default configuration as YAML, or with --effective the values
after the config file, environment and flags are applied. Redirect it to a file
to start a config:

  codecshift config dump > codecshift.yaml

Environment variables use the CODECSHIFT_ prefix and underscores for nesting,
e.g. transcoding.crf_quality -> CODECSHIFT_TRANSCODING_CRF_QUALITY.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.DefaultConfig()
			if effective {
				loaded, err := o.loadSettings(cmd)
				if err != nil {
					return err
				}
				cfg = *loaded
			}
			data, err := yaml.Marshal(toMap(cfg))
			if err != nil {
				return fmt.Errorf("marshaling config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	dump.Flags().BoolVar(&effective, "effective", false, "show the loaded configuration instead of the defaults")
	c.AddCommand(dump)
	return c
}

// toMap converts a config struct to a map keyed by mapstructure tags,
// skipping fields without one (derived values).
func toMap(v any) map[string]any {
	result := make(map[string]any)
	val := reflect.ValueOf(v)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		key := typ.Field(i).Tag.Get("mapstructure")
		if key == "" || key == "-" {
			continue
		}
		switch x := field.Interface().(type) {
		case time.Duration:
			result[key] = x.String()
		default:
			switch field.Kind() {
			case reflect.Struct:
				result[key] = toMap(field.Interface())
			case reflect.String:
				result[key] = field.String()
			default:
				result[key] = x
			}
		}
	}
	return result
}
