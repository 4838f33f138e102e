package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"logweave"
	"logweave/backend"
)

func newResolveCommand(configFlag *string, structuredFlag *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve",
		Short: "Show the backends and settings a config resolves to",
		RunE: func(cmd *cobra.Command, args []string) error {
			model, err := loadModel(*configFlag, *structuredFlag)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderBackendsTable())
			fmt.Fprintln(out)

			switch cfg := model.(type) {
			case *logweave.LoggingConfig:
				printStandardResolution(cmd, cfg)
			case *logweave.StructLoggingConfig:
				printStructuredResolution(cmd, cfg)
			default:
				return fmt.Errorf("unexpected config model %T", model)
			}
			return nil
		},
	}
}

func renderBackendsTable() string {
	kinds := []backend.Kind{backend.Standard, backend.HighPerformance, backend.Structured}
	rows := make([][]string, 0, len(kinds))
	for _, kind := range kinds {
		installed := "no"
		if _, ok := backend.Lookup(kind); ok {
			installed = "yes"
		}
		rows = append(rows, []string{kind.String(), installed})
	}
	return renderTable([]string{"Backend", "Installed"}, rows)
}

func printStandardResolution(cmd *cobra.Command, cfg *logweave.LoggingConfig) {
	out := cmd.OutOrStdout()
	kind := cfg.BackendKind()
	compiled := cfg.Compile(kind)

	fmt.Fprintf(out, "Selected backend: %s\n", kind)
	fmt.Fprintf(out, "Exception logging: %v (limit %d lines)\n\n",
		compiled["exception_logging_handler"] != nil, cfg.TracebackLineLimit)

	var handlerRows [][]string
	for _, name := range sortedKeys(cfg.Handlers) {
		desc := cfg.Handlers[name]
		handlerRows = append(handlerRows, []string{
			name,
			descString(desc, "class"),
			descString(desc, "level"),
			descString(desc, "formatter"),
			strings.Join(descStrings(desc, "handlers"), ", "),
		})
	}
	fmt.Fprintln(out, renderTable([]string{"Handler", "Class", "Level", "Formatter", "Feeds"}, handlerRows))
	fmt.Fprintln(out)

	var loggerRows [][]string
	for _, name := range sortedKeys(cfg.Loggers) {
		desc := cfg.Loggers[name]
		loggerRows = append(loggerRows, []string{
			name,
			descString(desc, "level"),
			strings.Join(descStrings(desc, "handlers"), ", "),
			descString(desc, "propagate"),
		})
	}
	if root, ok := compiled["root"].(map[string]any); ok {
		loggerRows = append(loggerRows, []string{
			"(root)",
			descString(root, "level"),
			strings.Join(descStrings(root, "handlers"), ", "),
			"false",
		})
	}
	fmt.Fprintln(out, renderTable([]string{"Logger", "Level", "Handlers", "Propagate"}, loggerRows))
}

func printStructuredResolution(cmd *cobra.Command, cfg *logweave.StructLoggingConfig) {
	out := cmd.OutOrStdout()
	settings := cfg.Settings()

	output := "console"
	if cfg.AsJSON() {
		output = "json"
	}
	fmt.Fprintf(out, "Selected backend: %s (%s output)\n\n", backend.Structured, output)

	var rows [][]string
	for i, proc := range settings.Processors {
		rows = append(rows, []string{fmt.Sprintf("%d", i+1), proc.Name()})
	}
	fmt.Fprintln(out, renderTable([]string{"#", "Processor"}, rows))

	if cfg.StandardLibConfig != nil {
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Bridged standard-library config (%s backend):\n", cfg.StandardLibConfig.BackendKind())
		printStandardResolution(cmd, cfg.StandardLibConfig)
	}
}

func sortedKeys(m map[string]map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func descString(desc map[string]any, key string) string {
	val, ok := desc[key]
	if !ok {
		return ""
	}
	return fmt.Sprint(val)
}

func descStrings(desc map[string]any, key string) []string {
	switch vals := desc[key].(type) {
	case []string:
		return vals
	case []any:
		out := make([]string, 0, len(vals))
		for _, v := range vals {
			out = append(out, fmt.Sprint(v))
		}
		return out
	}
	return nil
}
