// Command wizard-cli runs declarative wizard definitions in the terminal and
// imports definitions from OpenAPI documents.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	wizard "github.com/goliatone/go-wizard"
	"github.com/goliatone/go-wizard/pkg/loader"
	"github.com/goliatone/go-wizard/pkg/model"
	"github.com/goliatone/go-wizard/pkg/openapi"
	"github.com/goliatone/go-wizard/pkg/renderers/teaui"
	"github.com/goliatone/go-wizard/pkg/renderers/tui"
	"github.com/goliatone/go-wizard/pkg/summary"
)

var (
	rendererName string
	setValues    []string
	outputPath   string
	printReceipt bool
	operationID  string
)

var rootCmd = &cobra.Command{
	Use:   "wizard-cli",
	Short: "Run declarative terminal wizards",
	Long: `wizard-cli loads a YAML or JSON wizard definition, walks the user
through its steps in the terminal, and prints the collected values.`,
	SilenceUsage: true,
}

var runCmd = &cobra.Command{
	Use:   "run [definition]",
	Short: "Run a wizard definition",
	Args:  cobra.ExactArgs(1),
	RunE:  runWizard,
}

var importCmd = &cobra.Command{
	Use:   "import [openapi-document]",
	Short: "Derive a wizard definition from an OpenAPI operation",
	Args:  cobra.ExactArgs(1),
	RunE:  importOperation,
}

var operationsCmd = &cobra.Command{
	Use:   "operations [openapi-document]",
	Short: "List the operation ids in an OpenAPI document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		ids, err := openapi.Operations(cmd.Context(), data)
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVarP(&rendererName, "renderer", "r", "tui", "Renderer to use (tui, tea)")
	runCmd.Flags().StringArrayVar(&setValues, "set", nil, "Seed a value as step.control=value (repeatable)")
	runCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the snapshot as JSON to a file (stdout if empty)")
	runCmd.Flags().BoolVar(&printReceipt, "receipt", false, "Print a human readable receipt instead of JSON")

	importCmd.Flags().StringVar(&operationID, "operation", "", "Operation id to import")
	importCmd.MarkFlagRequired("operation")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(operationsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runWizard(cmd *cobra.Command, args []string) error {
	doc, err := wizard.LoadFile(args[0])
	if err != nil {
		return err
	}

	seeds, err := parseSeeds(setValues)
	if err != nil {
		return err
	}

	snap, err := wizard.Run(cmd.Context(), doc, rendererName, wizard.RunOptions{Values: seeds})
	if err != nil {
		if errors.Is(err, tui.ErrAborted) || errors.Is(err, teaui.ErrCancelled) || errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "cancelled")
			return nil
		}
		return err
	}

	if printReceipt {
		engine, err := summary.New()
		if err != nil {
			return err
		}
		title := doc.Title
		if title == "" {
			title = doc.Name
		}
		return engine.Receipt(os.Stdout, title, snap)
	}

	payload, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	if outputPath != "" {
		if err := os.WriteFile(outputPath, payload, 0o644); err != nil {
			return err
		}
		fmt.Printf("snapshot written to %s\n", outputPath)
		return nil
	}
	fmt.Println(string(payload))
	return nil
}

func importOperation(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	step, err := openapi.StepFromOperation(cmd.Context(), data, operationID)
	if err != nil {
		return err
	}
	doc := loader.Document{
		Name:  operationID,
		Title: step.Title,
		Steps: []model.Step{step},
	}
	payload, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	fmt.Print(string(payload))
	return nil
}

// parseSeeds turns step.control=value pairs into the value map renderers
// seed before prompting. Scalars are coerced the way YAML would read them.
func parseSeeds(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok || !strings.Contains(key, ".") {
			return nil, fmt.Errorf("invalid --set %q, expected step.control=value", pair)
		}
		out[strings.TrimSpace(key)] = coerceScalar(strings.TrimSpace(raw))
	}
	return out, nil
}

func coerceScalar(raw string) any {
	switch raw {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}
