package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/saviottt/solarcalc/internal/estimator"
)

func estimateCmd(configPath *string) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Run one estimation from a YAML request file and print the result as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := readRequest(file, cmd.InOrStdin())
			if err != nil {
				return err
			}

			a, err := newApp(*configPath)
			if err != nil {
				return err
			}

			res, err := a.engine.Estimate(cmd.Context(), req)
			if err != nil {
				return err
			}
			return writeResult(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", `request file ("-" for stdin)`)
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func readRequest(path string, stdin io.Reader) (estimator.Request, error) {
	var req estimator.Request

	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return req, fmt.Errorf("reading request: %w", err)
	}

	if err := yaml.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("parsing request %s: %w", path, err)
	}
	return req, nil
}

func writeResult(w io.Writer, res *estimator.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
