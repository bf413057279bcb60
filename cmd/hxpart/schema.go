package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/graphql-go/graphql"
	"github.com/spf13/cobra"
)

const typesQuery = `{
  __schema {
    types {
      name
      kind
      fields { name }
      inputFields { name }
      enumValues { name }
    }
  }
}`

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the GraphQL schema types as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			cfg.GraphQLEnabled = true
			cfg.Database = "memory"

			logger, err := cfg.newLogger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.close()

			schema, err := a.registrar.Schema()
			if err != nil {
				return fmt.Errorf("build graphql schema: %w", err)
			}
			return printSchema(cmd.Context(), cmd.OutOrStdout(), schema, logger)
		},
	}
}

func printSchema(ctx context.Context, w io.Writer, schema graphql.Schema, logger *slog.Logger) error {
	res := graphql.Do(graphql.Params{Schema: schema, RequestString: typesQuery, Context: ctx})
	if res.HasErrors() {
		logger.Error("introspection failed", "errors", res.Errors)
		return errors.New("introspection query failed")
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res.Data)
}
